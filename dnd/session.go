package dnd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/alexalex89/task-management/domain"
)

// State of a drag session.
type State int

const (
	Idle State = iota
	Dragging
	HoveringTarget
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case HoveringTarget:
		return "hovering"
	default:
		return "idle"
	}
}

type TargetKind int

const (
	TargetItem TargetKind = iota
	TargetCategory
)

// Target is something a task can be dragged over: an item of a list or a
// sidebar category button.
type Target struct {
	Kind     TargetKind
	TaskID   string
	Category domain.Category
}

// Item targets the task id shown in the list of category.
func Item(id string, category domain.Category) Target {
	return Target{Kind: TargetItem, TaskID: id, Category: category}
}

// Button targets the sidebar button of category.
func Button(category domain.Category) Target {
	return Target{Kind: TargetCategory, Category: category}
}

func (t Target) String() string {
	if t.Kind == TargetCategory {
		return "category:" + string(t.Category)
	}
	return fmt.Sprintf("item:%s@%s", t.TaskID, t.Category)
}

// Session tracks one pointer's drag from pick-up to drop or release. It is
// driven from a single event loop and is not safe for concurrent use.
type Session struct {
	board   Board
	sidebar *Sidebar
	logger  *log.Logger

	state          State
	transfer       *DataTransfer
	source         string
	sourceCategory domain.Category
	over           map[Target]struct{}
}

// NewSession wires a session to board. sidebar may be nil, in which case
// category drops are inert.
func NewSession(board Board, sidebar *Sidebar, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Session{
		board:   board,
		sidebar: sidebar,
		logger:  logger,
		over:    make(map[Target]struct{}),
	}
}

func (s *Session) State() State { return s.state }

// Transfer is the payload of the running drag, nil when idle.
func (s *Session) Transfer() *DataTransfer { return s.transfer }

// Source returns the dragged task and the list it left.
func (s *Session) Source() (string, domain.Category, bool) {
	return s.source, s.sourceCategory, s.state != Idle
}

// IsDragging reports whether id carries the "dragging" mark.
func (s *Session) IsDragging(id string) bool {
	return s.state != Idle && s.source == id
}

// IsDragOver reports whether t carries the "drag-over" mark.
func (s *Session) IsDragOver(t Target) bool {
	_, ok := s.over[t]
	return ok
}

// DragStart picks up task id from the list of category and returns the
// transfer a drop target will read.
func (s *Session) DragStart(id string, category domain.Category) (*DataTransfer, error) {
	s.reset()
	dt := NewDataTransfer()
	if err := WritePayload(dt, Payload{TaskID: id, SourceCategory: category}); err != nil {
		return nil, err
	}
	s.transfer = dt
	s.source = id
	s.sourceCategory = category
	s.state = Dragging
	s.logger.WithFields(log.Fields{"task_id": id, "category": category}).Debug("drag started")
	return dt, nil
}

// DragEnter marks t as hovered unless it is the dragged item itself.
func (s *Session) DragEnter(t Target) {
	if s.state == Idle {
		return
	}
	if t.Kind == TargetItem && t.TaskID == s.source {
		return
	}
	s.over[t] = struct{}{}
	s.state = HoveringTarget
}

// DragOver accepts the drop on t and sets the move effect.
func (s *Session) DragOver(t Target) bool {
	if s.transfer == nil {
		return false
	}
	s.transfer.DropEffect = EffectMove
	return true
}

// DragLeave clears the mark on t.
func (s *Session) DragLeave(t Target) {
	delete(s.over, t)
	if s.state == HoveringTarget && len(s.over) == 0 {
		s.state = Dragging
	}
}

// DragEnd releases the drag wherever it happened. Calling it again is
// harmless.
func (s *Session) DragEnd() {
	s.reset()
}

// DropOnItem handles a drop on task targetID in the list of category. dt may
// be nil to use the session's own transfer. The returned error is only ever
// a store failure; malformed payloads are logged and ignored.
func (s *Session) DropOnItem(ctx context.Context, dt *DataTransfer, category domain.Category, targetID string) (Intent, error) {
	if dt == nil {
		dt = s.transfer
	}
	defer s.reset()

	intent := DecodeListDrop(dt.GetData(MIMEJSON), category)
	switch intent.Kind {
	case Malformed:
		s.logMalformed(Item(targetID, category), intent)
		return intent, nil
	case Reorder:
		if intent.TaskID == targetID {
			return intent, nil
		}
		ids, ok := splice(domain.IDs(s.board.ByCategory(category)), intent.TaskID, targetID)
		if !ok {
			return intent, nil
		}
		return intent, s.board.Reorder(ctx, category, ids)
	default:
		if intent.TaskID == targetID {
			return intent, nil
		}
		_, err := s.board.Move(ctx, intent.TaskID, category)
		return intent, err
	}
}

// DropOnCategory handles a drop on the sidebar button of category.
func (s *Session) DropOnCategory(ctx context.Context, dt *DataTransfer, category domain.Category) (Intent, error) {
	if dt == nil {
		dt = s.transfer
	}
	defer s.reset()

	intent := DecodeSidebarDrop(dt.GetData(MIMEJSON), category)
	if intent.Kind == Malformed {
		s.logMalformed(Button(category), intent)
		return intent, nil
	}
	if s.sidebar == nil {
		return intent, nil
	}
	return intent, s.sidebar.drop(ctx, intent.TaskID, category)
}

func (s *Session) logMalformed(t Target, intent Intent) {
	s.logger.WithFields(log.Fields{
		"target": t.String(),
		"error":  intent.Err.Error(),
	}).Error("error processing drop")
}

func (s *Session) reset() {
	s.state = Idle
	s.transfer = nil
	s.source = ""
	s.sourceCategory = ""
	if len(s.over) > 0 {
		s.over = make(map[Target]struct{})
	}
}

// splice moves dragged to the index target holds in ids. ok is false when
// either id is not in the list.
func splice(ids []string, dragged, target string) ([]string, bool) {
	from, to := -1, -1
	for i, id := range ids {
		switch id {
		case dragged:
			from = i
		case target:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return nil, false
	}
	out := make([]string, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]string{dragged}, out[to:]...)...)
	return out, true
}
