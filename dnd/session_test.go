package dnd

import (
	"context"
	"errors"
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/alexalex89/task-management/domain"
)

type moveCall struct {
	id       string
	category domain.Category
}

type reorderCall struct {
	category domain.Category
	ids      []string
}

type fakeBoard struct {
	lists    map[domain.Category][]domain.Task
	moves    []moveCall
	reorders []reorderCall
	err      error
}

func (f *fakeBoard) ByCategory(c domain.Category) []domain.Task { return f.lists[c] }

func (f *fakeBoard) Move(ctx context.Context, id string, c domain.Category) (*domain.Task, error) {
	f.moves = append(f.moves, moveCall{id: id, category: c})
	return &domain.Task{ID: id, Category: c}, f.err
}

func (f *fakeBoard) Reorder(ctx context.Context, c domain.Category, ids []string) error {
	f.reorders = append(f.reorders, reorderCall{category: c, ids: ids})
	return f.err
}

func (f *fakeBoard) calls() int { return len(f.moves) + len(f.reorders) }

func inboxBoard(ids ...string) *fakeBoard {
	tasks := make([]domain.Task, len(ids))
	for i, id := range ids {
		tasks[i] = domain.Task{ID: id, Category: domain.Inbox}
	}
	return &fakeBoard{lists: map[domain.Category][]domain.Task{domain.Inbox: tasks}}
}

func newTestSession(b Board, sb *Sidebar) (*Session, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewSession(b, sb, logger), hook
}

func TestDragStartWritesPayload(t *testing.T) {
	s, _ := newTestSession(inboxBoard("a"), nil)

	dt, err := s.DragStart("a", domain.Inbox)
	if err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if got := dt.GetData(MIMEJSON); got != `{"taskId":"a","sourceCategory":"inbox"}` {
		t.Fatalf("unexpected json payload %s", got)
	}
	if dt.GetData(MIMEHTML) != "a" || dt.EffectAllowed != EffectMove {
		t.Fatalf("unexpected transfer %+v", dt)
	}
	if s.State() != Dragging || !s.IsDragging("a") {
		t.Fatalf("expected dragging a, state %s", s.State())
	}
}

func TestHoverMarks(t *testing.T) {
	s, _ := newTestSession(inboxBoard("a", "b"), nil)
	if _, err := s.DragStart("a", domain.Inbox); err != nil {
		t.Fatalf("drag start: %v", err)
	}

	s.DragEnter(Item("a", domain.Inbox))
	if s.State() != Dragging || s.IsDragOver(Item("a", domain.Inbox)) {
		t.Fatalf("entering the source must not mark it")
	}

	b := Item("b", domain.Inbox)
	s.DragEnter(b)
	if s.State() != HoveringTarget || !s.IsDragOver(b) {
		t.Fatalf("expected hovering b, state %s", s.State())
	}
	if !s.DragOver(b) || s.Transfer().DropEffect != EffectMove {
		t.Fatalf("expected drop accepted with move effect")
	}
	s.DragLeave(b)
	if s.State() != Dragging || s.IsDragOver(b) {
		t.Fatalf("expected mark cleared, state %s", s.State())
	}
}

func TestDragEnterWhileIdleIsIgnored(t *testing.T) {
	s, _ := newTestSession(inboxBoard("a"), nil)
	s.DragEnter(Button(domain.Next))
	if s.State() != Idle || s.IsDragOver(Button(domain.Next)) {
		t.Fatalf("idle session must not hover")
	}
}

func TestDropSameCategoryReorders(t *testing.T) {
	tests := map[string]struct {
		dragged, target string
		want            []string
	}{
		"down":          {dragged: "a", target: "c", want: []string{"b", "c", "a", "d"}},
		"up":            {dragged: "d", target: "b", want: []string{"a", "d", "b", "c"}},
		"to last":       {dragged: "a", target: "d", want: []string{"b", "c", "d", "a"}},
		"to first":      {dragged: "c", target: "a", want: []string{"c", "a", "b", "d"}},
		"neighbor swap": {dragged: "b", target: "c", want: []string{"a", "c", "b", "d"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			b := inboxBoard("a", "b", "c", "d")
			s, _ := newTestSession(b, nil)
			if _, err := s.DragStart(tt.dragged, domain.Inbox); err != nil {
				t.Fatalf("drag start: %v", err)
			}
			intent, err := s.DropOnItem(context.Background(), nil, domain.Inbox, tt.target)
			if err != nil {
				t.Fatalf("drop: %v", err)
			}
			if intent.Kind != Reorder {
				t.Fatalf("expected reorder got %s", intent.Kind)
			}
			if len(b.reorders) != 1 || len(b.moves) != 0 {
				t.Fatalf("expected one reorder, got %+v %+v", b.reorders, b.moves)
			}
			if got := b.reorders[0]; got.category != domain.Inbox || !reflect.DeepEqual(got.ids, tt.want) {
				t.Fatalf("expected %v got %+v", tt.want, got)
			}
			if s.State() != Idle {
				t.Fatalf("expected idle after drop, got %s", s.State())
			}
		})
	}
}

func TestDropOtherCategoryMoves(t *testing.T) {
	b := inboxBoard("x")
	s, _ := newTestSession(b, nil)
	dt := NewDataTransfer()
	if err := WritePayload(dt, Payload{TaskID: "n1", SourceCategory: domain.Next}); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	intent, err := s.DropOnItem(context.Background(), dt, domain.Inbox, "x")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if intent.Kind != CrossMove || intent.Target != domain.Inbox {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if want := []moveCall{{id: "n1", category: domain.Inbox}}; !reflect.DeepEqual(b.moves, want) {
		t.Fatalf("expected %v got %v", want, b.moves)
	}
	if len(b.reorders) != 0 {
		t.Fatalf("unexpected reorder")
	}
}

func TestSelfDropIsNoop(t *testing.T) {
	b := inboxBoard("a", "b")
	s, _ := newTestSession(b, nil)
	if _, err := s.DragStart("a", domain.Inbox); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if _, err := s.DropOnItem(context.Background(), nil, domain.Inbox, "a"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if b.calls() != 0 {
		t.Fatalf("self drop mutated the board")
	}
	if s.State() != Idle {
		t.Fatalf("expected idle, got %s", s.State())
	}
}

func TestMalformedDropsAreLoggedAndIgnored(t *testing.T) {
	payloads := map[string]string{
		"invalid json":     "invalid-json",
		"empty":            "",
		"not an object":    `[1,2,3]`,
		"missing task id":  `{"sourceCategory":"inbox"}`,
		"wrong type":       `{"taskId":7,"sourceCategory":"inbox"}`,
		"missing source":   `{"taskId":"a"}`,
		"unknown category": `{"taskId":"a","sourceCategory":"later"}`,
	}
	for name, raw := range payloads {
		t.Run(name, func(t *testing.T) {
			b := inboxBoard("a", "b")
			s, hook := newTestSession(b, NewSidebar(b))
			if _, err := s.DragStart("a", domain.Inbox); err != nil {
				t.Fatalf("drag start: %v", err)
			}
			dt := NewDataTransfer()
			dt.SetData(MIMEJSON, raw)

			intent, err := s.DropOnItem(context.Background(), dt, domain.Inbox, "b")
			if err != nil {
				t.Fatalf("malformed drop must not error, got %v", err)
			}
			if intent.Kind != Malformed || intent.Err == nil {
				t.Fatalf("expected malformed intent, got %+v", intent)
			}
			if b.calls() != 0 {
				t.Fatalf("malformed drop mutated the board")
			}
			if s.State() != Idle {
				t.Fatalf("expected idle, got %s", s.State())
			}
			entry := hook.LastEntry()
			if entry == nil || entry.Level != log.ErrorLevel {
				t.Fatalf("expected an error log, got %+v", entry)
			}
		})
	}
}

func TestInvalidJSONOnSidebarIsIgnored(t *testing.T) {
	b := inboxBoard("a")
	s, hook := newTestSession(b, NewSidebar(b))
	dt := NewDataTransfer()
	dt.SetData(MIMEJSON, "invalid-json")

	intent, err := s.DropOnCategory(context.Background(), dt, domain.Next)
	if err != nil || intent.Kind != Malformed {
		t.Fatalf("expected malformed intent, got %+v %v", intent, err)
	}
	if b.calls() != 0 || hook.LastEntry() == nil {
		t.Fatalf("expected logged no-op")
	}
}

func TestSidebarDropMoves(t *testing.T) {
	b := inboxBoard("t1")
	s, _ := newTestSession(b, NewSidebar(b))
	if _, err := s.DragStart("t1", domain.Inbox); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	s.DragEnter(Button(domain.Next))

	if _, err := s.DropOnCategory(context.Background(), nil, domain.Next); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if want := []moveCall{{id: "t1", category: domain.Next}}; !reflect.DeepEqual(b.moves, want) {
		t.Fatalf("expected %v got %v", want, b.moves)
	}
	if s.State() != Idle || s.IsDragOver(Button(domain.Next)) {
		t.Fatalf("expected cleared session")
	}
}

func TestSidebarDropNeedsOnlyTaskID(t *testing.T) {
	b := inboxBoard()
	s, _ := newTestSession(b, NewSidebar(b))
	dt := NewDataTransfer()
	dt.SetData(MIMEJSON, `{"taskId":"t9"}`)

	if _, err := s.DropOnCategory(context.Background(), dt, domain.Someday); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if len(b.moves) != 1 || b.moves[0].category != domain.Someday {
		t.Fatalf("unexpected moves %v", b.moves)
	}
}

func TestSidebarWithoutHandlerIsInert(t *testing.T) {
	b := inboxBoard("t1")
	for name, sb := range map[string]*Sidebar{"no sidebar": nil, "no handler": {Active: domain.Inbox}} {
		t.Run(name, func(t *testing.T) {
			s, hook := newTestSession(b, sb)
			if _, err := s.DragStart("t1", domain.Inbox); err != nil {
				t.Fatalf("drag start: %v", err)
			}
			intent, err := s.DropOnCategory(context.Background(), nil, domain.Next)
			if err != nil || intent.Kind != CrossMove {
				t.Fatalf("unexpected %+v %v", intent, err)
			}
			if b.calls() != 0 || len(hook.AllEntries()) != 0 {
				t.Fatalf("inert drop must not mutate or log")
			}
		})
	}
}

func TestDragEndIsIdempotent(t *testing.T) {
	s, _ := newTestSession(inboxBoard("a", "b"), nil)
	if _, err := s.DragStart("a", domain.Inbox); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	s.DragEnter(Item("b", domain.Inbox))

	s.DragEnd()
	s.DragEnd()
	if s.State() != Idle || s.IsDragging("a") || s.IsDragOver(Item("b", domain.Inbox)) || s.Transfer() != nil {
		t.Fatalf("expected fully reset session")
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	b := inboxBoard("a", "b")
	b.err = errors.New("disk full")
	s, _ := newTestSession(b, nil)
	if _, err := s.DragStart("a", domain.Inbox); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if _, err := s.DropOnItem(context.Background(), nil, domain.Inbox, "b"); !errors.Is(err, b.err) {
		t.Fatalf("expected store error, got %v", err)
	}
	if s.State() != Idle {
		t.Fatalf("expected idle after failed drop")
	}
}

func TestSidebarEntries(t *testing.T) {
	sb := &Sidebar{Active: domain.Inbox}
	var changed domain.Category
	sb.OnCategoryChange = func(c domain.Category) { changed = c }

	sb.Select(domain.Waiting)
	sb.Select("later")
	if sb.Active != domain.Waiting || changed != domain.Waiting {
		t.Fatalf("unexpected active %s changed %s", sb.Active, changed)
	}
	entries := sb.Entries(countsFunc(func() map[domain.Category]int {
		return map[domain.Category]int{domain.Waiting: 2}
	}))
	if len(entries) != 5 || entries[2].Count != 2 || !entries[2].Active || entries[0].Active {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

type countsFunc func() map[domain.Category]int

func (f countsFunc) Counts() map[domain.Category]int { return f() }
