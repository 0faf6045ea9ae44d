package dnd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/alexalex89/task-management/domain"
)

// Kind tags what a drop asks for.
type Kind int

const (
	Malformed Kind = iota
	Reorder
	CrossMove
)

func (k Kind) String() string {
	switch k {
	case Reorder:
		return "reorder"
	case CrossMove:
		return "cross-move"
	default:
		return "malformed"
	}
}

var (
	ErrEmptyPayload  = errors.New("empty drag payload")
	ErrMissingTaskID = errors.New("drag payload has no taskId")
	ErrBadSource     = errors.New("drag payload has no valid sourceCategory")
)

// Intent is the decoded meaning of a drop. Err is set only for Malformed.
type Intent struct {
	Kind           Kind
	TaskID         string
	SourceCategory domain.Category
	// Target is the category the task should end up in for CrossMove.
	Target domain.Category
	Err    error
}

// DecodeListDrop interprets a drop onto an item of the list showing category.
// Same source category means reorder, anything else a move into category.
func DecodeListDrop(raw string, category domain.Category) Intent {
	p, err := decodePayload(raw)
	if err != nil {
		return Intent{Kind: Malformed, Err: err}
	}
	if !p.SourceCategory.Valid() {
		return Intent{Kind: Malformed, TaskID: p.TaskID, Err: fmt.Errorf("%w: %q", ErrBadSource, p.SourceCategory)}
	}
	if p.SourceCategory == category {
		return Intent{Kind: Reorder, TaskID: p.TaskID, SourceCategory: p.SourceCategory}
	}
	return Intent{Kind: CrossMove, TaskID: p.TaskID, SourceCategory: p.SourceCategory, Target: category}
}

// DecodeSidebarDrop interprets a drop onto a category button. Only taskId is
// required.
func DecodeSidebarDrop(raw string, category domain.Category) Intent {
	p, err := decodePayload(raw)
	if err != nil {
		return Intent{Kind: Malformed, Err: err}
	}
	return Intent{Kind: CrossMove, TaskID: p.TaskID, SourceCategory: p.SourceCategory, Target: category}
}

func decodePayload(raw string) (Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return Payload{}, ErrEmptyPayload
	}
	var p Payload
	if err := sonic.ConfigStd.UnmarshalFromString(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("decode drag payload: %w", err)
	}
	if p.TaskID == "" {
		return Payload{}, ErrMissingTaskID
	}
	return p, nil
}
