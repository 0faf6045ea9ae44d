package domain

import (
	"fmt"
	"strings"
)

// Category is one of the five fixed GTD buckets a task is filed under.
type Category string

const (
	Inbox     Category = "inbox"
	Next      Category = "next"
	Waiting   Category = "waiting"
	Scheduled Category = "scheduled"
	Someday   Category = "someday"
)

// Categories lists every category in sidebar order.
var Categories = []Category{Inbox, Next, Waiting, Scheduled, Someday}

var categoryLabels = map[Category]string{
	Inbox:     "Inbox",
	Next:      "Next",
	Waiting:   "Waiting",
	Scheduled: "Scheduled",
	Someday:   "Someday",
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name shown in the sidebar.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// ParseCategory accepts a category name in any case. An empty string yields
// Inbox, the default landing bucket for new tasks.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Inbox, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}
