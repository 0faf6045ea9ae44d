package domain

import "errors"

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyTitle      = errors.New("title is required")
)
