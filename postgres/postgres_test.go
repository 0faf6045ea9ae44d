package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/alexalex89/task-management/domain"
)

type fakePinger struct {
	failures int
	calls    int
}

func (f *fakePinger) Now(context.Context) (time.Time, error) {
	f.calls++
	if f.calls <= f.failures {
		return time.Time{}, errors.New("connection refused")
	}
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func TestWaitForDatabaseRetriesUntilReady(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := &fakePinger{failures: 2}

	if err := WaitForDatabase(context.Background(), p, 5, time.Millisecond, logger); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Message == "database not ready" {
			warnings++
		}
	}
	if warnings != 2 {
		t.Fatalf("expected 2 retry warnings, got %d", warnings)
	}
}

func TestWaitForDatabaseGivesUp(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := &fakePinger{failures: 100}

	err := WaitForDatabase(context.Background(), p, 3, time.Millisecond, logger)
	if !errors.Is(err, ErrDatabaseTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
}

func TestWaitForDatabaseStopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForDatabase(ctx, &fakePinger{failures: 100}, 10, time.Hour, logger)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want error
	}{
		"no rows":        {err: pgx.ErrNoRows, want: ErrNotFound},
		"check":          {err: &pgconn.PgError{Code: pgerrcode.CheckViolation, Message: "violates check"}, want: ErrInvalid},
		"not null":       {err: &pgconn.PgError{Code: pgerrcode.NotNullViolation}, want: ErrInvalid},
		"wrapped":        {err: errors.Join(errors.New("ctx"), pgx.ErrNoRows), want: ErrNotFound},
		"other pg error": {err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := mapError("op", tc.err)
			if tc.want != nil {
				if !errors.Is(got, tc.want) {
					t.Fatalf("mapError = %v, want %v", got, tc.want)
				}
				return
			}
			if errors.Is(got, ErrNotFound) || errors.Is(got, ErrInvalid) {
				t.Fatalf("unexpected classification: %v", got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("original error lost: %v", got)
			}
		})
	}
}

func TestInputArgsUseNullForEmptyFields(t *testing.T) {
	desc, prio, due := inputArgs(domain.TaskInput{Title: "x", Category: domain.Inbox})
	if desc != nil || prio != nil || due != nil {
		t.Fatalf("expected NULLs, got %v %v %v", desc, prio, due)
	}

	d := domain.NewDate(2024, 6, 1)
	desc, prio, due = inputArgs(domain.TaskInput{Title: "x", Description: "y", Priority: domain.PriorityHigh, DueDate: &d})
	if desc == nil || *desc != "y" || prio == nil || *prio != "high" {
		t.Fatalf("unexpected args: %v %v", desc, prio)
	}
	if due == nil || !due.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due: %v", due)
	}
}
