package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexalex89/task-management/board"
	"github.com/alexalex89/task-management/storage"
)

var testIDs = []string{
	"1a000000-0000-4000-8000-000000000001",
	"1b000000-0000-4000-8000-000000000002",
	"2c000000-0000-4000-8000-000000000003",
	"3d000000-0000-4000-8000-000000000004",
	"4e000000-0000-4000-8000-000000000005",
}

// useBoard installs an empty in-memory board and the default settings for
// the duration of the test.
func useBoard(t *testing.T) *board.Store {
	t.Helper()
	origBoard, origSettings := Board, settings
	t.Cleanup(func() {
		Board = origBoard
		settings = origSettings
	})

	l, _ := test.NewNullLogger()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var n int
	b, err := board.Open(context.Background(), storage.NewMemory(),
		board.WithLogger(l),
		board.WithClock(func() time.Time {
			now = now.Add(time.Minute)
			return now
		}),
		board.WithIDGenerator(func() string {
			id := testIDs[n%len(testIDs)]
			n++
			return id
		}),
	)
	if err != nil {
		t.Fatalf("open board: %v", err)
	}
	Board = b
	settings = defaultSettings()
	return b
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// run calls the command's RunE the way cobra would after flag parsing and
// returns everything it wrote.
func run(t *testing.T, cmd *cobra.Command, args []string, flags map[string]string) (string, error) {
	t.Helper()
	resetFlags(cmd.Flags())
	t.Cleanup(func() { resetFlags(cmd.Flags()) })
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set --%s: %v", name, err)
		}
	}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func mustRun(t *testing.T, cmd *cobra.Command, args []string, flags map[string]string) string {
	t.Helper()
	out, err := run(t, cmd, args, flags)
	if err != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, err)
	}
	return out
}
