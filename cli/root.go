package cli

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexalex89/task-management/board"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Board is the task store every command works on. It is opened from the
// configured store before a command runs unless it is already set.
var Board *board.Store

var (
	settings = defaultSettings()
	logger   = newLogger()
)

// closers release clients opened for the board, such as the redis pool.
var closers []func() error

func newLogger() *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(log.WarnLevel)
	return l
}

var rootCmd = &cobra.Command{
	Use:   "gtd",
	Short: "Getting Things Done task board",
	Long: `gtd files tasks into five fixed lists (inbox, next, waiting, scheduled,
someday), edits, completes and reorders them, and keeps the whole board in a
single serialized collection.

The collection is stored in a JSON file by default. Use --store to keep it in
Redis or an Azure table instead. Settings are read from flags, GTD_* environment
variables and gtd.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		settings = s
		if s.Debug {
			logger.SetLevel(log.DebugLevel)
		}
		if Board != nil {
			return nil
		}
		return openBoard(commandContext(cmd), s)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeAll()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gtd %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func addRootFlags(f *pflag.FlagSet) {
	f.String("config", "", "Config file (default gtd.yaml in $XDG_CONFIG_HOME/gtd or the current directory)")
	f.String("store", "file", "Where the board is kept: file, redis, table or memory")
	f.String("path", "", "Directory of the file store (default $XDG_DATA_HOME/gtd)")
	f.String("redis-url", "", "Redis URL or host:port,password=...,ssl=True connection string")
	f.String("format", "table", "Output format: table, json or yaml")
	f.Bool("debug", false, "Log debug output to stderr")
}

func init() {
	addRootFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func openBoard(ctx context.Context, s Settings) error {
	p, err := openPersister(ctx, s)
	if err != nil {
		return err
	}
	b, err := board.Open(ctx, p, board.WithLogger(logger), board.WithKey(s.Key))
	if err != nil {
		_ = closeAll()
		return fmt.Errorf("opening board: %w", err)
	}
	Board = b
	return nil
}

func closeAll() error {
	var first error
	for _, c := range closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	closers = nil
	return first
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requireBoard() error {
	if Board == nil {
		return fmt.Errorf("task board not initialized")
	}
	return nil
}
