package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexalex89/task-management/board"
)

// Settings is the CLI configuration after flags, GTD_* environment variables
// and gtd.yaml have been merged, in that order of precedence.
type Settings struct {
	Store     string
	Path      string
	RedisURL  string
	TableConn string
	TableName string
	Key       string
	Format    string
	Debug     bool
}

func defaultSettings() Settings {
	return Settings{
		Store:     "file",
		Path:      defaultDataDir(),
		TableName: "gtdtasks",
		Key:       board.StorageKey,
		Format:    "table",
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "gtd")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "gtd")
	}
	return ".gtd"
}

var flagKeys = map[string]string{
	"store":     "store",
	"path":      "path",
	"redis-url": "redis_url",
	"format":    "format",
	"debug":     "debug",
}

func newViper(configFile string) *viper.Viper {
	def := defaultSettings()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("gtd")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "gtd"))
		}
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("GTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", def.Store)
	v.SetDefault("path", def.Path)
	v.SetDefault("redis_url", "")
	v.SetDefault("table.connection_string", "")
	v.SetDefault("table.name", def.TableName)
	v.SetDefault("key", def.Key)
	v.SetDefault("format", def.Format)
	v.SetDefault("debug", false)
	return v
}

// loadSettings resolves the settings for cmd. A missing gtd.yaml is not an
// error; a missing file named with --config is.
func loadSettings(cmd *cobra.Command) (Settings, error) {
	configFile, _ := cmd.Flags().GetString("config")
	v := newViper(configFile)

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Settings{}, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return Settings{}, fmt.Errorf("reading config: %w", err)
		}
	}

	s := Settings{
		Store:     strings.ToLower(v.GetString("store")),
		Path:      v.GetString("path"),
		RedisURL:  v.GetString("redis_url"),
		TableConn: v.GetString("table.connection_string"),
		TableName: v.GetString("table.name"),
		Key:       v.GetString("key"),
		Format:    strings.ToLower(v.GetString("format")),
		Debug:     v.GetBool("debug"),
	}
	if s.Path == "" {
		s.Path = defaultDataDir()
	}
	if s.Key == "" {
		s.Key = board.StorageKey
	}
	switch s.Format {
	case formatTable, formatJSON, formatYAML:
	default:
		return Settings{}, fmt.Errorf("unknown output format %q", s.Format)
	}
	return s, nil
}
