package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FUNDSCOPE"

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreNone     = "none"
)

// StoreConfig selects and locates the event store.
type StoreConfig struct {
	Kind       string
	PGDSN      string
	SQLitePath string
}

// Validate rejects unknown backends. A backend without a location is valid:
// the server then runs and reports the store as not configured.
func (c StoreConfig) Validate() error {
	switch c.Kind {
	case StorePostgres, StoreSQLite, StoreNone:
		return nil
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Kind, StorePostgres, StoreSQLite, StoreNone)
	}
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// newViper merges config file, environment variables and flags. defaults
// are applied first so every layer can override them.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StorePostgres)
	v.SetDefault("sqlite-path", "./data/funding.db")
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func storeConfig(v *viper.Viper) (StoreConfig, error) {
	cfg := StoreConfig{
		Kind:       strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		PGDSN:      v.GetString("pg-dsn"),
		SQLitePath: v.GetString("sqlite-path"),
	}
	return cfg, cfg.Validate()
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// RedactDSN hides credentials in logs.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

var defaultEnrichCommand = []string{"python", "-m", "pipeline.enrich_company"}

// ServeConfig holds configuration for the HTTP server.
type ServeConfig struct {
	Addr                string
	Store               StoreConfig
	FetchLimit          int
	EnrichRunnerEnabled bool
	EnrichCommand       []string
	EnrichDir           string
	EnrichWindow        time.Duration
	ShutdownTimeout     time.Duration
	LogLevel            string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"addr":                  ":8080",
		"fetch-limit":           2000,
		"enrich-runner-enabled": false,
		"enrich-command":        defaultEnrichCommand,
		"enrich-window":         60 * time.Second,
		"shutdown-timeout":      10 * time.Second,
	})
	if err != nil {
		return ServeConfig{}, err
	}
	store, err := storeConfig(v)
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Addr:                v.GetString("addr"),
		Store:               store,
		FetchLimit:          v.GetInt("fetch-limit"),
		EnrichRunnerEnabled: v.GetBool("enrich-runner-enabled"),
		EnrichCommand:       getStringSlice(v, "enrich-command"),
		EnrichDir:           v.GetString("enrich-dir"),
		EnrichWindow:        v.GetDuration("enrich-window"),
		ShutdownTimeout:     v.GetDuration("shutdown-timeout"),
		LogLevel:            v.GetString("log-level"),
	}
	if cfg.FetchLimit <= 0 {
		return ServeConfig{}, fmt.Errorf("fetch-limit must be greater than zero")
	}
	if cfg.EnrichWindow <= 0 {
		return ServeConfig{}, fmt.Errorf("enrich-window must be positive")
	}
	if cfg.EnrichRunnerEnabled && len(cfg.EnrichCommand) == 0 {
		return ServeConfig{}, fmt.Errorf("enrich-command is required when the runner is enabled")
	}
	return cfg, nil
}

// ImportConfig holds configuration for the JSONL import.
type ImportConfig struct {
	Input             string
	Rejects           string
	Store             StoreConfig
	BatchSize         int
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadImport merges config file, environment variables, and flags into ImportConfig.
func LoadImport(cfgFile string, flags *pflag.FlagSet) (ImportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"rejects":            "./data/rejects.jsonl",
		"batch-size":         500,
		"checkpoint":         "./data/import_checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return ImportConfig{}, err
	}
	store, err := storeConfig(v)
	if err != nil {
		return ImportConfig{}, err
	}

	cfg := ImportConfig{
		Input:             v.GetString("in"),
		Rejects:           v.GetString("rejects"),
		Store:             store,
		BatchSize:         v.GetInt("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}
	if cfg.Input == "" {
		return ImportConfig{}, fmt.Errorf("input path is required")
	}
	return cfg, nil
}

// ReadConfig holds configuration for the read-only commands.
type ReadConfig struct {
	Store      StoreConfig
	FetchLimit int
	LogLevel   string
}

// LoadRead merges config file, environment variables, and flags into ReadConfig.
func LoadRead(cfgFile string, flags *pflag.FlagSet) (ReadConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"fetch-limit": 2000,
		"log-level":   "warn",
	})
	if err != nil {
		return ReadConfig{}, err
	}
	store, err := storeConfig(v)
	if err != nil {
		return ReadConfig{}, err
	}
	return ReadConfig{
		Store:      store,
		FetchLimit: v.GetInt("fetch-limit"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}
