package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/alexanderramin/roofline/internal/domain"
)

// Config is the full runtime configuration. Precedence, lowest first:
// defaults, the TOML file, ROOFLINE_* environment variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Ledger   LedgerConfig   `toml:"ledger"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Addr              string `toml:"addr"`
	ReadTimeoutMs     int    `toml:"read_timeout_ms"`
	WriteTimeoutMs    int    `toml:"write_timeout_ms"`
	IdleTimeoutMs     int    `toml:"idle_timeout_ms"`
	ShutdownTimeoutMs int    `toml:"shutdown_timeout_ms"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug|info|warn|error
	Format string `toml:"format"` // text|json
}

type LedgerConfig struct {
	// Timezone is the IANA zone calendar-day filters are interpreted in.
	Timezone string `toml:"timezone"`
	// ClampNegativeHours records zero hours when a break outlasts the
	// session instead of rejecting the clock-out.
	ClampNegativeHours bool `toml:"clamp_negative_hours"`
}

// Default returns the built-in configuration. The database lives at
// ~/.roofline/roofline.db, or in the working directory when there is no home.
func Default() *Config {
	dbPath := "roofline.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".roofline", "roofline.db")
	}
	return &Config{
		Database: DatabaseConfig{Path: dbPath},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeoutMs:     10000,
			WriteTimeoutMs:    10000,
			IdleTimeoutMs:     60000,
			ShutdownTimeoutMs: 10000,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Ledger: LedgerConfig{Timezone: "UTC", ClampNegativeHours: true},
	}
}

// Load builds the configuration from defaults, the TOML file at path (or
// $ROOFLINE_CONFIG when path is empty) and the environment, then validates it.
// A named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	path = domain.CoalesceStr(path, os.Getenv("ROOFLINE_CONFIG"))
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ROOFLINE_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ROOFLINE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ROOFLINE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ROOFLINE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("ROOFLINE_TIMEZONE"); v != "" {
		cfg.Ledger.Timezone = v
	}
	if v := os.Getenv("ROOFLINE_CLAMP_NEGATIVE_HOURS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Ledger.ClampNegativeHours = b
		}
	}
	applyPositiveIntEnv(&cfg.Server.ReadTimeoutMs, "ROOFLINE_READ_TIMEOUT_MS")
	applyPositiveIntEnv(&cfg.Server.WriteTimeoutMs, "ROOFLINE_WRITE_TIMEOUT_MS")
}

func applyPositiveIntEnv(dst *int, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	*dst = n
}

var (
	validLevels  = map[string]slog.Level{"debug": slog.LevelDebug, "info": slog.LevelInfo, "warn": slog.LevelWarn, "error": slog.LevelError}
	validFormats = map[string]bool{"text": true, "json": true}
)

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if _, ok := validLevels[c.Log.Level]; !ok {
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("ledger.timezone %q: %w", c.Ledger.Timezone, err)
	}
	for name, ms := range map[string]int{
		"server.read_timeout_ms":     c.Server.ReadTimeoutMs,
		"server.write_timeout_ms":    c.Server.WriteTimeoutMs,
		"server.idle_timeout_ms":     c.Server.IdleTimeoutMs,
		"server.shutdown_timeout_ms": c.Server.ShutdownTimeoutMs,
	} {
		if ms <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Location returns the ledger time zone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) HoursPolicy() domain.HoursPolicy {
	return domain.HoursPolicy{ClampNegative: c.Ledger.ClampNegativeHours}
}

// NewLogger builds the process logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: validLevels[c.Log.Level]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (s ServerConfig) ReadTimeout() time.Duration     { return ms(s.ReadTimeoutMs) }
func (s ServerConfig) WriteTimeout() time.Duration    { return ms(s.WriteTimeoutMs) }
func (s ServerConfig) IdleTimeout() time.Duration     { return ms(s.IdleTimeoutMs) }
func (s ServerConfig) ShutdownTimeout() time.Duration { return ms(s.ShutdownTimeoutMs) }
