package inkwell

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwellhq/inkwell/internal/store"
)

// Config configures the inkwell client.
type Config struct {
	// LocalPath is the path to the local SQLite database.
	LocalPath string

	// ServerURL is the base URL of the remote authority.
	// If empty, the client operates in offline-only mode.
	ServerURL string

	// APIKey authenticates with the remote.
	APIKey string

	// SourceID identifies this client instance to the remote.
	// Defaults to hostname plus a random suffix.
	SourceID string

	// ProbeInterval is how often connectivity is checked.
	// Defaults to 15 seconds.
	ProbeInterval time.Duration

	// AutoSync subscribes the engine to connectivity transitions so an
	// offline-to-online edge triggers a sync. Defaults to true.
	AutoSync bool

	// Modes selects the execution context per store mutation path.
	// nil selects DefaultExecModes.
	Modes *ExecModes

	// Debug enables verbose logging of all remote API communications.
	Debug bool

	// DebugLogPath is the rotated file debug logs are written to.
	// Defaults to stderr if empty.
	DebugLogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LocalPath:     store.DefaultDBPath(),
		ProbeInterval: 15 * time.Second,
		AutoSync:      true,
		SourceID:      defaultSourceID(),
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	INKWELL_DB_PATH        → LocalPath
//	INKWELL_SERVER_URL     → ServerURL
//	INKWELL_API_KEY        → APIKey
//	INKWELL_SOURCE_ID      → SourceID
//	INKWELL_PROBE_INTERVAL → ProbeInterval (Go duration, e.g. "30s")
//	INKWELL_AUTO_SYNC      → AutoSync ("false" or "0" disables)
//	INKWELL_DEBUG          → Debug (any non-empty value enables)
//	INKWELL_DEBUG_LOG      → DebugLogPath
func ConfigFromEnv() Config {
	cfg := Config{
		LocalPath:    os.Getenv("INKWELL_DB_PATH"),
		ServerURL:    os.Getenv("INKWELL_SERVER_URL"),
		APIKey:       os.Getenv("INKWELL_API_KEY"),
		SourceID:     os.Getenv("INKWELL_SOURCE_ID"),
		AutoSync:     true,
		Debug:        os.Getenv("INKWELL_DEBUG") != "",
		DebugLogPath: os.Getenv("INKWELL_DEBUG_LOG"),
	}

	if v := os.Getenv("INKWELL_PROBE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProbeInterval = d
		}
	}
	if v := os.Getenv("INKWELL_AUTO_SYNC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoSync = b
		}
	}

	return cfg
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to SQLite database"}
	}

	if c.ServerURL != "" && c.APIKey == "" {
		return &ValidationError{Field: "APIKey", Message: "required when ServerURL is set"}
	}

	if c.ProbeInterval < 0 {
		return &ValidationError{Field: "ProbeInterval", Message: "must be non-negative"}
	}

	return nil
}

// IsOffline returns true if the client operates in offline-only mode.
// Offline mode is determined by ServerURL being empty.
func (c *Config) IsOffline() bool {
	return c.ServerURL == ""
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.LocalPath == "" {
		c.LocalPath = defaults.LocalPath
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = defaults.ProbeInterval
	}
	if c.SourceID == "" {
		c.SourceID = defaults.SourceID
	}

	return c
}

// defaultSourceID derives a stable-enough instance identity: hostname
// plus a short random suffix so two clients on one machine stay
// distinguishable. The store persists the first generated value.
func defaultSourceID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "inkwell"
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s", hostname, suffix)
}
