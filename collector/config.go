package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"runmeter.sh/internal/config"
)

const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 7777
	defaultFrequency  = 5 * time.Second
	defaultMaxSamples = 17280 // 24h of samples at the default frequency
)

// Config holds the collector daemon configuration. Values come from
// RUNMETER_* environment variables so the CLI can hand them to the
// detached daemon process unchanged.
type Config struct {
	// Host is the loopback address the query interface binds to.
	Host string

	// Port is the query interface port. Zero selects a free port; the
	// chosen port is recorded in the state file.
	Port int

	// Frequency is the sampling interval.
	Frequency time.Duration

	// MaxSamples caps each per-domain buffer; older samples are dropped
	// once the cap is reached. Zero or negative disables the cap.
	MaxSamples int

	// StateDir is where the daemon state file and measured-command
	// records live.
	StateDir string
}

// LoadConfig reads the daemon configuration from the environment,
// applying defaults for anything unset.
func LoadConfig() *Config {
	return &Config{
		Host:       config.GetString("RUNMETER_HOST", defaultHost),
		Port:       config.GetInt("RUNMETER_PORT", defaultPort),
		Frequency:  config.GetDuration("RUNMETER_FREQUENCY", defaultFrequency),
		MaxSamples: config.GetInt("RUNMETER_MAX_SAMPLES", defaultMaxSamples),
		StateDir:   config.GetString("RUNMETER_STATE_DIR", DefaultStateDir()),
	}
}

// Addr returns the host:port the query interface listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the query interface base URL.
func (c *Config) BaseURL() string {
	return "http://" + c.Addr()
}

// DefaultStateDir returns the directory used for daemon state: the
// workflow runner's temp dir when available, the system temp dir
// otherwise.
func DefaultStateDir() string {
	if dir := os.Getenv("RUNNER_TEMP"); dir != "" {
		return filepath.Join(dir, "runmeter")
	}
	return filepath.Join(os.TempDir(), "runmeter")
}
