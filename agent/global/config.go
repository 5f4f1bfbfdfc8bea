//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package global

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Operating modes, selected by which credentials are present.
const (
	ModeRelay  = "relay"
	ModeStore  = "store"
	ModeHybrid = "hybrid"
)

// Config is the agent's identity and tuning, loaded once at startup and
// immutable afterwards. The short-lived store credential is only the
// *initial* value here; the live copy is owned by the token manager.
type Config struct {
	RelayURL     string
	Token        string
	PrinterID    string
	UserID       string
	StoreToken   string
	StoreURL     string
	MoonrakerURL string
	PrinterIP    string

	HeartbeatInterval   int64 // seconds
	TelemetryInterval   int64
	CommandPollInterval int64
	RefreshMargin       int64

	HealthPort int
	DataDir    string
	LogFile    string
	Debug      bool
	AllowHTTP  bool
}

// Load reads configuration from the environment. An env file named by
// REACH_LINK_ENV_FILE (or a .env in the working directory) is merged in
// first without overriding real environment variables.
func Load() (*Config, error) {
	if path := os.Getenv("REACH_LINK_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("unable to load env file %s: %w", path, err)
		}
	} else {
		// Best effort, a missing .env is normal.
		_ = godotenv.Load()
	}

	c := &Config{
		RelayURL:     strings.TrimRight(os.Getenv("REACH_LINK_RELAY"), "/"),
		Token:        os.Getenv("REACH_LINK_TOKEN"),
		PrinterID:    envWithFallback("REACH_LINK_PRINTER_ID", "REACH_PRINTER_ID"),
		UserID:       os.Getenv("REACH_LINK_USER_ID"),
		StoreToken:   envWithFallback("REACH_LINK_STORE_TOKEN", "REACH_LINK_FIREBASE_TOKEN"),
		StoreURL:     strings.TrimRight(envDefault("REACH_LINK_STORE_URL", DefaultStoreURL), "/"),
		MoonrakerURL: strings.TrimRight(envDefault("REACH_LINK_MOONRAKER_URL", DefaultMoonrakerURL), "/"),
		PrinterIP:    os.Getenv("REACH_LINK_PRINTER_IP"),
		DataDir:      os.Getenv("REACH_LINK_DATA_DIR"),
		LogFile:      os.Getenv("REACH_LINK_LOG_FILE"),
		Debug:        envBool("REACH_LINK_DEBUG"),
		AllowHTTP:    envBool("REACH_LINK_ALLOW_HTTP"),
	}

	var err error
	if c.HeartbeatInterval, err = envInt64("REACH_LINK_HEARTBEAT_INTERVAL", DefaultHeartbeatInterval); err != nil {
		return nil, err
	}
	if c.TelemetryInterval, err = envInt64("REACH_LINK_TELEMETRY_INTERVAL", DefaultTelemetryInterval); err != nil {
		return nil, err
	}
	if c.CommandPollInterval, err = envInt64("REACH_LINK_COMMAND_POLL_INTERVAL", DefaultCommandPollInterval); err != nil {
		return nil, err
	}
	if c.RefreshMargin, err = envInt64("REACH_LINK_REFRESH_MARGIN", DefaultRefreshMargin); err != nil {
		return nil, err
	}
	port, err := envInt64("REACH_LINK_HEALTH_PORT", DefaultHealthPort)
	if err != nil || port < 0 || port > 65535 {
		return nil, fmt.Errorf("REACH_LINK_HEALTH_PORT must be a valid port number")
	}
	c.HealthPort = int(port)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.PrinterID == "" {
		return fmt.Errorf("REACH_LINK_PRINTER_ID is not set (fallback REACH_PRINTER_ID also missing)")
	}
	if c.RelayURL == "" && c.StoreToken == "" {
		return fmt.Errorf("at least one of REACH_LINK_RELAY and REACH_LINK_STORE_TOKEN is required")
	}
	if c.RelayURL != "" {
		if c.Token == "" || strings.TrimSpace(c.Token) == "" {
			return fmt.Errorf("REACH_LINK_TOKEN must not be empty")
		}
		u, err := url.Parse(c.RelayURL)
		if err != nil {
			return fmt.Errorf("REACH_LINK_RELAY is not a valid URL: %w", err)
		}
		switch {
		case u.Scheme == "https":
		case u.Scheme == "http" && c.AllowHTTP:
		default:
			return fmt.Errorf("REACH_LINK_RELAY must use HTTPS, got: %s", c.RelayURL)
		}
	}
	if c.HeartbeatInterval <= 0 || c.TelemetryInterval <= 0 || c.CommandPollInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	return nil
}

// Mode reports which command channels are configured.
func (c *Config) Mode() string {
	switch {
	case c.RelayURL != "" && c.StoreEnabled():
		return ModeHybrid
	case c.StoreEnabled():
		return ModeStore
	default:
		return ModeRelay
	}
}

// StoreEnabled reports whether the queue-store channel is configured.
func (c *Config) StoreEnabled() bool {
	return c.StoreToken != ""
}

// RelayEnabled reports whether the relay channel is configured.
func (c *Config) RelayEnabled() bool {
	return c.RelayURL != ""
}

// JournalPath is the command journal location under the data directory.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, JournalFile)
}

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

func envInt64(name string, fallback int64) (int64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func envBool(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
