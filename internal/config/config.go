// Package config loads logstream settings. Defaults come first, then
// LOGSTREAM_* environment variables, then an optional YAML file, then
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Output modes.
const (
	OutputTUI    = "tui"
	OutputNDJSON = "ndjson"
	OutputText   = "text"
)

// Config holds all logstream configuration.
type Config struct {
	WSURL        string `yaml:"ws_url"`
	APIURL       string `yaml:"api_url"`
	AuthURL      string `yaml:"auth_url"`
	Service      string `yaml:"service"` // id or name; empty shows the picker
	SessionToken string `yaml:"session_token"`
	CookieFile   string `yaml:"cookie_file"`
	Live         bool   `yaml:"live"`

	Output    string `yaml:"output"`    // tui, ndjson, text
	Verbosity string `yaml:"verbosity"` // minimal, standard (headless output)
	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`

	MetricsAddr string        `yaml:"metrics_addr"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Reconnect   Reconnect     `yaml:"reconnect"`

	ShowVersion bool `yaml:"-"`
}

// Reconnect configures automatic reconnection. Disabled by default.
type Reconnect struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		WSURL:        getenv("LOGSTREAM_WS_URL", "ws://localhost:8080"),
		APIURL:       getenv("LOGSTREAM_API_URL", "http://localhost:8080"),
		AuthURL:      getenv("LOGSTREAM_AUTH_URL", "http://localhost:3000"),
		Service:      os.Getenv("LOGSTREAM_SERVICE"),
		SessionToken: os.Getenv("LOGSTREAM_SESSION_TOKEN"),
		CookieFile:   os.Getenv("LOGSTREAM_COOKIE_FILE"),
		Live:         getenvBool("LOGSTREAM_LIVE", true),
		Output:       getenv("LOGSTREAM_OUTPUT", OutputTUI),
		Verbosity:    getenv("LOGSTREAM_VERBOSITY", "standard"),
		LogLevel:     getenv("LOGSTREAM_LOG_LEVEL", "info"),
		LogFile:      os.Getenv("LOGSTREAM_LOG_FILE"),
		MetricsAddr:  os.Getenv("LOGSTREAM_METRICS_ADDR"),
		DialTimeout:  getenvDuration("LOGSTREAM_DIAL_TIMEOUT", 0),
		Reconnect: Reconnect{
			Enabled:     getenvBool("LOGSTREAM_RECONNECT", false),
			MaxAttempts: getenvInt("LOGSTREAM_RECONNECT_MAX_ATTEMPTS", 5),
			BaseDelay:   getenvDuration("LOGSTREAM_RECONNECT_BASE_DELAY", time.Second),
			MaxDelay:    getenvDuration("LOGSTREAM_RECONNECT_MAX_DELAY", 30*time.Second),
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// AddFlags registers command-line flags bound to cfg. Current values of cfg
// become the flag defaults, so flags override env and file settings only
// when given.
func AddFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.WSURL, "ws-url", cfg.WSURL, "log stream base URL (ws:// or wss://)")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "backend API base URL, for the service directory")
	fs.StringVar(&cfg.AuthURL, "auth-url", cfg.AuthURL, "auth service base URL, for bearer tokens")
	fs.StringVarP(&cfg.Service, "service", "s", cfg.Service, "service id or name to stream")
	fs.StringVar(&cfg.SessionToken, "session-token", cfg.SessionToken, "session credential")
	fs.StringVar(&cfg.CookieFile, "cookie-file", cfg.CookieFile, "Netscape cookie file holding the session credential")
	fs.BoolVar(&cfg.Live, "live", cfg.Live, "start in live mode")
	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "presentation: tui, ndjson, or text")
	fs.StringVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "headless output detail: minimal or standard")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "diagnostic log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write diagnostic logs to this file")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "bound on connection setup (0 = none)")
	fs.BoolVar(&cfg.Reconnect.Enabled, "reconnect", cfg.Reconnect.Enabled, "reconnect with backoff after the stream drops")
	fs.IntVar(&cfg.Reconnect.MaxAttempts, "reconnect-max-attempts", cfg.Reconnect.MaxAttempts, "reconnect attempts before giving up (0 = unlimited)")
	fs.DurationVar(&cfg.Reconnect.BaseDelay, "reconnect-base-delay", cfg.Reconnect.BaseDelay, "first reconnect delay")
	fs.DurationVar(&cfg.Reconnect.MaxDelay, "reconnect-max-delay", cfg.Reconnect.MaxDelay, "reconnect delay cap")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
}

// Parse builds the configuration from the environment, the file named by
// --config or LOGSTREAM_CONFIG, and args.
func Parse(args []string) (Config, error) {
	cfg := Load()

	path := configPath(args)
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	fs := pflag.NewFlagSet("logstream", pflag.ContinueOnError)
	fs.String("config", path, "YAML config file")
	AddFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return cfg, nil
}

// configPath finds --config before the other flags are bound, so the file
// can supply their defaults.
func configPath(args []string) string {
	path := os.Getenv("LOGSTREAM_CONFIG")
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return path
		case a == "--config" && i+1 < len(args):
			path = args[i+1]
			i++
		case strings.HasPrefix(a, "--config="):
			path = strings.TrimPrefix(a, "--config=")
		}
	}
	return path
}

// Validate checks the configuration for errors. Returns all problems
// found, joined.
func (c Config) Validate() error {
	var errs []error

	for _, u := range []struct{ name, value string }{
		{"ws_url", c.WSURL},
		{"api_url", c.APIURL},
		{"auth_url", c.AuthURL},
	} {
		if err := checkURL(u.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.name, err))
		}
	}

	switch c.Output {
	case OutputTUI, OutputNDJSON, OutputText:
	default:
		errs = append(errs, fmt.Errorf("output must be tui, ndjson, or text, got %q", c.Output))
	}
	switch c.Verbosity {
	case "minimal", "standard":
	default:
		errs = append(errs, fmt.Errorf("verbosity must be minimal or standard, got %q", c.Verbosity))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel))
	}
	if c.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("dial_timeout must be >= 0, got %v", c.DialTimeout))
	}
	if r := c.Reconnect; r.Enabled {
		if r.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("reconnect.max_attempts must be >= 0, got %d", r.MaxAttempts))
		}
		if r.BaseDelay <= 0 {
			errs = append(errs, fmt.Errorf("reconnect.base_delay must be > 0, got %v", r.BaseDelay))
		}
		if r.MaxDelay < r.BaseDelay {
			errs = append(errs, fmt.Errorf("reconnect.max_delay (%v) must be >= base_delay (%v)", r.MaxDelay, r.BaseDelay))
		}
	}

	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
