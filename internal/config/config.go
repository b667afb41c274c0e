package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL         = "http://localhost:3001"
	DefaultRequestTimeout = 15 * time.Second
	DefaultHighlightDelay = time.Second
	DefaultDevAddr        = ":3001"
	DefaultDevDBPath      = "kanban-dev.db"

	assistPath = "/api/kanban/generate"
)

// Config is the client configuration (~/.config/kanban/config.yaml).
type Config struct {
	APIURL         string        `yaml:"api_url,omitempty"`
	AssistURL      string        `yaml:"assist_url,omitempty"`
	Board          string        `yaml:"board,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	HighlightDelay time.Duration `yaml:"highlight_delay,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
	LogFormat      string        `yaml:"log_format,omitempty"`
	DevServer      DevServer     `yaml:"devserver,omitempty"`
}

type DevServer struct {
	Addr   string `yaml:"addr,omitempty"`
	DBPath string `yaml:"db_path,omitempty"`
}

// Dir returns the config directory. KANBAN_CONFIG_DIR overrides it (tests use this to
// stay out of the real home directory).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("KANBAN_CONFIG_DIR")); v != "" {
		return v, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "kanban"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path (or the default path when empty), applies environment overrides and
// fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, path, err := read(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Raw reads path as written, without environment overrides or defaults.
func Raw(path string) (*Config, error) {
	cfg, _, err := read(path)
	return cfg, err
}

func read(path string) (*Config, string, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg := &Config{}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, path, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, path, err
	}
	return cfg, path, nil
}

// Save writes cfg to path (or the default path) through a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Keys lists the settings Set accepts.
var Keys = []string{"api_url", "assist_url", "board", "request_timeout", "highlight_delay", "log_level", "log_format", "devserver.addr", "devserver.db_path"}

// Set assigns one setting by its YAML key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api_url":
		c.APIURL = value
	case "assist_url":
		c.AssistURL = value
	case "board":
		c.Board = value
	case "request_timeout", "highlight_delay":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "request_timeout" {
			c.RequestTimeout = d
		} else {
			c.HighlightDelay = d
		}
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "devserver.addr":
		c.DevServer.Addr = value
	case "devserver.db_path":
		c.DevServer.DBPath = value
	default:
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) applyEnv() {
	c.APIURL = envOr("KANBAN_API_URL", c.APIURL)
	c.AssistURL = envOr("KANBAN_ASSIST_URL", c.AssistURL)
	c.Board = envOr("KANBAN_BOARD", c.Board)
	c.LogLevel = envOr("KANBAN_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("KANBAN_LOG_FORMAT", c.LogFormat)
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.AssistURL == "" {
		c.AssistURL = c.APIURL + assistPath
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.HighlightDelay <= 0 {
		c.HighlightDelay = DefaultHighlightDelay
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = DefaultDevAddr
	}
	if c.DevServer.DBPath == "" {
		c.DevServer.DBPath = DefaultDevDBPath
	}
}

// SetAPIURL overrides the backend URL. The assistant URL follows it unless it was set
// explicitly.
func (c *Config) SetAPIURL(u string) {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return
	}
	if c.AssistURL == c.APIURL+assistPath {
		c.AssistURL = u + assistPath
	}
	c.APIURL = u
}

func (c *Config) Validate() error {
	for name, raw := range map[string]string{"api_url": c.APIURL, "assist_url": c.AssistURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid URL %q", name, raw)
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format: must be text or json, got %q", c.LogFormat)
	}
	return nil
}
