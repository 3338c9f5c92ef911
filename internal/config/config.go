// Package config handles user configuration for chatline.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/diogo/chatline/internal/models"
)

// EnvEndpoint overrides the configured endpoint when set
const EnvEndpoint = "CHATLINE_ENDPOINT"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style, "basic", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// Endpoint is the base URL of the chat server; requests go to Endpoint + /api/chat.
	Endpoint string `json:"endpoint"`
	// Stream selects the streaming protocol by default.
	Stream bool `json:"stream"`
	// TimeoutSeconds bounds a whole exchange. Zero means no timeout.
	TimeoutSeconds int `json:"timeout_seconds"`
	// ClientProfile is the TLS fingerprint of the HTTP client, e.g. chrome_120.
	ClientProfile string `json:"client_profile"`
	Proxy         string `json:"proxy,omitempty"`

	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`

	LogLevel  string `json:"log_level"`          // debug, info, warn, error
	LogFormat string `json:"log_format"`         // json or text
	LogFile   string `json:"log_file,omitempty"` // defaults to ~/.chatline/logs/chatline.log
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:        models.DefaultBaseURL,
		Stream:          true,
		TimeoutSeconds:  0,
		ClientProfile:   "chrome_120",
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".chatline"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns where logs are written for cfg
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "logs", "chatline.log"), nil
}

// LoadConfig loads the configuration from disk. A missing file yields the
// defaults. Environment overrides are not applied; see ApplyEnv.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment overrides onto cfg
func ApplyEnv(cfg *Config) {
	if endpoint := strings.TrimSpace(os.Getenv(EnvEndpoint)); endpoint != "" {
		cfg.Endpoint = endpoint
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps each settable key to a function that parses and stores a value
var setters = map[string]func(cfg *Config, value string) error{
	"endpoint": func(cfg *Config, v string) error {
		if err := ValidateEndpoint(v); err != nil {
			return err
		}
		cfg.Endpoint = v
		return nil
	},
	"stream":            boolSetter(func(c *Config) *bool { return &c.Stream }),
	"verbose":           boolSetter(func(c *Config) *bool { return &c.Verbose }),
	"copy_to_clipboard": boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"timeout_seconds": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout_seconds must be a non-negative integer, got %q", v)
		}
		cfg.TimeoutSeconds = n
		return nil
	},
	"client_profile": stringSetter(func(c *Config) *string { return &c.ClientProfile }),
	"proxy":          func(cfg *Config, v string) error { cfg.Proxy = v; return nil },
	"tui_theme":      stringSetter(func(c *Config) *string { return &c.TUITheme }),
	"log_level": oneOfSetter(func(c *Config) *string { return &c.LogLevel },
		"debug", "info", "warn", "error"),
	"log_format": oneOfSetter(func(c *Config) *string { return &c.LogFormat },
		"json", "text"),
	"log_file":                    func(cfg *Config, v string) error { cfg.LogFile = v; return nil },
	"markdown.style":              stringSetter(func(c *Config) *string { return &c.Markdown.Style }),
	"markdown.enable_emoji":       boolSetter(func(c *Config) *bool { return &c.Markdown.EnableEmoji }),
	"markdown.preserve_newlines":  boolSetter(func(c *Config) *bool { return &c.Markdown.PreserveNewLines }),
	"markdown.table_wrap":         boolSetter(func(c *Config) *bool { return &c.Markdown.TableWrap }),
	"markdown.inline_table_links": boolSetter(func(c *Config) *bool { return &c.Markdown.InlineTableLinks }),
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		*field(cfg) = b
		return nil
	}
}

func stringSetter(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("value cannot be empty")
		}
		*field(cfg) = v
		return nil
	}
}

func oneOfSetter(field func(*Config) *string, allowed ...string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		v = strings.ToLower(v)
		for _, a := range allowed {
			if v == a {
				*field(cfg) = v
				return nil
			}
		}
		return fmt.Errorf("expected one of %s, got %q", strings.Join(allowed, ", "), v)
	}
}

// Keys returns every key accepted by Set, sorted
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value and stores it under key
func Set(cfg *Config, key, value string) error {
	setter, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := setter(cfg, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint is missing a host")
	}
	return nil
}
