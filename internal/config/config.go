// Package config loads the storefront client configuration from a YAML file,
// environment overrides and defaults, in that order of precedence (env wins).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"storefront/internal/domain"
)

// Config holds all client settings.
type Config struct {
	// Backend
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	CSRFCookie string `yaml:"csrf_cookie"`
	CSRFHeader string `yaml:"csrf_header"`
	LoginPath  string `yaml:"login_path"`

	// Session
	Session SessionConfig `yaml:"session"`

	// UI timing
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Page context file (product/user data of the current page)
	PagePath string `yaml:"page"`
}

// SessionConfig где хранятся cookie между запусками
type SessionConfig struct {
	Cookies    string `yaml:"cookies"`     // raw "a=1; b=2", e.g. copied from a browser
	CookieFile string `yaml:"cookie_file"` // persisted jar, empty disables persistence
}

// UIConfig задержки уведомлений и переходов
type UIConfig struct {
	NotificationDuration string `yaml:"notification_duration"`
	PaymentRedirectDelay string `yaml:"payment_redirect_delay"`
	LoginRedirectDelay   string `yaml:"login_redirect_delay"`
	Color                bool   `yaml:"color"`
}

// LoggingConfig уровень и формат логов
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:    "http://localhost:9091",
		Timeout:    "15s",
		CSRFCookie: "csrftoken",
		CSRFHeader: "X-CSRFToken",
		LoginPath:  "/login/",
		UI: UIConfig{
			NotificationDuration: "3s",
			PaymentRedirectDelay: "1500ms",
			LoginRedirectDelay:   "2s",
			Color:                true,
		},
		Logging: LoggingConfig{Level: "warn", Format: "console"},
	}
}

// Load reads path (if non-empty and present), then applies env overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STOREFRONT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_COOKIES"); v != "" {
		c.Session.Cookies = v
	}
	if v := os.Getenv("STOREFRONT_COOKIE_FILE"); v != "" {
		c.Session.CookieFile = v
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_PAGE"); v != "" {
		c.PagePath = v
	}
	if os.Getenv("NO_COLOR") != "" {
		c.UI.Color = false
	}
}

// Validate checks that every duration parses and the base URL is set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	for name, v := range map[string]string{
		"timeout":                   c.Timeout,
		"ui.notification_duration":  c.UI.NotificationDuration,
		"ui.payment_redirect_delay": c.UI.PaymentRedirectDelay,
		"ui.login_redirect_delay":   c.UI.LoginRedirectDelay,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}
	return nil
}

// GetTimeout returns the request timeout.
func (c *Config) GetTimeout() time.Duration { return mustDuration(c.Timeout, 15*time.Second) }

// NotificationDuration время показа уведомления по умолчанию
func (c *Config) NotificationDuration() time.Duration {
	return mustDuration(c.UI.NotificationDuration, 3*time.Second)
}

// PaymentRedirectDelay задержка перед переходом к оплате или скачиванию
func (c *Config) PaymentRedirectDelay() time.Duration {
	return mustDuration(c.UI.PaymentRedirectDelay, 1500*time.Millisecond)
}

// LoginRedirectDelay задержка перед переходом на страницу входа
func (c *Config) LoginRedirectDelay() time.Duration {
	return mustDuration(c.UI.LoginRedirectDelay, 2*time.Second)
}

func mustDuration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// LoadPage reads the read-only page context. An empty path yields an empty
// context (catalog pages carry no product and no user data).
func LoadPage(path string) (domain.PageContext, error) {
	if path == "" {
		return domain.PageContext{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PageContext{}, errors.Wrapf(err, "read page %s", path)
	}
	var page domain.PageContext
	if err := yaml.Unmarshal(data, &page); err != nil {
		return domain.PageContext{}, errors.Wrapf(err, "parse page %s", path)
	}
	return page, nil
}
