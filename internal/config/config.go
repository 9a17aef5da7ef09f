package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultPath         = "/etc/timeoutwarden/config.toml"
	DefaultCookieName   = "session_timeout_data"
	DefaultPollInterval = 30 * time.Second
)

// Duration is a time.Duration that reads from TOML strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))
	if str == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", str)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type SourceConfig struct {
	Kind       string `toml:"kind"`
	Path       string `toml:"path"`
	Watch      *bool  `toml:"watch"`
	BrowserURL string `toml:"browser_url"`
}

type EndpointConfig struct {
	ExtendSession string   `toml:"extend_session"`
	Logout        string   `toml:"logout"`
	LogBackIn     string   `toml:"log_back_in"`
	CSRFToken     string   `toml:"csrf_token"`
	ExtendRate    Duration `toml:"extend_rate"`
}

type MessageConfig struct {
	ExtendedSuccess string   `toml:"extended_success"`
	ExtendedError   string   `toml:"extended_error"`
	ToastDuration   Duration `toml:"toast_duration"`
}

type Config struct {
	BaseURL      string         `toml:"base_url"`
	CookieName   string         `toml:"cookie_name"`
	PollInterval Duration       `toml:"poll_interval"`
	ClockSkew    *bool          `toml:"clock_skew"`
	StateFile    string         `toml:"state_file"`
	StaleAfter   Duration       `toml:"stale_after"`
	Presenter    string         `toml:"presenter"`
	Source       SourceConfig   `toml:"source"`
	Endpoints    EndpointConfig `toml:"endpoints"`
	Messages     MessageConfig  `toml:"messages"`
}

// SetDefault fills every unset value with its default.
func (c *Config) SetDefault() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9000"
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.ClockSkew == nil {
		defaultVal := true
		c.ClockSkew = &defaultVal
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = Duration(12 * time.Hour)
	}
	if c.Presenter == "" {
		c.Presenter = "log"
	}

	if c.Source.Kind == "" {
		c.Source.Kind = "jar"
	}
	if c.Source.Watch == nil {
		defaultVal := c.Source.Kind == "file"
		c.Source.Watch = &defaultVal
	}
	if c.Source.BrowserURL == "" {
		c.Source.BrowserURL = "ws://127.0.0.1:9222"
	}

	if c.Endpoints.ExtendSession == "" {
		c.Endpoints.ExtendSession = "/extend-session"
	}
	if c.Endpoints.Logout == "" {
		c.Endpoints.Logout = "/logout"
	}
	if c.Endpoints.LogBackIn == "" {
		c.Endpoints.LogBackIn = "/logBackIn"
	}
	if c.Endpoints.ExtendRate == 0 {
		c.Endpoints.ExtendRate = Duration(5 * time.Second)
	}

	if c.Messages.ExtendedSuccess == "" {
		c.Messages.ExtendedSuccess = "Session successfully extended"
	}
	if c.Messages.ExtendedError == "" {
		c.Messages.ExtendedError = "Failed to extend session"
	}
	if c.Messages.ToastDuration == 0 {
		c.Messages.ToastDuration = Duration(3 * time.Second)
	}
}

// Validate reports values SetDefault cannot repair.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	switch c.Presenter {
	case "dbus", "tui", "log":
	default:
		return fmt.Errorf("unknown presenter %q (want dbus, tui or log)", c.Presenter)
	}
	switch c.Source.Kind {
	case "jar", "browser":
	case "file":
		if c.Source.Path == "" {
			return fmt.Errorf("source kind file requires source.path")
		}
	default:
		return fmt.Errorf("unknown source kind %q (want file, jar or browser)", c.Source.Kind)
	}
	return nil
}

// Resolve joins an endpoint path onto BaseURL.
func (c *Config) Resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func LoadConfigFromFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()
	decoder := toml.NewDecoder(file)
	var config Config
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	config.SetDefault()
	return config, config.Validate()
}

func LoadConfigFromBytes(data []byte) (Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	config.SetDefault()
	return config, config.Validate()
}
