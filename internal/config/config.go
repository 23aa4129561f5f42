// Package config provides configuration management for kwforge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/ini.v1"

	"github.com/keywordforge/kwforge/internal/constants"
)

// Config holds the settings kwforge needs to talk to a KeywordForge
// dashboard: connection, proxy, and status-watch behavior.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\kwforge\config
//   - Unix: ~/.config/kwforge/config
//
// INI format:
//
//	[keywordforge]
//	platform_url = https://app.keywordforge.io
//	api_key = <token>
//	project_id = <default project>
//
//	[kwforge.watch]
//	poll_interval_seconds = 2
//
//	[kwforge.proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	no_proxy =
type Config struct {
	// Connection settings
	PlatformURL string `ini:"platform_url"`
	APIKey      string `ini:"api_key"`
	ProjectID   string `ini:"project_id"`

	// Watch settings
	PollInterval time.Duration

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated hosts to bypass the proxy
}

// Validation errors
var (
	ErrMissingPlatformURL = errors.New("platform_url is required")
	ErrMissingAPIKey      = errors.New("api_key is required")
	ErrMissingProjectID   = errors.New("project id is required (flag --project or config project_id)")
)

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", constants.AppName)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", constants.AppName)
	}

	return filepath.Join(configDir, "config"), nil
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		PlatformURL:  "https://app.keywordforge.io",
		PollInterval: constants.DefaultPollInterval,
		ProxyMode:    "no-proxy",
	}
}

// Load loads configuration from an INI file, then applies environment
// overrides (KWFORGE_API_KEY, KWFORGE_PLATFORM_URL, KWFORGE_PROJECT_ID).
// If the file doesn't exist, returns defaults and no error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	main := iniFile.Section("keywordforge")
	cfg.PlatformURL = main.Key("platform_url").MustString(cfg.PlatformURL)
	cfg.APIKey = main.Key("api_key").String()
	cfg.ProjectID = main.Key("project_id").String()

	watch := iniFile.Section("kwforge.watch")
	seconds := watch.Key("poll_interval_seconds").MustInt(int(constants.DefaultPollInterval / time.Second))
	if seconds < 1 {
		seconds = 1
	}
	cfg.PollInterval = time.Duration(seconds) * time.Second

	proxy := iniFile.Section("kwforge.proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString("no-proxy")
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	// The proxy password is never persisted; it comes from the environment.
	cfg.ProxyPassword = os.Getenv("KWFORGE_PROXY_PASSWORD")

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the configuration to an INI file, creating parent directories
// as needed. The API key is stored in the file, so permissions are 0600.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	main, err := iniFile.NewSection("keywordforge")
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}
	main.Key("platform_url").SetValue(cfg.PlatformURL)
	main.Key("api_key").SetValue(cfg.APIKey)
	main.Key("project_id").SetValue(cfg.ProjectID)

	watch, err := iniFile.NewSection("kwforge.watch")
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}
	watch.Key("poll_interval_seconds").SetValue(fmt.Sprintf("%d", int(cfg.PollInterval/time.Second)))

	proxy, err := iniFile.NewSection("kwforge.proxy")
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.ProxyMode)
	proxy.Key("host").SetValue(cfg.ProxyHost)
	proxy.Key("port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	proxy.Key("user").SetValue(cfg.ProxyUser)
	proxy.Key("no_proxy").SetValue(cfg.NoProxy)

	if err := iniFile.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// Validate checks that the settings required for API calls are present.
func (c *Config) Validate() error {
	if c.PlatformURL == "" {
		return ErrMissingPlatformURL
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KWFORGE_PLATFORM_URL"); v != "" {
		cfg.PlatformURL = v
	}
	if v := os.Getenv("KWFORGE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("KWFORGE_PROJECT_ID"); v != "" {
		cfg.ProjectID = v
	}
	// The proxy password never lives in the config file.
	if v := os.Getenv("KWFORGE_PROXY_PASSWORD"); v != "" {
		cfg.ProxyPassword = v
	}
}
