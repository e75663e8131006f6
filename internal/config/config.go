package config

import (
	"bufio"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
)

const (
	appName = "mediasection"

	defaultServer            = "http://localhost:8080"
	defaultSection           = "null"
	defaultLogLevel          = "info"
	defaultSettleDelay       = section.DefaultSettleDelay
	defaultRequestsPerSecond = 5.0
	defaultRetryMax          = 3
	defaultRequestTimeout    = 30 * time.Second
	defaultCacheSize         = 128
)

type Config struct {
	Server               string        `mapstructure:"server"`
	ProjectID            string        `mapstructure:"project_id"`
	Section              string        `mapstructure:"section"`
	Username             string        `mapstructure:"username"`
	Token                string        `mapstructure:"token"`
	CSRFToken            string        `mapstructure:"csrf_token"`
	SessionID            string        `mapstructure:"session_id"`
	Search               string        `mapstructure:"search"`
	LogFile              string        `mapstructure:"log_file"`
	LogLevel             string        `mapstructure:"log_level"`
	SettleDelay          time.Duration `mapstructure:"settle_delay"`
	RequestsPerSecond    float64       `mapstructure:"requests_per_second"`
	RetryMax             int           `mapstructure:"retry_max"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	NotifyDownloadErrors bool          `mapstructure:"notify_download_errors"`
	Algorithms           []string      `mapstructure:"algorithms"`
	Sections             []string      `mapstructure:"sections"`
	CardFields           []string      `mapstructure:"card_fields"`
	CacheSize            int           `mapstructure:"cache_size"`
}

func defaultConfig() *Config {
	return &Config{
		Server:            defaultServer,
		Section:           defaultSection,
		LogFile:           filepath.Join(Dir(), appName+".log"),
		LogLevel:          defaultLogLevel,
		SettleDelay:       defaultSettleDelay,
		RequestsPerSecond: defaultRequestsPerSecond,
		RetryMax:          defaultRetryMax,
		RequestTimeout:    defaultRequestTimeout,
		CacheSize:         defaultCacheSize,
	}
}

// Dir is the configuration directory, honouring XDG_CONFIG_HOME.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(Dir())
	v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", appName))
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MEDIASECTION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", cfg.Server)
	v.SetDefault("project_id", "")
	v.SetDefault("section", cfg.Section)
	v.SetDefault("username", "")
	v.SetDefault("token", "")
	v.SetDefault("csrf_token", "")
	v.SetDefault("session_id", "")
	v.SetDefault("search", "")
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("settle_delay", cfg.SettleDelay)
	v.SetDefault("requests_per_second", cfg.RequestsPerSecond)
	v.SetDefault("retry_max", cfg.RetryMax)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("notify_download_errors", false)
	v.SetDefault("algorithms", []string{})
	v.SetDefault("sections", []string{})
	v.SetDefault("card_fields", []string{})
	v.SetDefault("cache_size", cfg.CacheSize)

	if err := v.ReadInConfig(); err != nil {
		// fallback to TOML if yaml missing
		v.SetConfigType("toml")
		_ = v.ReadInConfig()
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// legacy credentials file fills what the config left empty
	if legacy, err := loadLegacy(); err == nil {
		cfg.mergeLegacy(legacy)
	}
	return cfg, nil
}

// Credentials returns what the REST client attaches to requests.
func (c *Config) Credentials() rest.Credentials {
	return rest.Credentials{
		Token:     c.Token,
		CSRFToken: c.CSRFToken,
		SessionID: c.SessionID,
		Username:  c.Username,
	}
}

func (c *Config) DownloadFailures() section.DownloadFailurePolicy {
	if c.NotifyDownloadErrors {
		return section.DownloadFailureNotify
	}
	return section.DownloadFailureSilent
}

// PageQuery is the query of the page hosting the section.
func (c *Config) PageQuery() string {
	if c.Search == "" {
		return ""
	}
	return url.Values{"search": {c.Search}}.Encode()
}

type legacyConfig struct {
	server, projectID, username, token, csrfToken string
}

func (c *Config) mergeLegacy(l *legacyConfig) {
	if c.Server == defaultServer && l.server != "" {
		c.Server = l.server
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.ProjectID, l.projectID)
	fill(&c.Username, l.username)
	fill(&c.Token, l.token)
	fill(&c.CSRFToken, l.csrfToken)
}

func loadLegacy() (*legacyConfig, error) {
	f, err := os.Open(filepath.Join(Dir(), "credentials"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &legacyConfig{}
	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := parts[0]
		val := strings.Trim(parts[1], "\"'")
		switch key {
		case "MEDIASECTION_SERVER":
			cfg.server = val
		case "MEDIASECTION_PROJECT_ID":
			cfg.projectID = val
		case "MEDIASECTION_USERNAME":
			cfg.username = val
		case "MEDIASECTION_TOKEN":
			cfg.token = val
		case "MEDIASECTION_CSRF_TOKEN":
			cfg.csrfToken = val
		default:
			continue
		}
		found = true
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("no legacy keys")
	}
	return cfg, nil
}
