package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Clockify ClockifyConfig `yaml:"clockify"`
	Notion   NotionConfig   `yaml:"notion"`
	Tracking TrackingConfig `yaml:"tracking"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ClockifyConfig struct {
	// BaseURL defaults to the public Clockify endpoint when empty.
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	WorkspaceID string        `yaml:"workspace_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

type NotionConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

type TrackingConfig struct {
	// AutoCreateProjects maps unknown projects the first time a task uses them.
	AutoCreateProjects bool `yaml:"auto_create_projects"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks the settings required to serve webhooks.
func (c Config) Validate() error {
	var errs []error
	if c.Clockify.APIKey == "" {
		errs = append(errs, errors.New("clockify api key is required (CLOCKIFY_API_KEY)"))
	}
	if c.Clockify.WorkspaceID == "" {
		errs = append(errs, errors.New("clockify workspace id is required (CLOCKIFY_WORKSPACE_ID)"))
	}
	if c.Notion.WebhookSecret == "" {
		errs = append(errs, errors.New("notion webhook secret is required (NOTION_WEBHOOK_SECRET)"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		DB: DBConfig{
			Path: "notiontime.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("NOTIONTIME_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("NOTIONTIME_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	for _, key := range []string{"PORT", "NOTIONTIME_SERVER_PORT"} {
		portStr := os.Getenv(key)
		if portStr == "" {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("NOTIONTIME_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("NOTIONTIME_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if verbose, ok, err := envBool("VERBOSE"); err != nil {
		return Config{}, err
	} else if ok && verbose {
		cfg.Log.Level = "debug"
	}

	if baseURL := os.Getenv("CLOCKIFY_BASE_URL"); baseURL != "" {
		cfg.Clockify.BaseURL = baseURL
	}
	if apiKey := os.Getenv("CLOCKIFY_API_KEY"); apiKey != "" {
		cfg.Clockify.APIKey = apiKey
	}
	if ws := os.Getenv("CLOCKIFY_WORKSPACE_ID"); ws != "" {
		cfg.Clockify.WorkspaceID = ws
	}
	if timeout := os.Getenv("CLOCKIFY_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CLOCKIFY_TIMEOUT: %w", err)
		}
		cfg.Clockify.Timeout = d
	}
	if secret := os.Getenv("NOTION_WEBHOOK_SECRET"); secret != "" {
		cfg.Notion.WebhookSecret = secret
	}
	if auto, ok, err := envBool("NOTIONTIME_AUTO_CREATE_PROJECTS"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Tracking.AutoCreateProjects = auto
	}

	return cfg, nil
}

func envBool(key string) (value, ok bool, err error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false, nil
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, true, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
