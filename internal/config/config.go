package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"toggl-notion-sync/internal/adapter/notion"
	"toggl-notion-sync/internal/adapter/toggl"
)

// ConfigPathEnv names an optional YAML file read before the environment.
const ConfigPathEnv = "TOGGL_NOTION_CONFIG"

// Config holds environment-driven configuration.
type Config struct {
	Toggl struct {
		APIToken    string `yaml:"api_token"`
		WorkspaceID int64  `yaml:"workspace_id"`
		BaseURL     string `yaml:"base_url"`    // default: https://api.track.toggl.com
		ReportsURL  string `yaml:"reports_url"` // default: BaseURL
		UserAgent   string `yaml:"user_agent"`  // default: toggl-sync-script
	} `yaml:"toggl"`
	Notion struct {
		Token        string `yaml:"token"`
		DataSourceID string `yaml:"data_source_id"`
		BaseURL      string `yaml:"base_url"` // default: https://api.notion.com
		Version      string `yaml:"version"`  // default: 2025-09-03
	} `yaml:"notion"`
	MySQL struct {
		DSN string `yaml:"dsn"` // optional ledger, e.g. user:pass@tcp(host:3306)/db?parseTime=true&multiStatements=true
	} `yaml:"mysql"`
	Sync struct {
		Timezone string        `yaml:"timezone"` // e.g., UTC (default), Europe/Berlin
		Window   time.Duration `yaml:"window"`   // length of the latest window, default 24h
	} `yaml:"sync"`
	Log struct {
		Level  string `yaml:"level"`  // debug, info (default), warn, error
		Format string `yaml:"format"` // text (default) or json
		File   string `yaml:"file"`   // optional rotating log file
	} `yaml:"log"`
	HTTP struct {
		Addr string `yaml:"addr"` // default :8080
	} `yaml:"http"`
}

// Load reads configuration from a .env file (if present), an optional YAML
// file named by TOGGL_NOTION_CONFIG and the process environment, in that order
// of increasing precedence. Missing credentials are reported together.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path := env(ConfigPathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	setString(&cfg.Toggl.APIToken, "TOGGL_API_TOKEN")
	if ws := env("TOGGL_WORKSPACE_ID"); ws != "" {
		v, err := strconv.ParseInt(ws, 10, 64)
		if err != nil {
			return cfg, errors.New("TOGGL_WORKSPACE_ID must be an integer")
		}
		cfg.Toggl.WorkspaceID = v
	}
	setString(&cfg.Toggl.BaseURL, "TOGGL_BASE_URL")
	setString(&cfg.Toggl.ReportsURL, "TOGGL_REPORTS_URL")
	setString(&cfg.Toggl.UserAgent, "TOGGL_USER_AGENT")

	setString(&cfg.Notion.Token, "NOTION_INTEGRATION_SECRET")
	setString(&cfg.Notion.DataSourceID, "NOTION_DATA_SOURCE_ID")
	setString(&cfg.Notion.BaseURL, "NOTION_BASE_URL")
	setString(&cfg.Notion.Version, "NOTION_VERSION")

	setString(&cfg.MySQL.DSN, "MYSQL_DSN")

	setString(&cfg.Sync.Timezone, "SYNC_TZ")
	if w := env("SYNC_WINDOW"); w != "" {
		d, err := time.ParseDuration(w)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("SYNC_WINDOW must be a positive duration, got %q", w)
		}
		cfg.Sync.Window = d
	}

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.File, "LOG_FILE")
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")

	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Toggl.BaseURL == "" {
		cfg.Toggl.BaseURL = toggl.DefaultBaseURL
	}
	if cfg.Toggl.ReportsURL == "" {
		cfg.Toggl.ReportsURL = cfg.Toggl.BaseURL
	}
	if cfg.Toggl.UserAgent == "" {
		cfg.Toggl.UserAgent = toggl.DefaultUserAgent
	}
	if cfg.Notion.BaseURL == "" {
		cfg.Notion.BaseURL = notion.DefaultBaseURL
	}
	if cfg.Notion.Version == "" {
		cfg.Notion.Version = notion.DefaultVersion
	}
	if cfg.Sync.Timezone == "" {
		cfg.Sync.Timezone = "UTC"
	}
	if cfg.Sync.Window == 0 {
		cfg.Sync.Window = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
}

func (cfg Config) validate() error {
	var errs []error
	if cfg.Toggl.APIToken == "" {
		errs = append(errs, errors.New("TOGGL_API_TOKEN is required"))
	}
	if cfg.Toggl.WorkspaceID == 0 {
		errs = append(errs, errors.New("TOGGL_WORKSPACE_ID is required"))
	}
	if cfg.Notion.Token == "" {
		errs = append(errs, errors.New("NOTION_INTEGRATION_SECRET is required"))
	}
	if cfg.Notion.DataSourceID == "" {
		errs = append(errs, errors.New("NOTION_DATA_SOURCE_ID is required"))
	}
	return errors.Join(errs...)
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

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}
