// Package config loads application settings from YAML with env overrides.
package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "PRICETRACKER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	httpAddrEnv       = "HTTP_ADDR"
	sitesFileEnv      = "SITES_FILE"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	HTTP          HTTPConfig         `yaml:"http"`
	Database      DatabaseConfig     `yaml:"database"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Jobs          JobsConfig         `yaml:"jobs"`
	Updater       UpdaterConfig      `yaml:"updater"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	SitesFile     string             `yaml:"sitesFile"`
}

// HTTPConfig describes the web front end listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN
// selects the in-memory repository.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ScraperConfig tunes outbound fetching.
type ScraperConfig struct {
	TimeoutSeconds      int     `yaml:"timeoutSeconds"`
	UserAgent           string  `yaml:"userAgent"`
	DefaultDelaySeconds float64 `yaml:"defaultDelaySeconds"`
}

// Timeout resolves the fetch timeout as a duration.
func (s ScraperConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// JobsConfig describes where bulk-run state and artifacts live.
type JobsConfig struct {
	StateFile   string `yaml:"stateFile"`
	DownloadDir string `yaml:"downloadDir"`
	UploadDir   string `yaml:"uploadDir"`
}

// UpdaterConfig controls the periodic re-extraction of tracked products.
// A zero interval disables the updater.
type UpdaterConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
}

// Interval resolves the updater period; zero means disabled.
func (u UpdaterConfig) Interval() time.Duration {
	if u.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(u.IntervalMinutes) * time.Minute
}

// NotificationConfig encapsulates outbound alert channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires the data required to send price-change alerts.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(sitesFileEnv); v != "" {
		c.SitesFile = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}
	if override.Scraper.TimeoutSeconds != 0 {
		base.Scraper.TimeoutSeconds = override.Scraper.TimeoutSeconds
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.DefaultDelaySeconds != 0 {
		base.Scraper.DefaultDelaySeconds = override.Scraper.DefaultDelaySeconds
	}
	if override.Jobs.StateFile != "" {
		base.Jobs.StateFile = override.Jobs.StateFile
	}
	if override.Jobs.DownloadDir != "" {
		base.Jobs.DownloadDir = override.Jobs.DownloadDir
	}
	if override.Jobs.UploadDir != "" {
		base.Jobs.UploadDir = override.Jobs.UploadDir
	}
	if override.Updater.IntervalMinutes != 0 {
		base.Updater = override.Updater
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.SitesFile != "" {
		base.SitesFile = override.SitesFile
	}
	return base
}

func defaultConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{DSN: ""},
		Scraper: ScraperConfig{
			TimeoutSeconds: 10,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
				"(KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			DefaultDelaySeconds: 3,
		},
		Jobs: JobsConfig{
			StateFile:   "data/jobs.json",
			DownloadDir: "downloads",
			UploadDir:   "uploads",
		},
		Updater:   UpdaterConfig{IntervalMinutes: 0},
		Logging:   LoggingConfig{Level: "info"},
		SitesFile: "config/sites.yaml",
	}
}
