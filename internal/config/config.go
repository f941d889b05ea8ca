package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "PAPERFEED_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	searchAPIKeyEnv   = "TWITTERAPI_IO_KEY"
	llmAPIKeyEnv      = "ANTHROPIC_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"
	excludeRepliesEnv = "INGEST_EXCLUDE_REPLIES"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	HTTP          HTTPConfig         `yaml:"http"`
	Database      DatabaseConfig     `yaml:"database"`
	Search        SearchConfig       `yaml:"search"`
	LLM           LLMConfig          `yaml:"llm"`
	Ingest        IngestConfig       `yaml:"ingest"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Publish       PublishConfig      `yaml:"publish"`
	Enrich        EnrichConfig       `yaml:"enrich"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level and handler format ("text" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig describes the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig describes the SQL store; driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SearchConfig wires the upstream post-search provider.
type SearchConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"apiKey"`
	QueryType string        `yaml:"queryType"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig defines how to contact the messages API used for rewriting.
type LLMConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	Version      string        `yaml:"version"`
	MaxTokens    int           `yaml:"maxTokens"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// IngestConfig tunes the admission filter and query vocabulary.
type IngestConfig struct {
	ExcludeReplies bool     `yaml:"excludeReplies"`
	Topics         []string `yaml:"topics"`
	NoisePhrases   []string `yaml:"noisePhrases"`
}

// SchedulerConfig defines when the fetch trigger runs on its own.
type SchedulerConfig struct {
	Enabled    bool           `yaml:"enabled"`
	Interval   time.Duration  `yaml:"interval"`
	Timezone   string         `yaml:"timezone"`
	MinLikes   int            `yaml:"minLikes"`
	MaxResults int            `yaml:"maxResults"`
	Keywords   []string       `yaml:"keywords"`
	SinceHours float64        `yaml:"sinceHours"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PublishConfig controls the simulated publish step.
type PublishConfig struct {
	SimulatedDelay time.Duration `yaml:"simulatedDelay"`
}

// EnrichConfig bounds abstract enrichment runs.
type EnrichConfig struct {
	BatchSize int           `yaml:"batchSize"`
	Timeout   time.Duration `yaml:"timeout"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(searchAPIKeyEnv); v != "" {
		c.Search.APIKey = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(excludeRepliesEnv); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Ingest.ExcludeReplies = parsed
		} else {
			log.Printf("config: invalid %s=%q, keeping %v", excludeRepliesEnv, v, c.Ingest.ExcludeReplies)
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ShutdownTimeout > 0 {
		base.HTTP.ShutdownTimeout = override.HTTP.ShutdownTimeout
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
		if base.Database.Driver == "" {
			base.Database.Driver = defaultConfig().Database.Driver
		}
	}

	if override.Search.Endpoint != "" {
		base.Search.Endpoint = override.Search.Endpoint
	}
	if override.Search.APIKey != "" {
		base.Search.APIKey = override.Search.APIKey
	}
	if override.Search.QueryType != "" {
		base.Search.QueryType = override.Search.QueryType
	}
	if override.Search.Timeout > 0 {
		base.Search.Timeout = override.Search.Timeout
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Version != "" {
		base.LLM.Version = override.LLM.Version
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	base.Ingest.ExcludeReplies = override.Ingest.ExcludeReplies
	if len(override.Ingest.Topics) > 0 {
		base.Ingest.Topics = override.Ingest.Topics
	}
	if len(override.Ingest.NoisePhrases) > 0 {
		base.Ingest.NoisePhrases = override.Ingest.NoisePhrases
	}

	base.Scheduler.Enabled = override.Scheduler.Enabled
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.MinLikes > 0 {
		base.Scheduler.MinLikes = override.Scheduler.MinLikes
	}
	if override.Scheduler.MaxResults > 0 {
		base.Scheduler.MaxResults = override.Scheduler.MaxResults
	}
	if len(override.Scheduler.Keywords) > 0 {
		base.Scheduler.Keywords = override.Scheduler.Keywords
	}
	if override.Scheduler.SinceHours > 0 {
		base.Scheduler.SinceHours = override.Scheduler.SinceHours
	}

	if override.Publish.SimulatedDelay > 0 {
		base.Publish.SimulatedDelay = override.Publish.SimulatedDelay
	}

	if override.Enrich.BatchSize > 0 {
		base.Enrich.BatchSize = override.Enrich.BatchSize
	}
	if override.Enrich.Timeout > 0 {
		base.Enrich.Timeout = override.Enrich.Timeout
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		HTTP:     HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:paperfeed.db?_pragma=foreign_keys(1)"},
		Search: SearchConfig{
			Endpoint:  "https://api.twitterapi.io/twitter/tweet/advanced_search",
			QueryType: "Top",
			Timeout:   20 * time.Second,
		},
		LLM: LLMConfig{
			Endpoint:  "https://api.anthropic.com/v1/messages",
			Model:     "claude-3-haiku-20240307",
			Version:   "2023-06-01",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:    false,
			Interval:   6 * time.Hour,
			Timezone:   defaultTimezone,
			MinLikes:   100,
			MaxResults: 20,
			SinceHours: 24,
			location:   tz,
		},
		Publish: PublishConfig{SimulatedDelay: 500 * time.Millisecond},
		Enrich:  EnrichConfig{BatchSize: 20, Timeout: 20 * time.Second},
	}
}
