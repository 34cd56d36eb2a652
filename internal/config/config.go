package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Leo190198/promoShare/internal/timeutil"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Automation AutomationConfig `yaml:"automation"`
	Shopee     ShopeeConfig     `yaml:"shopee"`
	WhatsApp   WhatsAppConfig   `yaml:"whatsapp"`
}

// ServerConfig holds HTTP listener and admission settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	APIKey   string `yaml:"api_key"`
}

// Addr returns the listen address in host:port form
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// DSN normalizes the configured URL for the pq driver. Hosting providers
// hand out both postgres:// and postgresql:// prefixes.
func (c DatabaseConfig) DSN() string {
	if strings.HasPrefix(c.URL, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(c.URL, "postgresql://")
	}
	return c.URL
}

// RedisConfig holds the optional Redis connection for the tick leader lock
type RedisConfig struct {
	URL string `yaml:"url"`
}

// Enabled reports whether a Redis endpoint is configured
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// AutomationConfig holds the engine defaults seeded at bootstrap and the
// tick loop cadence
type AutomationConfig struct {
	Enabled                   bool   `yaml:"enabled"`
	TickSeconds               int    `yaml:"tick_seconds"`
	Timezone                  string `yaml:"timezone"`
	SuggestionIntervalMinutes int    `yaml:"suggestion_interval_minutes"`
	DefaultTargetGroupID      string `yaml:"default_target_group_id"`
	DefaultTargetGroupName    string `yaml:"default_target_group_name"`
	DailyPostTarget           int    `yaml:"daily_post_target"`
	DailyPostLimit            int    `yaml:"daily_post_limit"`
	DefaultStartTime          string `yaml:"default_start_time"`
	DefaultEndTime            string `yaml:"default_end_time"`
	DefaultThemes             string `yaml:"default_themes"`
	ProductDedupDays          int    `yaml:"product_dedup_days"`
	FetchLimitPerTheme        int    `yaml:"fetch_limit_per_theme"`
	MaxSuggestionsPerRun      int    `yaml:"max_suggestions_per_run"`
	PricePrefix               string `yaml:"price_prefix"`
	MessageTemplate           string `yaml:"message_template"`
}

// TickInterval returns the tick cadence as a duration
func (c AutomationConfig) TickInterval() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// SuggestionInterval returns the auto-generation cadence as a duration
func (c AutomationConfig) SuggestionInterval() time.Duration {
	return time.Duration(c.SuggestionIntervalMinutes) * time.Minute
}

// Location resolves the configured IANA timezone
func (c AutomationConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ThemeList splits the comma-separated default keywords, dropping blanks
func (c AutomationConfig) ThemeList() []string {
	var themes []string
	for _, kw := range strings.Split(c.DefaultThemes, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			themes = append(themes, kw)
		}
	}
	return themes
}

// ShopeeConfig holds the upstream affiliate catalog credentials
type ShopeeConfig struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c ShopeeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WhatsAppConfig holds the messaging bridge connection settings
type WhatsAppConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c WhatsAppConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultMessageTemplate is seeded into settings when nothing is configured.
const DefaultMessageTemplate = "🔥 {productName}\n💰 A partir de R$ {formattedPrice}\n🔗 {shortLink}"

// Load reads a YAML config file and applies defaults. An empty or absent
// file is not an error: env-only deployments run on defaults plus
// overrides, and a fresh checkout ships no config/ directory.
func Load(path string) (*Config, error) {
	var cfg Config
	// Automation runs unless explicitly switched off; a bool zero value
	// cannot express that, so seed it before unmarshaling.
	cfg.Automation.Enabled = true
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	// Set defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = "postgres://localhost:5432/promoshare?sslmode=disable"
	}
	if cfg.Automation.TickSeconds == 0 {
		cfg.Automation.TickSeconds = 30
	}
	if cfg.Automation.Timezone == "" {
		cfg.Automation.Timezone = "America/Sao_Paulo"
	}
	if cfg.Automation.SuggestionIntervalMinutes == 0 {
		cfg.Automation.SuggestionIntervalMinutes = 30
	}
	if cfg.Automation.DailyPostTarget == 0 {
		cfg.Automation.DailyPostTarget = 15
	}
	if cfg.Automation.DailyPostLimit == 0 {
		cfg.Automation.DailyPostLimit = 15
	}
	if cfg.Automation.DefaultTargetGroupName == "" {
		cfg.Automation.DefaultTargetGroupName = "Teste dos Posts Automaticos"
	}
	if cfg.Automation.DefaultStartTime == "" {
		cfg.Automation.DefaultStartTime = "09:00"
	}
	if cfg.Automation.DefaultEndTime == "" {
		cfg.Automation.DefaultEndTime = "22:00"
	}
	if cfg.Automation.DefaultThemes == "" {
		cfg.Automation.DefaultThemes = "iphone,notebook,fone bluetooth,ssd,smartwatch"
	}
	if cfg.Automation.ProductDedupDays == 0 {
		cfg.Automation.ProductDedupDays = 7
	}
	if cfg.Automation.FetchLimitPerTheme == 0 {
		cfg.Automation.FetchLimitPerTheme = 12
	}
	if cfg.Automation.MaxSuggestionsPerRun == 0 {
		cfg.Automation.MaxSuggestionsPerRun = 30
	}
	if cfg.Automation.PricePrefix == "" {
		cfg.Automation.PricePrefix = "A partir de R$ "
	}
	if cfg.Automation.MessageTemplate == "" {
		cfg.Automation.MessageTemplate = DefaultMessageTemplate
	}
	if cfg.Shopee.TimeoutSeconds == 0 {
		cfg.Shopee.TimeoutSeconds = 20
	}
	if cfg.WhatsApp.TimeoutSeconds == 0 {
		cfg.WhatsApp.TimeoutSeconds = 20
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("API_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := envInt("API_PORT"); v != 0 {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AUTOMATION_ENABLED"); v != "" {
		cfg.Automation.Enabled = envBoolValue(v)
	}
	if v := envInt("AUTOMATION_TICK_SECONDS"); v != 0 {
		cfg.Automation.TickSeconds = v
	}
	if v := os.Getenv("AUTOMATION_TIMEZONE"); v != "" {
		cfg.Automation.Timezone = v
	}
	if v := envInt("SUGGESTION_INTERVAL_MINUTES"); v != 0 {
		cfg.Automation.SuggestionIntervalMinutes = v
	}
	if v := os.Getenv("DEFAULT_TARGET_GROUP_ID"); v != "" {
		cfg.Automation.DefaultTargetGroupID = v
	}
	if v := os.Getenv("DEFAULT_TARGET_GROUP_NAME"); v != "" {
		cfg.Automation.DefaultTargetGroupName = v
	}
	if v := envInt("DAILY_POST_TARGET"); v != 0 {
		cfg.Automation.DailyPostTarget = v
	}
	if v := envInt("DAILY_POST_LIMIT"); v != 0 {
		cfg.Automation.DailyPostLimit = v
	}
	if v := os.Getenv("DEFAULT_POST_START_TIME"); v != "" {
		cfg.Automation.DefaultStartTime = v
	}
	if v := os.Getenv("DEFAULT_POST_END_TIME"); v != "" {
		cfg.Automation.DefaultEndTime = v
	}
	if v := os.Getenv("DEFAULT_THEMES"); v != "" {
		cfg.Automation.DefaultThemes = v
	}
	if v := envInt("PRODUCT_DEDUP_DAYS"); v != 0 {
		cfg.Automation.ProductDedupDays = v
	}
	if v := envInt("SUGGESTION_FETCH_LIMIT_PER_THEME"); v != 0 {
		cfg.Automation.FetchLimitPerTheme = v
	}
	if v := envInt("SUGGESTION_MAX_PER_RUN"); v != 0 {
		cfg.Automation.MaxSuggestionsPerRun = v
	}
	if v := os.Getenv("PRICE_PREFIX"); v != "" {
		cfg.Automation.PricePrefix = v
	}
	if v := os.Getenv("MESSAGE_TEMPLATE"); v != "" {
		// Env vars carry newlines as the two-character escape.
		cfg.Automation.MessageTemplate = strings.ReplaceAll(v, `\n`, "\n")
	}
	if v := os.Getenv("SHOPEE_API_BASE_URL"); v != "" {
		cfg.Shopee.BaseURL = v
	}
	if v := os.Getenv("SHOPEE_API_USERNAME"); v != "" {
		cfg.Shopee.Username = v
	}
	if v := os.Getenv("SHOPEE_API_PASSWORD"); v != "" {
		cfg.Shopee.Password = v
	}
	if v := envInt("SHOPEE_API_TIMEOUT_SECONDS"); v != 0 {
		cfg.Shopee.TimeoutSeconds = v
	}
	if v := os.Getenv("WA_API_BASE_URL"); v != "" {
		cfg.WhatsApp.BaseURL = v
	}
	if v := os.Getenv("WA_API_KEY"); v != "" {
		cfg.WhatsApp.APIKey = v
	}
	if v := envInt("WA_API_TIMEOUT_SECONDS"); v != 0 {
		cfg.WhatsApp.TimeoutSeconds = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations the engine cannot run with and applies
// the tick floor.
func (c *Config) validate() error {
	if c.Automation.TickSeconds < 5 {
		c.Automation.TickSeconds = 5
	}
	if !timeutil.ValidHHMM(c.Automation.DefaultStartTime) {
		return fmt.Errorf("invalid default_start_time %q: want HH:MM", c.Automation.DefaultStartTime)
	}
	if !timeutil.ValidHHMM(c.Automation.DefaultEndTime) {
		return fmt.Errorf("invalid default_end_time %q: want HH:MM", c.Automation.DefaultEndTime)
	}
	if _, err := c.Automation.Location(); err != nil {
		return fmt.Errorf("invalid automation timezone %q: %w", c.Automation.Timezone, err)
	}
	return nil
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func envBoolValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
