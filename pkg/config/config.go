package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Companion CompanionConfig `mapstructure:"companion"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"`
	Debug   bool   `mapstructure:"debug"`
}

type DatabaseConfig struct {
	// Driver is one of memory, postgres or sqlite.
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type CompanionConfig struct {
	// EmotionThreshold is the minimum expression score accepted from a
	// face-analysis sample.
	EmotionThreshold float64       `mapstructure:"emotion_threshold"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	// ReminderInterval is how often medicine reminders are checked.
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
}

type OpenAIConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Temperature       float64 `mapstructure:"temperature"`
	HistoryTurns      int     `mapstructure:"history_turns"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		if _, err := fmt.Sscanf(u.Port(), "%d", &port); err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q: %w", u.Port(), err)
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Driver:   "postgres",
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads path, a .env file in the working directory when present,
// and the environment. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set default values
	v.SetDefault("telegram.timeout", 60)
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "safefit")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "data/safefit.db")
	v.SetDefault("companion.emotion_threshold", 0.6)
	v.SetDefault("companion.history_limit", 5)
	v.SetDefault("companion.reminder_interval", time.Minute)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 300)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.history_turns", 10)
	v.SetDefault("openai.requests_per_second", 2)
	v.SetDefault("openai.burst", 5)

	// Enable environment variable support, e.g. DATABASE_DRIVER
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		dbConfig.SQLitePath = config.Database.SQLitePath
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Companion.EmotionThreshold < 0 || c.Companion.EmotionThreshold >= 1 {
		return fmt.Errorf("companion.emotion_threshold must be in [0, 1), got %v", c.Companion.EmotionThreshold)
	}
	if c.Companion.ReminderInterval <= 0 {
		return fmt.Errorf("companion.reminder_interval must be positive, got %v", c.Companion.ReminderInterval)
	}
	return nil
}
