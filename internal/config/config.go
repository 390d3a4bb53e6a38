package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StrategyAI      = "ai"
	StrategyBackend = "backend"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Backend  BackendConfig
	Storage  StorageConfig
	Progress ProgressConfig
	History  HistoryConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type AnalysisConfig struct {
	Strategy            string
	Provider            string
	Timeout             time.Duration
	InlineVideoMaxBytes int64
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type BackendConfig struct {
	URL string
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type ProgressConfig struct {
	Initial  int
	Ceiling  int
	Interval time.Duration
}

type HistoryConfig struct {
	Enabled bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rallycoach"),
		},
		Analysis: AnalysisConfig{
			Strategy:            strings.ToLower(getEnv("ANALYSIS_STRATEGY", StrategyAI)),
			Provider:            strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini)),
			Timeout:             getEnvAsDuration("ANALYSIS_TIMEOUT", "5m"),
			InlineVideoMaxBytes: getEnvAsInt64("INLINE_VIDEO_MAX_BYTES", 20971520),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Backend: BackendConfig{
			URL: strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 209715200),
		},
		Progress: ProgressConfig{
			Initial:  getEnvAsInt("PROGRESS_INITIAL", 15),
			Ceiling:  getEnvAsInt("PROGRESS_CEILING", 90),
			Interval: getEnvAsDuration("PROGRESS_INTERVAL", "1200ms"),
		},
		History: HistoryConfig{
			Enabled: getEnvAsBool("HISTORY_ENABLED", false),
		},
	}
}

// Validate reports settings that would make the service unusable at startup.
func (c *Config) Validate() error {
	switch c.Analysis.Strategy {
	case StrategyAI, StrategyBackend:
	default:
		return fmt.Errorf("unknown ANALYSIS_STRATEGY %q", c.Analysis.Strategy)
	}

	switch c.Analysis.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.Analysis.Provider)
	}

	if c.Progress.Initial < 0 || c.Progress.Ceiling >= 100 || c.Progress.Initial > c.Progress.Ceiling {
		return fmt.Errorf("progress bounds must satisfy 0 <= initial <= ceiling < 100, got %d/%d",
			c.Progress.Initial, c.Progress.Ceiling)
	}

	if c.Progress.Interval <= 0 {
		return fmt.Errorf("PROGRESS_INTERVAL must be positive")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
