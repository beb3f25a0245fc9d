package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Queue    QueueConfig
	Storage  StorageConfig
	Analysis AnalysisConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	StatusLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	TeamConfigPath     string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	OpenAI string
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "openai"
	LLMModel      string // e.g. "llama3", "gpt-4o-mini"
	VisionModel   string
	OllamaBaseURL string
	OpenAIBaseURL string
	MaxRetries    int
}

type QueueConfig struct {
	Driver        string // "channel" (watermill gochannel) or "nats"
	AnalysisTopic string
	Workers       int
}

type StorageConfig struct {
	Driver       string // "local" or "gcs"
	LocalRoot    string
	GCSBucket    string
	GCSCredsPath string
}

type AnalysisConfig struct {
	ExtractorURL  string
	PDFServiceURL string
	StatusTTL     time.Duration
	MaxFileBytes  int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			StatusLogFilePath:  getEnv("STATUS_LOG_FILE_PATH", "logs/status.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			TeamConfigPath:     getEnv("TEAM_CONFIG_PATH", "configs/teams.yaml"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Legal Intake"),
		},
		Keys: APIKeys{
			OpenAI: getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			VisionModel:   getEnv("LLM_VISION_MODEL", "llava"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			MaxRetries:    getEnvAsInt("LLM_MAX_RETRIES", 3),
		},
		Queue: QueueConfig{
			Driver:        getEnv("QUEUE_DRIVER", "channel"),
			AnalysisTopic: getEnv("ANALYSIS_TOPIC_NAME", "ANALYZE_DOCUMENT"),
			Workers:       getEnvAsInt("ANALYSIS_WORKERS", 4),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "local"),
			LocalRoot:    getEnv("STORAGE_LOCAL_ROOT", "./uploads"),
			GCSBucket:    getEnv("GCS_BUCKET", ""),
			GCSCredsPath: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Analysis: AnalysisConfig{
			ExtractorURL:  getEnv("EXTRACTOR_URL", ""),
			PDFServiceURL: getEnv("PDF_SERVICE_URL", ""),
			StatusTTL:     getEnvAsDuration("STATUS_TTL", 24*time.Hour),
			MaxFileBytes:  int64(getEnvAsInt("ANALYSIS_MAX_FILE_BYTES", 10*1024*1024)),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
