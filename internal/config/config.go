package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Backend  BackendConfig
	Server   ServerConfig
	Log      LogConfig
	Mirror   MirrorConfig
	S3       S3Config
	Qdrant   QdrantConfig
	Temporal TemporalConfig
}

type BackendConfig struct {
	BaseURL string
	APIKey  string
	// TokenCommand, when set, prints short-lived tokens used instead of APIKey.
	TokenCommand string
	Timeout      time.Duration
}

type ServerConfig struct {
	Host string
	Port int
	Mode string
}

type LogConfig struct {
	Level string
}

// MirrorConfig selects the database holding the local snapshot of backend
// resources. Driver is "postgres" or "sqlite".
type MirrorConfig struct {
	Driver   string
	DSN      string
	PageSize int
}

type S3Config struct {
	Region       string
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
}

type TemporalConfig struct {
	Host      string
	Port      int
	Namespace string
	TaskQueue string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL:      strings.TrimRight(getEnv("KB_BASE_URL", "http://localhost:3000"), "/"),
			APIKey:       getEnv("KB_API_KEY", ""),
			TokenCommand: getEnv("KB_TOKEN_COMMAND", ""),
			Timeout:      getEnvAsDuration("KB_TIMEOUT", 60*time.Second),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Mode: getEnv("GIN_MODE", "debug"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Mirror: MirrorConfig{
			Driver:   getEnv("MIRROR_DRIVER", "sqlite"),
			DSN:      getEnv("MIRROR_DSN", "file:kb-mirror.db?_pragma=busy_timeout(5000)"),
			PageSize: getEnvAsInt("MIRROR_PAGE_SIZE", 100),
		},
		S3: S3Config{
			Region:       getEnv("S3_REGION", "us-east-1"),
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			Bucket:       getEnv("S3_BUCKET", ""),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			UsePathStyle: getEnvAsBool("S3_USE_PATH_STYLE", false),
		},
		Qdrant: QdrantConfig{
			Host:       getEnv("QDRANT_HOST", "localhost"),
			Port:       getEnvAsInt("QDRANT_PORT", 6334),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "documents"),
		},
		Temporal: TemporalConfig{
			Host:      getEnv("TEMPORAL_HOST", "localhost"),
			Port:      getEnvAsInt("TEMPORAL_PORT", 7233),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			TaskQueue: getEnv("TEMPORAL_TASK_QUEUE", "kb-mirror-sync"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
