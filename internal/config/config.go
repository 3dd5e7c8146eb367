package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Gate backend selectors.
const (
	GateBackendMemory = "memory"
	GateBackendSQL    = "sql"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gate       GateConfig
	Classifier ClassifierConfig
	Pipeline   PipelineConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// GateConfig tunes the per-client admission gate. Limit and TTL are
// caller-supplied knobs, never hard-coded in the gate itself.
type GateConfig struct {
	Backend       string
	Limit         int
	TTL           time.Duration
	SweepInterval time.Duration
}

// ClassifierConfig tunes the external-model stage.
type ClassifierConfig struct {
	Enabled           bool
	Model             string
	BatchSize         int
	MaxConcurrent     int
	RequestsPerSecond float64
	Timeout           time.Duration
}

type PipelineConfig struct {
	// Workers bounds concurrent per-transaction categorization.
	Workers int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			Environment:  getEnv("APP_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "bankfeed_user"),
			Password:        getEnv("DB_PASSWORD", "bankfeed_password"),
			Name:            getEnv("DB_NAME", "bankfeed_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Gate: GateConfig{
			Backend:       getEnv("GATE_BACKEND", GateBackendMemory),
			Limit:         getIntEnv("GATE_LIMIT", 2),
			TTL:           getDurationEnv("GATE_TTL", 5*time.Minute),
			SweepInterval: getDurationEnv("GATE_SWEEP_INTERVAL", time.Minute),
		},
		Classifier: ClassifierConfig{
			Enabled:           getBoolEnv("CLASSIFIER_ENABLED", false),
			Model:             getEnv("CLASSIFIER_MODEL", "gemini-2.0-flash"),
			BatchSize:         getIntEnv("CLASSIFIER_BATCH_SIZE", 50),
			MaxConcurrent:     getIntEnv("CLASSIFIER_MAX_CONCURRENT", 4),
			RequestsPerSecond: getFloatEnv("CLASSIFIER_RPS", 2),
			Timeout:           getDurationEnv("CLASSIFIER_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers: getIntEnv("PIPELINE_WORKERS", 8),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
