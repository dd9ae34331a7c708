package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
	State     StateConfig     `mapstructure:"state" yaml:"state"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Upload    UploadConfig    `mapstructure:"upload" yaml:"upload"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Set from command line flags, not from the config file.
	ForceMigrate bool `mapstructure:"-" yaml:"-"`
	MigrateOnly  bool `mapstructure:"-" yaml:"-"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// AIConfig describes the OpenAI-compatible chat completion endpoint.
// An empty APIKey is a valid configuration: generation then reports ErrAIKeyMissing.
type AIConfig struct {
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	Model           string `mapstructure:"model" yaml:"model"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxContextChars int    `mapstructure:"max_context_chars" yaml:"max_context_chars"`
}

// StateConfig selects where the answer set and corpus are persisted.
type StateConfig struct {
	Backend   string `mapstructure:"backend" yaml:"backend"` // file, redis, database, memory
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	FileDir   string `mapstructure:"file_dir" yaml:"file_dir"`
}

type DatabaseConfig struct {
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	User      string `mapstructure:"user" yaml:"user"`
	Password  string `mapstructure:"password" yaml:"password"`
	DBName    string `mapstructure:"dbname" yaml:"dbname"`
	Charset   string `mapstructure:"charset" yaml:"charset"`
	ParseTime bool   `mapstructure:"parsetime" yaml:"parsetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// StorageConfig is where published export artifacts go.
type StorageConfig struct {
	Type          string `mapstructure:"type" yaml:"type"`
	LocalPath     string `mapstructure:"local_path" yaml:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint" yaml:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key" yaml:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key" yaml:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket" yaml:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl" yaml:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint" yaml:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key" yaml:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key" yaml:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket" yaml:"oss_bucket"`
}

type UploadConfig struct {
	MaxFileMB int `mapstructure:"max_file_mb" yaml:"max_file_mb"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint" yaml:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests" yaml:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes" yaml:"window_minutes"`
}

const (
	StateBackendFile     = "file"
	StateBackendRedis    = "redis"
	StateBackendDatabase = "database"
	StateBackendMemory   = "memory"
)

// DefaultMaxContextChars bounds the corpus prefix sent with each question.
const DefaultMaxContextChars = 120000

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-5")
	v.SetDefault("ai.timeout_seconds", 180)
	v.SetDefault("ai.max_context_chars", DefaultMaxContextChars)

	v.SetDefault("state.backend", StateBackendFile)
	v.SetDefault("state.namespace", "qdrt")
	v.SetDefault("state.file_dir", "data/state")

	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("upload.max_file_mb", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// ApplyDefaults fills zero values for configs that were not loaded through viper.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com/v1"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-5"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 180
	}
	if c.AI.MaxContextChars <= 0 {
		c.AI.MaxContextChars = DefaultMaxContextChars
	}
	if c.State.Backend == "" {
		c.State.Backend = StateBackendFile
	}
	if c.State.Namespace == "" {
		c.State.Namespace = "qdrt"
	}
	if c.State.FileDir == "" {
		c.State.FileDir = "data/state"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.LocalPath == "" {
		c.Storage.LocalPath = "uploads"
	}
	if c.Upload.MaxFileMB <= 0 {
		c.Upload.MaxFileMB = 20
	}
	if c.Log.File == "" {
		c.Log.File = "logs/app.log"
	}
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("QDRT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// State
	v.BindEnv("state.backend", "STATE_BACKEND")
	v.BindEnv("state.file_dir", "STATE_FILE_DIR")

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.State.Backend == StateBackendFile {
		if _, err := os.Stat(cfg.State.FileDir); os.IsNotExist(err) {
			os.MkdirAll(cfg.State.FileDir, 0755)
		}
	}
	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.State.Backend {
	case StateBackendFile, StateBackendRedis, StateBackendDatabase, StateBackendMemory:
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	if c.AI.MaxContextChars <= 0 {
		return fmt.Errorf("ai.max_context_chars must be positive, got %d", c.AI.MaxContextChars)
	}
	return nil
}
