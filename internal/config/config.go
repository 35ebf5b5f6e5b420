package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Storage    StorageConfig
	Session    SessionConfig
	Redis      RedisConfig
	Calculator CalculatorConfig
	Upload     UploadConfig
	Log        LogConfig
	Tracing    TracingConfig   `mapstructure:"tracing"`
	CORS       CORSConfig      `mapstructure:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（通过命令行参数设置）
	ConfigFile  string `mapstructure:"-"`
	MigrateOnly bool   `mapstructure:"-"`
	ResetDemo   bool   `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests    int `mapstructure:"max_requests"`
	WindowMinutes  int `mapstructure:"window_minutes"`
	LoginPerMinute int `mapstructure:"login_per_minute"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string `mapstructure:"dbname"`
	Charset    string
	ParseTime  bool   `mapstructure:"parse_time"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// AdminConfig holds the single configured administrator credential.
// PasswordHash is a bcrypt hash; Password is accepted only outside release mode.
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	Password     string `mapstructure:"password"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type SessionConfig struct {
	Store    string        `mapstructure:"store"`
	TTLHours time.Duration `mapstructure:"ttl_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CalculatorConfig struct {
	Densities map[string]float64 `mapstructure:"densities"`
	// StateNames 地区显示名，viper 读取 map 时键会变成小写
	StateNames      []string `mapstructure:"state_names"`
	GerminationRate float64  `mapstructure:"germination_rate"`
	SeedsPerPacket  float64  `mapstructure:"seeds_per_packet"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.sqlite_path", "agri_training.db")

	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("admin.username", "admin")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "training_materials")

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl_hours", 12)

	v.SetDefault("calculator.densities", map[string]float64{"regiona": 14000, "regionb": 7400})
	v.SetDefault("calculator.state_names", []string{"regionA", "regionB"})
	v.SetDefault("calculator.germination_rate", 0.90)
	v.SetDefault("calculator.seeds_per_packet", 7500)

	v.SetDefault("upload.max_bytes", 512<<20)

	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.login_per_minute", 10)
}

// LoadConfig reads config.yaml from the directory path, or path itself when it
// names a file, layering a .env file and the process environment on top of it.
func LoadConfig(path string) (*Config, error) {
	// .env 文件可选，不存在时直接使用系统环境变量
	_ = godotenv.Load()

	v := viper.New()
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(path)
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix("AGRI_TRAINING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Admin
	v.BindEnv("admin.username", "ADMIN_USERNAME")
	v.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Session.TTLHours = cfg.Session.TTLHours * time.Hour

	// viper 会把 map 键转成小写，这里统一一次
	densities := make(map[string]float64, len(cfg.Calculator.Densities))
	for k, v := range cfg.Calculator.Densities {
		densities[strings.ToLower(k)] = v
	}
	cfg.Calculator.Densities = densities

	if cfg.Server.Mode == "release" {
		if len(cfg.JWT.Secret) < 32 {
			return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
		}
		if cfg.Admin.PasswordHash == "" {
			return fmt.Errorf("admin.password_hash is required in release mode")
		}
		if cfg.Admin.Password != "" {
			return fmt.Errorf("admin.password must not be set in release mode, use admin.password_hash")
		}
	}
	if cfg.Admin.PasswordHash == "" && cfg.Admin.Password == "" {
		return fmt.Errorf("admin credential missing: set admin.password_hash")
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.Storage.LocalPath, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}
