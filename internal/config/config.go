package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	AI       AIConfig       `mapstructure:"ai"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects the persistent store backing every collection.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory, gorm, redis
	Seed   bool   `mapstructure:"seed"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"` // mysql, postgres, sqlite
	DSN        string `mapstructure:"dsn"`
	MaxRetries int    `mapstructure:"max_retries"`
	LogLevel   string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret                 string        `mapstructure:"jwt_secret"`
	TokenTTL                  time.Duration `mapstructure:"token_ttl"`
	RecheckInterval           time.Duration `mapstructure:"recheck_interval"`
	UnauthorizedRedirectDelay time.Duration `mapstructure:"unauthorized_redirect_delay"`
}

type OrdersConfig struct {
	// StrictTransitions rejects anything but the single forward status step.
	StrictTransitions bool `mapstructure:"strict_transitions"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Buckets   []float64 `mapstructure:"buckets"`
}

type AIConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}

// Load reads config.yaml (optional) from ./configs or the working directory,
// then applies ERP_* environment overrides and the legacy variable names.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVariables(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// placeholderJWTSecret lets a debug server start without setup. Validate
// refuses it in release mode.
const placeholderJWTSecret = "change-me-erp-demo-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("store.driver", "gorm")
	v.SetDefault("store.seed", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/erp.db")
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")

	v.SetDefault("auth.jwt_secret", placeholderJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.recheck_interval", 5*time.Second)
	v.SetDefault("auth.unauthorized_redirect_delay", 5*time.Second)

	v.SetDefault("orders.strict_transitions", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "./logs/erp.log")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "erp")
	v.SetDefault("metrics.buckets", []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})

	v.SetDefault("ai.model", "gemini-2.0-flash-001")
}

// bindEnvVariables keeps the variable names older deployments already export.
func bindEnvVariables(v *viper.Viper) error {
	legacy := map[string]string{
		"database.dsn":      "DB_DSN",
		"ai.gemini_api_key": "GEMINI_API_KEY",
		"server.base_url":   "BASE_URL",
		"auth.jwt_secret":   "JWT_SECRET",
		"redis.addr":        "REDIS_ADDR",
		"server.mode":       "GIN_MODE",
	}
	for key, env := range legacy {
		if err := v.BindEnv(key, "ERP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis":
	case "gorm":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn (DB_DSN) is required for the gorm store")
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Server.Mode == "release" && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == placeholderJWTSecret) {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) must be set in release mode")
	}
	return nil
}
