package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Tail     TailConfig     `mapstructure:"tail"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	ReadOnly bool   `mapstructure:"read_only"`
}

type AuthConfig struct {
	AdminKey string `mapstructure:"admin_key"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // file | redis | postgres | memory
	Key     string `mapstructure:"key"`
	Dir     string `mapstructure:"dir"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type IngestConfig struct {
	RatePerSecond  float64       `mapstructure:"rate_per_second"` // 0 disables the limiter
	Burst          int           `mapstructure:"burst"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type TailConfig struct {
	Buffer int `mapstructure:"buffer"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_only", false)
	v.SetDefault("auth.admin_key", "")
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.key", "applog")
	v.SetDefault("store.dir", "./data")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "logkeep:")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("ingest.rate_per_second", 50)
	v.SetDefault("ingest.burst", 100)
	v.SetDefault("ingest.idempotency_ttl", "24h")
	v.SetDefault("tail.buffer", 64)
}

// Load reads config.yaml from . or ./configs (or the explicit file when
// path is set) and overlays LOGKEEP_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Environment variables support
	// e.g. LOGKEEP_STORE_BACKEND=redis
	v.SetEnvPrefix("logkeep")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
