package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "TRAIL"

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst       int           `mapstructure:"rate_burst" validate:"gte=0"`
	StaticDir       string        `mapstructure:"static_dir"`
}

type SourceConfig struct {
	Locator string        `mapstructure:"locator" validate:"required"`
	Format  string        `mapstructure:"format" validate:"required,oneof=csv gtfsrt siri-json siri-xml"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Columns CSVColumns    `mapstructure:"columns"`
}

type CacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Size int           `mapstructure:"size" validate:"gte=0"`
}

// RedisConfig enables the shared payload tier when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type RefreshConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" validate:"gte=0"`
}

type MapConfig struct {
	Style string `mapstructure:"style"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Source  SourceConfig  `mapstructure:"source"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Map     MapConfig     `mapstructure:"map"`
	Log     LogConfig     `mapstructure:"log"`
}

func (c Config) FeedSource() Source {
	return Source{Locator: c.Source.Locator, Format: Format(c.Source.Format)}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.static_dir", "./static")

	v.SetDefault("source.locator", "https://data.calgary.ca/resource/jkyn-p9x4.csv")
	v.SetDefault("source.format", string(FormatCSV))
	v.SetDefault("source.timeout", "10s")
	v.SetDefault("source.columns.vehicle_id", DefaultCSVColumns.VehicleID)
	v.SetDefault("source.columns.latitude", DefaultCSVColumns.Latitude)
	v.SetDefault("source.columns.longitude", DefaultCSVColumns.Longitude)
	v.SetDefault("source.columns.timestamp", DefaultCSVColumns.Timestamp)

	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.size", 8)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("refresh.min_interval", "0s")

	v.SetDefault("map.style", defaultMapStyle)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads defaults, then the optional YAML file at path, then
// TRAIL_* environment overrides (TRAIL_SOURCE_LOCATOR, TRAIL_CACHE_TTL, ...).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
