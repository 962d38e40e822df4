// Package config loads service settings from an optional YAML file, a .env
// file and DEVLINKR_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	OTP          OTPConfig `mapstructure:"otp"`
	Realtime     RealtimeConfig
	Log          LogConfig
	Localization LocalizationConfig
}

type ServerConfig struct {
	Address        string
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwtSecret"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

type OTPConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Length   int
	Required bool
}

type RealtimeConfig struct {
	SendBuffer int `mapstructure:"sendBuffer"`
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

type LocalizationConfig struct {
	Lang string
}

var ErrMissingSecret = errors.New("auth.jwtSecret is not set")

// Load reads configuration. A missing config file or .env file is not an
// error. Callers that serve traffic should also call Validate.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", slog.Any("error", err))
	}

	v := viper.New()

	v.SetDefault("server.address", DefaultAddress)
	v.SetDefault("server.allowedOrigins", DefaultAllowedOrigins)
	v.SetDefault("database.dsn", "host=localhost user=devlinkr password=devlinkr dbname=devlinkr port=5432 sslmode=disable")
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", DefaultTokenTTL)
	v.SetDefault("otp.ttl", DefaultOTPTTL)
	v.SetDefault("otp.length", DefaultOTPLength)
	v.SetDefault("otp.required", true)
	v.SetDefault("realtime.sendBuffer", DefaultSendBuffer)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("localization.lang", DefaultLang)

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEVLINKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Info("config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("otp.length must be between 4 and 10, got %d", c.OTP.Length)
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("realtime.sendBuffer must be positive, got %d", c.Realtime.SendBuffer)
	}
	return nil
}
