package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "LIVECALL_"

// Config is read from LIVECALL_* variables, e.g. LIVECALL_BASE_URL.
// The database is optional; leaving DBHost empty disables call history.
type Config struct {
	LogLevel string        `koanf:"log_level" validate:"required,oneof=trace debug info warn warning error"`
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	Paths    []string      `koanf:"paths" validate:"dive,required"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`
	HTTPAddr string        `koanf:"http_addr"`

	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port" validate:"required_with=DBHost"`
	DBUser     string `koanf:"db_user" validate:"required_with=DBHost"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name" validate:"required_with=DBHost"`
}

var defaultConfig = Config{
	LogLevel: "info",
	BaseURL:  "https://api.github.com",
	Paths:    []string{"/zen"},
	Timeout:  10 * time.Second,
	HTTPAddr: "0.0.0.0:8000",
	DBPort:   "5432",
}

// Load reads envFile into the process environment when it exists, then
// binds LIVECALL_* variables over the defaults and validates the result.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "paths" {
			return key, splitAndTrim(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := defaultConfig
	cfg.Paths = append([]string(nil), defaultConfig.Paths...)
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, describe(err)
	}
	return cfg, nil
}

func (c Config) HistoryEnabled() bool {
	return c.DBHost != ""
}

func describe(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:")
	for _, e := range errs {
		sb.WriteString(fmt.Sprintf(" %s failed '%s' (value: %v);", e.Field(), e.Tag(), e.Value()))
	}
	return errors.New(sb.String())
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
