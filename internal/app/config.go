package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casepulse/casepulse-backend/internal/platform/envutil"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// Config carries the knobs that aren't simple service-local env vars.
// A YAML file (CONFIG_FILE) seeds the values; env vars win over the file.
type Config struct {
	HTTPAddr     string `yaml:"http_addr"`
	JWTSecretKey string `yaml:"jwt_secret_key"`
	ServiceName  string `yaml:"service_name"`
	Environment  string `yaml:"environment"`
	Version      string `yaml:"version"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		HTTPAddr:    ":8080",
		ServiceName: "casepulse",
		Environment: "development",
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Config file unreadable, using env only", "path", path, "error", err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Warn("Config file invalid, using env only", "path", path, "error", err)
		}
	}

	cfg.HTTPAddr = envutil.GetEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTSecretKey = envutil.GetEnv("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.ServiceName = envutil.GetEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.Environment = envutil.GetEnv("APP_ENV", cfg.Environment)
	cfg.Version = envutil.GetEnv("APP_VERSION", cfg.Version)
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("missing JWT_SECRET_KEY")
	}
	return nil
}
