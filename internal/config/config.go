package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the application configuration, loaded from the environment.
type Config struct {
	Port         string `env:"PORT,          default=8080"`
	DBPath       string `env:"DB_PATH,       default=profiles.db"`
	TemplateDir  string `env:"TEMPLATE_DIR,  default=web/templates"`
	StaticDir    string `env:"STATIC_DIR,    default=web/static"`
	UploadDir    string `env:"UPLOAD_DIR,    default=web/static/uploads"`
	SecureCookie bool   `env:"SECURE_COOKIE, default=false"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
