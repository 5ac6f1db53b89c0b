package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	AppName  string `env:"APP_NAME,default=flockd"`
	Env      string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	Host     string `env:"HTTP_HOST,default=0.0.0.0"`
	Port     int    `env:"HTTP_PORT,default=8000"`

	TokenSecret string `env:"TOKEN_SECRET"`

	UploadDir   string   `env:"UPLOAD_DIR,default=uploads"`
	CORSOrigins []string `env:"CORS_ORIGINS,default=http://localhost:3000,http://localhost:5173"`

	// SMTP settings for the password-reset mail gateway. When SMTPHost is
	// empty the server falls back to logging reset tickets instead.
	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT,default=587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM,default=no-reply@flockd.local"`
}

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}

	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
