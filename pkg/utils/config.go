package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Token    TokenConfig
	Security SecurityConfig
	Email    EmailConfig
}

type AppConfig struct {
	Name       string
	Port       string
	Debug      bool
	LogPath    string
	BaseURL    string
	CORSOrigin string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

// TokenClassConfig is the signing secret and lifetime of one token class.
type TokenClassConfig struct {
	Secret string
	Expiry time.Duration
}

type TokenConfig struct {
	Access       TokenClassConfig
	Refresh      TokenClassConfig
	Verification TokenClassConfig
}

type SecurityConfig struct {
	BcryptCost            int
	DefaultPasswordPrefix string
	CookieSecure          bool
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// LoadConfig reads .env from the working directory (optional) and the process environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(".env")
}

func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "Krishi-Setu")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("ACCESS_TOKEN_EXPIRY", "15m")
	v.SetDefault("REFRESH_TOKEN_EXPIRY", "240h")
	v.SetDefault("VERIFICATION_TOKEN_EXPIRY", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("DEFAULT_PASSWORD_PREFIX", "KRISHI@")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_TIMEOUT", "10s")

	if err := v.ReadInConfig(); err != nil {
		// .env is a convenience for local runs; deployments use the environment
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:       v.GetString("APP_NAME"),
			Port:       v.GetString("PORT"),
			Debug:      v.GetBool("DEBUG"),
			LogPath:    v.GetString("LOG_PATH"),
			BaseURL:    v.GetString("BASE_URL"),
			CORSOrigin: v.GetString("CORS_ORIGIN"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Token: TokenConfig{
			Access: TokenClassConfig{
				Secret: v.GetString("ACCESS_TOKEN_SECRET"),
				Expiry: v.GetDuration("ACCESS_TOKEN_EXPIRY"),
			},
			Refresh: TokenClassConfig{
				Secret: v.GetString("REFRESH_TOKEN_SECRET"),
				Expiry: v.GetDuration("REFRESH_TOKEN_EXPIRY"),
			},
			Verification: TokenClassConfig{
				Secret: v.GetString("VERIFICATION_TOKEN_SECRET"),
				Expiry: v.GetDuration("VERIFICATION_TOKEN_EXPIRY"),
			},
		},
		Security: SecurityConfig{
			BcryptCost:            v.GetInt("BCRYPT_COST"),
			DefaultPasswordPrefix: v.GetString("DEFAULT_PASSWORD_PREFIX"),
			CookieSecure:          v.GetBool("COOKIE_SECURE"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("SENDER_EMAIL"),
			Timeout:  v.GetDuration("MAIL_TIMEOUT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	classes := map[string]TokenClassConfig{
		"ACCESS_TOKEN":       c.Token.Access,
		"REFRESH_TOKEN":      c.Token.Refresh,
		"VERIFICATION_TOKEN": c.Token.Verification,
	}
	for name, class := range classes {
		if class.Secret == "" {
			return fmt.Errorf("%s_SECRET is required", name)
		}
		if class.Expiry <= 0 {
			return fmt.Errorf("%s_EXPIRY must be positive", name)
		}
	}

	if c.Token.Access.Secret == c.Token.Refresh.Secret ||
		c.Token.Access.Secret == c.Token.Verification.Secret ||
		c.Token.Refresh.Secret == c.Token.Verification.Secret {
		return errors.New("token secrets must differ per token class")
	}

	if c.Security.DefaultPasswordPrefix == "" {
		return errors.New("DEFAULT_PASSWORD_PREFIX is required")
	}

	return nil
}
