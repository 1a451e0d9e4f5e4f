package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr        string
	DatabaseURL string

	JWTSecret   string
	JWTIssuer   string
	TokenExpiry time.Duration
	BcryptCost  int

	FrontendURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	LoginAttemptsPerMinute float64
	LoginBurst             int
}

// LoadConfig reads configuration from the environment, with .env as a
// convenience for local development.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("JWT_ISSUER", "bookauth")
	v.SetDefault("TOKEN_EXPIRY", "720h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("FRONTEND_URL", "/")
	v.SetDefault("LOGIN_ATTEMPTS_PER_MINUTE", 10.0)
	v.SetDefault("LOGIN_BURST", 5)

	cfg := &Config{
		Addr:                   v.GetString("ADDR"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTIssuer:              v.GetString("JWT_ISSUER"),
		TokenExpiry:            v.GetDuration("TOKEN_EXPIRY"),
		BcryptCost:             v.GetInt("BCRYPT_COST"),
		FrontendURL:            v.GetString("FRONTEND_URL"),
		GoogleClientID:         v.GetString("OAUTH2_GOOGLE_CLIENT_ID"),
		GoogleClientSecret:     v.GetString("OAUTH2_GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:      v.GetString("OAUTH2_GOOGLE_CALLBACK_URL"),
		LoginAttemptsPerMinute: v.GetFloat64("LOGIN_ATTEMPTS_PER_MINUTE"),
		LoginBurst:             v.GetInt("LOGIN_BURST"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set; refusing to sign tokens with an empty secret")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	return nil
}
