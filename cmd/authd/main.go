// Command authd runs the authentication service over a Postgres database.
package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/robotics-press/bookauth"
	gormstore "github.com/robotics-press/bookauth/stores/gorm"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc, err := bookauth.New(gormstore.NewAccountStore(db), bookauth.Config{
		JWTSecret:              cfg.JWTSecret,
		JWTIssuer:              cfg.JWTIssuer,
		TokenExpiry:            cfg.TokenExpiry,
		BcryptCost:             cfg.BcryptCost,
		FrontendURL:            cfg.FrontendURL,
		GoogleClientID:         cfg.GoogleClientID,
		GoogleClientSecret:     cfg.GoogleClientSecret,
		GoogleCallbackURL:      cfg.GoogleCallbackURL,
		LoginAttemptsPerMinute: cfg.LoginAttemptsPerMinute,
		LoginBurst:             cfg.LoginBurst,
	})
	if err != nil {
		log.Fatalf("service: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      svc.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	slog.Info("starting auth service", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
