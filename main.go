// main.go
package main

import (
	"context"
	"log"

	"krishi-setu/cmd"
	"krishi-setu/internal/data/repository"
	"krishi-setu/internal/usecase"
	"krishi-setu/internal/wire"
	"krishi-setu/pkg/database"
	"krishi-setu/pkg/notify"
	"krishi-setu/pkg/token"
	"krishi-setu/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	hasher := utils.NewPasswordHasher(config.Security.BcryptCost)
	repos := repository.NewRepository(db, hasher, logger)

	tokens, err := token.NewSet(
		token.ClassConfig{Secret: config.Token.Access.Secret, TTL: config.Token.Access.Expiry},
		token.ClassConfig{Secret: config.Token.Refresh.Secret, TTL: config.Token.Refresh.Expiry},
		token.ClassConfig{Secret: config.Token.Verification.Secret, TTL: config.Token.Verification.Expiry},
	)
	if err != nil {
		logger.Fatal("Failed to init token issuers", zap.Error(err))
	}

	// Mail
	renderer, err := notify.NewRenderer(config.App.Name)
	if err != nil {
		logger.Fatal("Failed to parse mail templates", zap.Error(err))
	}
	sender, err := notify.NewSender(config.Email, logger)
	if err != nil {
		logger.Fatal("Failed to init mail sender", zap.Error(err))
	}
	logger.Info("Mail transport ready", zap.String("transport", sender.Name()))

	dispatcher := notify.NewDispatcher(renderer, sender, logger)
	background := notify.NewAsync(dispatcher, config.Email.Timeout, logger)

	// Wire all dependencies
	app := wire.Wiring(usecase.Deps{
		Repo:       repos,
		Tokens:     tokens,
		Notifier:   dispatcher,
		Background: background,
		Config:     config,
		Log:        logger,
	}, db)

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}

	// let queued mails finish before the pool closes
	background.Wait()
	logger.Info("Server stopped")
}
