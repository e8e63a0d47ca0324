package main

import (
	"context"
	"log"

	api "avencrm-mailer/cmd/api"
	authdomain "avencrm-mailer/internal/auth/domain"
	authRepo "avencrm-mailer/internal/auth/repository"
	authUsecase "avencrm-mailer/internal/auth/usecase"
	campaigndomain "avencrm-mailer/internal/campaign/domain"
	campaignRepo "avencrm-mailer/internal/campaign/repository"
	campaignUsecase "avencrm-mailer/internal/campaign/usecase"
	"avencrm-mailer/internal/campaign/worker"
	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	accountRepo "avencrm-mailer/internal/mailaccount/repository"
	accountUsecase "avencrm-mailer/internal/mailaccount/usecase"
	recipientdomain "avencrm-mailer/internal/recipient/domain"
	recipientRepo "avencrm-mailer/internal/recipient/repository"
	recipientUsecase "avencrm-mailer/internal/recipient/usecase"
	"avencrm-mailer/pkg/config"
	"avencrm-mailer/pkg/database"
	"avencrm-mailer/pkg/mailer"
	"avencrm-mailer/pkg/queue"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.Company{},
		&authdomain.RefreshToken{},
		&accountdomain.MailAccount{},
		&recipientdomain.Recipient{},
		&campaigndomain.Campaign{},
		&campaigndomain.CampaignDelivery{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	accountRepository := accountRepo.NewAccountRepository(db)
	recipientRepository := recipientRepo.NewRecipientRepository(db)
	campaignRepository := campaignRepo.NewCampaignRepository(db)

	// Initialize mail provider registry
	providers, err := mailer.NewRegistry(mailer.Config{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleRedirectURI:  cfg.GoogleRedirectURI,
	})
	if err != nil {
		log.Fatal("Failed to initialize mail providers:", err)
	}

	// Initialize the delivery queue and its worker pool
	deliveryQueue := queue.New()
	deliveryWorker := worker.NewDeliveryWorker(campaignRepository, recipientRepository, accountRepository, userRepository, providers)
	deliveryWorker.Register(deliveryQueue)
	deliveryQueue.Start(context.Background(), cfg.QueueWorkers)
	defer deliveryQueue.Stop()
	log.Printf("Delivery queue started with %d workers", cfg.QueueWorkers)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepository, cfg)
	accountUsecaseInstance := accountUsecase.NewAccountUsecase(accountRepository, providers)
	recipientUsecaseInstance := recipientUsecase.NewRecipientUsecase(recipientRepository)
	campaignUsecaseInstance := campaignUsecase.NewCampaignUsecase(campaignRepository, recipientRepository, accountRepository, userRepository, deliveryQueue)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, accountUsecaseInstance, recipientUsecaseInstance, campaignUsecaseInstance)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
