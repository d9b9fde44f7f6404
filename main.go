package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathakanu/medMinder/internal/auth"
	"github.com/pathakanu/medMinder/internal/bot"
	"github.com/pathakanu/medMinder/internal/config"
	"github.com/pathakanu/medMinder/internal/database"
	"github.com/pathakanu/medMinder/internal/delivery"
	"github.com/pathakanu/medMinder/internal/dialog"
	myopenai "github.com/pathakanu/medMinder/internal/openai"
	"github.com/pathakanu/medMinder/internal/storage"
	"github.com/pathakanu/medMinder/internal/twilio"
)

func main() {
	logger := log.New(os.Stdout, "[medMinder] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database init failed: %v", err)
	}

	store := storage.New(db, logger)
	openAIClient := myopenai.New(cfg.OpenAIAPIKey)
	twilioClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken,
		cfg.TwilioWhatsAppNumber, cfg.NotifyTimeout, logger)
	allowList := auth.Load(cfg.AllowedUsers, cfg.AllowedUsersPath, logger)

	engine := dialog.NewEngine(store, openAIClient, logger)
	reminders := delivery.New(cfg, store, twilioClient, logger)
	if err := reminders.Start(); err != nil {
		logger.Fatalf("delivery start: %v", err)
	}

	webhook := bot.New(engine, allowList, logger)
	http.Handle("/twilio/webhook", webhook.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: nil,
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(server, reminders, logger)
}

func waitForShutdown(server *http.Server, reminders *delivery.Engine, logger *log.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	reminders.Stop()
}
