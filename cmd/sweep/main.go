package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gymdesk/internal/config"
	"gymdesk/internal/domain"
	"gymdesk/internal/email"
	"gymdesk/internal/repository"
	"gymdesk/internal/service"
)

// One-shot expiry sweep, for cron outside the process or manual reruns.
// Reruns are safe: demotion is conditional and reminders are at-least-once.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}

	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	var notifier domain.Notifier
	if cfg.SMTP.Host != "" {
		notifier = email.NewSMTPNotifier(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		})
	} else {
		notifier = email.LogNotifier{}
	}

	sweep := service.NewExpirySweep(
		repository.NewMongoMemberRepository(mongoDB),
		repository.NewMongoPlanRepository(mongoDB),
		notifier,
		domain.SystemClock{},
	)

	report, err := sweep.Run(ctx)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("Sweep done: demoted=%d today=%d week=%d failures=%d",
		report.Demoted, report.NotifiedToday, report.NotifiedWeek, report.SendFailures)
}
