package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"gymdesk/internal/config"
	"gymdesk/internal/domain"
	"gymdesk/internal/email"
	"gymdesk/internal/repository"
	"gymdesk/internal/scheduler"
	"gymdesk/internal/server"
	"gymdesk/internal/service"
	"gymdesk/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting GymDesk Service...")

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:  cfg.OTEL.ServiceName,
		OTLPEndpoint: cfg.OTEL.Endpoint,
		Enabled:      cfg.OTEL.Enabled,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize OpenTelemetry: %v", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			otelProvider.Shutdown(shutdownCtx)
		}()
	}

	// Connect to MongoDB with OpenTelemetry instrumentation
	ctxMongo, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("✓ MongoDB connected")

	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Redis connected")

	// Outbound mail; without SMTP config reminders go to the log
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
		log.Println("✓ SMTP notifier configured")
	} else {
		notifier = email.LogNotifier{}
		log.Println("✓ Email dry-run mode (no SMTP configured)")
	}

	clock := domain.SystemClock{}

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoClient: mongoClient,
		MongoDB:     mongoDB,
		RedisClient: redisClient,
		Clock:       clock,
	})

	// Daily expiry sweep
	var sched *scheduler.Scheduler
	if cfg.Sweep.Enabled {
		sweep := service.NewExpirySweep(
			repository.NewMongoMemberRepository(mongoDB),
			repository.NewMongoPlanRepository(mongoDB),
			notifier,
			clock,
		)
		sched = scheduler.New(sweep)
		if err := sched.Start(cfg.Sweep.Schedule); err != nil {
			log.Fatalf("Failed to start sweep scheduler: %v", err)
		}
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down gracefully...")
		if sched != nil {
			<-sched.Stop().Done()
		}
		app.Shutdown()
	}()

	// Start server
	log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
