package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"gymdesk/internal/config"
	"gymdesk/internal/domain"
	"gymdesk/internal/handler"
	"gymdesk/internal/middleware"
	"gymdesk/internal/repository"
	"gymdesk/internal/service"
	"gymdesk/internal/telemetry"
)

const idempotencyTTL = 10 * time.Minute

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	Clock       domain.Clock
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories
	memberRepo := repository.NewMongoMemberRepository(deps.MongoDB)
	planRepo := repository.NewMongoPlanRepository(deps.MongoDB)
	paymentRepo := repository.NewMongoPaymentRepository(deps.MongoDB)
	equipmentRepo := repository.NewMongoEquipmentRepository(deps.MongoDB)
	gymRepo := repository.NewMongoGymRepository(deps.MongoDB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)

	var txRunner domain.TxRunner
	if deps.Config.MongoDB.UseTransactions {
		txRunner = repository.NewMongoTxRunner(deps.MongoClient)
	} else {
		txRunner = repository.SequentialTxRunner{}
	}

	// Initialize services
	reconcileService := service.NewReconcileService(memberRepo, deps.Clock)
	renewalService := service.NewRenewalService(memberRepo, planRepo, paymentRepo, txRunner, deps.Clock)
	analyticsService := service.NewAnalyticsService(memberRepo, planRepo, paymentRepo, cacheRepo, deps.Clock)
	gateway := service.NewPaymentGateway(service.GatewayConfig{
		KeyID:     deps.Config.Razorpay.KeyID,
		KeySecret: deps.Config.Razorpay.KeySecret,
		BaseURL:   deps.Config.Razorpay.BaseURL,
	})

	// Initialize handlers
	memberHandler := handler.NewMemberHandler(memberRepo, planRepo, renewalService, analyticsService, deps.Clock)
	planHandler := handler.NewPlanHandler(planRepo)
	paymentHandler := handler.NewPaymentHandler(paymentRepo, planRepo, gateway, renewalService, analyticsService)
	equipmentHandler := handler.NewEquipmentHandler(equipmentRepo)
	gymHandler := handler.NewGymHandler(gymRepo)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GymDesk API",
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	if deps.Config.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "gymdesk",
		})
	})

	// API v1 routes, all gym-scoped via JWT
	v1 := app.Group("/v1")
	v1.Use(middleware.VerifyGymToken(deps.Config.JWT.Secret))
	v1.Use(middleware.Idempotency(deps.RedisClient, idempotencyTTL))

	// Listing reads sit behind StatusRepair so stale Active statuses are
	// corrected before rendering. The renewal route must not: it is the
	// promotion path and guards itself with a version check.
	repair := middleware.StatusRepair(reconcileService)

	v1.Get("/gym", gymHandler.Profile)

	members := v1.Group("/members")
	members.Post("/", memberHandler.Register)
	members.Get("/", repair, memberHandler.List)
	members.Get("/search", repair, memberHandler.Search)
	members.Get("/monthly", repair, memberHandler.Monthly)
	members.Get("/expiring-in-week", repair, memberHandler.ExpiringInWeek)
	members.Get("/expired", repair, memberHandler.Expired)
	members.Get("/inactive", repair, memberHandler.Inactive)
	members.Get("/:id/payments", paymentHandler.ListByMember)
	members.Get("/:id", repair, memberHandler.Get)
	members.Post("/:id/status", memberHandler.SetStatus)
	members.Put("/:id/renew", memberHandler.Renew)
	members.Put("/:id", memberHandler.Update)

	plans := v1.Group("/plans")
	plans.Post("/", planHandler.Upsert)
	plans.Get("/", planHandler.List)

	payments := v1.Group("/payments")
	payments.Post("/orders", paymentHandler.CreateOrder)
	payments.Post("/verify", paymentHandler.Verify)
	payments.Get("/", paymentHandler.List)

	equipment := v1.Group("/equipment")
	equipment.Post("/", equipmentHandler.Create)
	equipment.Get("/", equipmentHandler.List)

	analytics := v1.Group("/analytics")
	analytics.Get("/plan-distribution", analyticsHandler.PlanDistribution)
	analytics.Get("/monthly-revenue", analyticsHandler.MonthlyRevenue)
	analytics.Get("/status-counts", analyticsHandler.StatusCounts)

	return app
}

// customErrorHandler renders unhandled errors as JSON
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
