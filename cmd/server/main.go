package main // Entry point package

import (
	"context" // Context for startup DB work
	"log"     // Logging library
	"time"    // Timeouts for startup DB work

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/raffle-ticket-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/raffle-ticket-reservation/internal/database"   // MySQL connection, schema and seed
	"github.com/iliyamo/raffle-ticket-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/raffle-ticket-reservation/internal/middleware" // Rate limiting middleware
	"github.com/iliyamo/raffle-ticket-reservation/internal/queue"      // RabbitMQ consumer
	"github.com/iliyamo/raffle-ticket-reservation/internal/repository" // DB repositories
	"github.com/iliyamo/raffle-ticket-reservation/internal/router"     // Route registration
	"github.com/iliyamo/raffle-ticket-reservation/internal/service"    // Business logic services
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Connect to MySQL, create tables and seed the 10,000-ticket
	// inventory.  The seed is idempotent so restarts are safe.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}
	if err := database.SeedTickets(ctx, db); err != nil {
		cancel()
		log.Fatalf("seed tickets: %v", err)
	}
	cancel()

	// Redis backs the aggregate cache and the rate limiter.  Both
	// degrade gracefully when the client is nil.
	rdb := config.NewRedisClient()

	// Consume reservation.created events in the background.  The
	// consumer reconnects on its own; a missing broker only disables
	// the audit log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	// Repositories
	ticketRepo := repository.NewTicketRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	userRepo := repository.NewUserRepo(db)

	// Services
	alloc := service.NewAllocationService(ticketRepo, reservationRepo, service.NewRand(), cfg.TicketPriceCents)
	inventory := service.NewInventoryService(ticketRepo, rdb, config.LoadAggregateCacheConfig())
	reconcile := service.NewReconcileService(ticketRepo, reservationRepo)

	// Handlers
	inventoryHandler := handler.NewInventoryHandler(inventory)
	reservationHandler := handler.NewReservationHandler(alloc, inventory, reservationRepo, cfg.StorePhone)
	adminHandler := handler.NewAdminHandler(reservationRepo, reconcile, inventory)
	authHandler := handler.NewAuthHandler(cfg, userRepo)

	e := echo.New()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, inventoryHandler, reservationHandler, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
