package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/lifeline-dev/lifeline/db"
	"github.com/lifeline-dev/lifeline/internal/alerts"
	"github.com/lifeline-dev/lifeline/internal/config"
	"github.com/lifeline-dev/lifeline/internal/handlers"
	"github.com/lifeline-dev/lifeline/internal/quarantine"
	"github.com/lifeline-dev/lifeline/internal/router"
	"github.com/lifeline-dev/lifeline/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Alert channel: console profile keeps the service runnable without a
	// broker, the broker profile wires RabbitMQ on both ends.
	var sender alerts.Sender
	var brokerSender *alerts.BrokerSender
	var alertConsumer *alerts.Consumer

	switch cfg.AlertSender {
	case config.SenderBroker:
		brokerSender, err = alerts.NewBrokerSender(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect alert sender to broker: %v", err)
		}
		sender = brokerSender

		alertConsumer, err = alerts.NewConsumer(cfg.RabbitMQURL, db.DB, alerts.NewRemediator())
		if err != nil {
			log.Fatalf("Failed to start alert consumer: %v", err)
		}

		go func() {
			if err := alertConsumer.Start(ctx); err != nil {
				log.Printf("Alert consumer stopped: %v", err)
			}
		}()
	default:
		log.Println("ALERT_SENDER=console: alerts are logged locally and lost")
		sender = alerts.NewConsoleSender()
	}

	monitor := alerts.NewMonitor(sender, cfg.GuaranteedDelivery())

	// Telemetry stream
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	producer := telemetry.NewProducer(redisClient)
	telemetryConsumer := telemetry.NewConsumer(redisClient, cfg.TelemetryGroup, "lifeline-1", handlers.BroadcastPacket)

	go func() {
		if err := telemetryConsumer.Start(ctx); err != nil {
			log.Printf("Telemetry consumer stopped: %v", err)
		}
	}()

	// Quarantine registry with its bounded worker pool
	pool := quarantine.NewPool(2, 64)
	registry := quarantine.NewRegistry(db.DB, pool)
	registry.OnChange(func(event string) {
		log.Printf("[registry] %s", event)
	})

	r := router.NewRouter(
		handlers.NewQuarantineHandler(registry),
		handlers.NewTelemetryHandler(monitor, producer),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Lifeline listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	pool.Stop()

	if alertConsumer != nil {
		alertConsumer.Close()
	}
	if brokerSender != nil {
		brokerSender.Close()
	}
	redisClient.Close()

	log.Println("Shutdown complete")
}
