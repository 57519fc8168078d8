// Command server runs the customs clearance API: shipment and payment
// lifecycles, notifications with live delivery, and the deadline reminder
// sweep.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clearway/internal/events"
	"clearway/internal/livebus"
	"clearway/internal/mailer"
	"clearway/internal/notification/dispatcher"
	notifhandler "clearway/internal/notification/handler"
	notifstore "clearway/internal/notification/store"
	payhandler "clearway/internal/payment/handler"
	payservice "clearway/internal/payment/service"
	paystore "clearway/internal/payment/store"
	"clearway/internal/platform/config"
	"clearway/internal/platform/httpserver"
	"clearway/internal/platform/logger"
	"clearway/internal/platform/metrics"
	"clearway/internal/platform/postgres"
	platformredis "clearway/internal/platform/redis"
	"clearway/internal/platform/token"
	"clearway/internal/reminder"
	remhandler "clearway/internal/reminder/handler"
	shiphandler "clearway/internal/shipment/handler"
	shipservice "clearway/internal/shipment/service"
	shipstore "clearway/internal/shipment/store"
	"clearway/internal/transport/httpapi"
	"clearway/internal/watchlist"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	health := map[string]httpapi.HealthChecker{}

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		shipments     shipstore.Store
		payments      paystore.Store
		notifications notifstore.Store
		watchers      watchlist.Store
	)
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.Open(cfg.PostgresDSN, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		defer db.Close()
		shipments = shipstore.NewPostgres(db)
		payments = paystore.NewPostgres(db)
		notifications = notifstore.NewPostgres(db)
		watchers = watchlist.NewPostgres(db)
		health["postgres"] = db.Ping
		log.Info("using postgres stores")
	} else {
		shipments = shipstore.NewMemory()
		payments = paystore.NewMemory()
		notifications = notifstore.NewMemory()
		watchers = watchlist.NewMemory()
		log.Warn("POSTGRES_DSN unset, using in-memory stores")
	}

	// Live events: Redis pub/sub across instances, channels in-process.
	var bus livebus.Bus
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		bus = livebus.NewRedis(redisClient.Client, log)
		health["redis"] = func() error {
			hctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(hctx)
		}
	} else {
		bus = livebus.NewMemory()
	}

	// Watcher emails: queued for the delivery worker, or logged.
	var sender mailer.Sender
	if cfg.AMQPURL != "" {
		queueSender, err := mailer.NewQueueSender(cfg.AMQPURL, cfg.EmailQueue)
		if err != nil {
			return err
		}
		defer queueSender.Close()
		sender = queueSender
	} else {
		sender = mailer.NewLogSender(log)
	}

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	notifier := dispatcher.New(notifications, bus, sender, watchers, log,
		dispatcher.WithEvents(publisher),
		dispatcher.WithMetrics(m),
	)
	shipmentSvc := shipservice.New(shipments, notifier, log,
		shipservice.WithEvents(publisher),
		shipservice.WithMetrics(m),
	)
	paymentSvc := payservice.New(payments, shipments, notifier, log,
		payservice.WithEvents(publisher),
		payservice.WithMetrics(m),
	)
	scheduler := reminder.New(payments, notifications, notifier, log,
		reminder.WithItemTimeout(cfg.ReminderItemTimeout),
		reminder.WithConcurrency(cfg.ReminderConcurrency),
		reminder.WithEvents(publisher),
		reminder.WithMetrics(m),
	)
	go scheduler.Run(ctx, cfg.ReminderInterval)

	notifHandler := notifhandler.New(notifications, bus, log)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:    log,
		Metrics:   m,
		Validator: token.NewValidator(cfg.JWTSigningKey),
		Handlers: []httpapi.Registrar{
			shiphandler.New(shipmentSvc, watchers, log),
			payhandler.New(paymentSvc, log),
			notifHandler,
			remhandler.New(scheduler, log),
		},
		StreamHandlers: []httpapi.Registrar{
			notifhandler.StreamRegistrar{H: notifHandler},
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
