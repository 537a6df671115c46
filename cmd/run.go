package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"matka/auth"
	"matka/config"
	"matka/database"
	"matka/events"
	"matka/metrics"
	"matka/notify"
	"matka/repository"
	"matka/repository/memory"
	"matka/service"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := configureLogging(cfg); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"backend":     cfg.StorageBackend,
	}).Info("Starting matka...")

	eventBus := events.NewBus()

	uowFactory, closeStorage, err := openStorage(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer closeStorage()

	registry := prometheus.NewRegistry()
	metrics.New(registry).Subscribe(eventBus)

	if cfg.NATSURL != "" {
		nc, err := notify.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		notify.NewNATSPublisher(nc, cfg.NATSSubjectPrefix).Subscribe(eventBus)
	}

	if cfg.DiscordToken != "" {
		session, err := notify.OpenDiscordSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		defer session.Close()
		announcer := notify.NewDiscordAnnouncer(session, cfg.DiscordChannelID)
		announcer.BigWinThreshold = cfg.BigWinThreshold
		announcer.Subscribe(eventBus)
		log.WithField("channelID", cfg.DiscordChannelID).Info("Discord announcements enabled")
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		log.Warn("JWT_SECRET is not set, using an insecure development secret")
		jwtSecret = "development-only-secret"
	}

	core := service.NewCore(uowFactory, service.CoreOptions{
		SettlementWorkers: cfg.SettlementWorkers,
		BetLimiter:        service.NewBetRateLimiter(cfg.BetRatePerSecond, cfg.BetRateBurst),
		Hasher:            auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:            auth.NewJWTIssuer(jwtSecret, cfg.JWTTTL),
	})

	if cfg.BootstrapAdminUsername != "" && cfg.BootstrapAdminPassword != "" {
		admin, err := core.Users.EnsureAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		log.WithField("adminID", admin.ID).Info("Bootstrap admin ready")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.MetricsAddr).Info("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("metrics server failed: %w", err)
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server did not shut down cleanly")
	}
	return nil
}

func configureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// openStorage builds the unit of work factory for the configured backend
func openStorage(ctx context.Context, cfg *config.Config, eventBus *events.Bus) (service.UnitOfWorkFactory, func(), error) {
	if cfg.StorageBackend == config.BackendMemory {
		log.Warn("Using the in-memory backend, state is lost on exit")
		return memory.NewUnitOfWorkFactory(memory.NewStore(), eventBus), func() {}, nil
	}

	connString := cfg.DatabaseConnString()
	if err := database.RunMigrationsWithURL(connString); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, connString, cfg.DatabaseMaxConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")
	return repository.NewUnitOfWorkFactory(db, eventBus), db.Close, nil
}
