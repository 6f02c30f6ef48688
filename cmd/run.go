package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"creditmeter/config"
	"creditmeter/database"
	"creditmeter/events"
	"creditmeter/models"
	"creditmeter/observability"
	"creditmeter/repository"
	"creditmeter/service"

	logrus "github.com/sirupsen/logrus"
)

// App bundles the wired-up engine for the admin CLI commands
type App struct {
	db      *database.DB
	metrics *observability.MetricsProvider

	Quota  service.QuotaService
	Grants service.GrantService
	Stats  service.StatsService
}

// Setup loads configuration and wires the database, event bus, metrics and
// services together
func Setup(ctx context.Context) (*App, error) {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Operational visibility for exhausted pools
	eventBus.Subscribe(events.EventTypeQuotaExhausted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.QuotaExhaustedEvent); ok {
			logrus.WithFields(logrus.Fields{
				"ownerId":   e.OwnerID,
				"accountId": e.AccountID,
				"module":    e.Module,
				"requested": e.Requested,
				"available": e.Available,
			}).Info("Quota exhausted")
		}
	})

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus, cfg.LockTimeoutMillis)

	return &App{
		db:      db,
		metrics: metrics,
		Quota:   service.NewQuotaService(uowFactory, metrics),
		Grants:  service.NewGrantService(uowFactory, metrics),
		Stats:   service.NewStatsService(uowFactory),
	}, nil
}

// Close releases the app's resources
func (a *App) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.metrics.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}
	a.db.Close()
}

// Grant runs the administrative provisioning write path
func Grant(ctx context.Context, ownerID int64, module models.Module, credits int64) error {
	app, err := Setup(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	entry, err := app.Grants.Grant(ctx, ownerID, module, credits)
	if err != nil {
		return err
	}

	log.Printf("Granted %d credits to owner %d for module %s (used: %d, available: %d)",
		entry.Credits, entry.OwnerID, entry.Module, entry.Used, entry.Available())
	return nil
}

// PrintStats renders the per-module rollup for an account
func PrintStats(ctx context.Context, account *models.Account) error {
	app, err := Setup(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.Stats.GetStats(ctx, account)
	if err != nil {
		return err
	}

	for _, module := range models.AllModules() {
		usage := stats[module]
		if usage.Unlimited() {
			log.Printf("%-8s unlimited", module)
			continue
		}
		log.Printf("%-8s credits=%d used=%d available=%d", module, usage.Credits, usage.Used, usage.Available)
	}
	return nil
}

// Check runs a dry-run capacity check for an account
func Check(ctx context.Context, account *models.Account, module models.Module, amount int64) error {
	app, err := Setup(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	ok, err := app.Quota.HasEnough(ctx, account, module, amount)
	if err != nil {
		return err
	}

	if ok {
		log.Printf("Account %d has capacity for %d x %s", account.ID, amount, module)
	} else {
		log.Printf("Account %d does NOT have capacity for %d x %s", account.ID, amount, module)
	}
	return nil
}
