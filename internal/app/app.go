// Package app wires configuration into the running application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kkandukuri/pricetracker/internal/config"
	"github.com/kkandukuri/pricetracker/internal/fetch"
	"github.com/kkandukuri/pricetracker/internal/jobs"
	"github.com/kkandukuri/pricetracker/internal/ledger"
	"github.com/kkandukuri/pricetracker/internal/notify"
	"github.com/kkandukuri/pricetracker/internal/ports"
	"github.com/kkandukuri/pricetracker/internal/scheduler"
	"github.com/kkandukuri/pricetracker/internal/siteconfig"
	"github.com/kkandukuri/pricetracker/internal/storage"
	"github.com/kkandukuri/pricetracker/internal/tracker"
	"github.com/kkandukuri/pricetracker/internal/web"
)

// Application owns the wired components and their lifecycle.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	repo    ports.ProductRepository
	tracker *tracker.Tracker
	ledger  *ledger.Ledger
	store   *jobs.Store
	orch    *jobs.Orchestrator
	updater *scheduler.Updater
	server  *web.Server
}

// New builds the application. An empty database DSN selects the in-memory
// repository, which is enough for single-run CLI use.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	a := &Application{cfg: cfg, logger: logger}

	if cfg.Database.DSN != "" {
		pool, err := storage.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		pg := storage.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.repo = pg
	} else {
		logger.Info("no database configured, using in-memory repository")
		a.repo = storage.NewMemory()
	}

	overrides := siteconfig.Load(cfg.SitesFile, logger.With("component", "siteconfig"))
	logger.Info("site overrides loaded", "sites", overrides.Len())

	fetcher := fetch.New(nil, cfg.Scraper.Timeout(), cfg.Scraper.UserAgent)
	a.ledger = ledger.New(a.repo)

	var notifier ports.Notifier
	tg := cfg.Notifications.Telegram
	if tg.BotToken != "" && tg.ChatID != "" {
		notifier = notify.NewTelegram(tg.BotToken, tg.ChatID)
	}

	a.tracker = tracker.New(fetcher, a.repo, overrides, a.ledger, notifier,
		logger.With("component", "tracker"))

	a.store = jobs.NewStore(cfg.Jobs.StateFile, logger.With("component", "jobs"))
	a.orch = jobs.NewOrchestrator(a.store, a.tracker, a.repo, cfg.Jobs.DownloadDir,
		logger.With("component", "jobs"))

	a.updater = scheduler.NewUpdater(a.tracker, cfg.Updater.Interval(),
		logger.With("component", "updater"))

	a.server = web.New(cfg.HTTP.Addr, web.Deps{
		Repo:         a.repo,
		Tracker:      a.tracker,
		Ledger:       a.ledger,
		Store:        a.store,
		Orchestrator: a.orch,
		Overrides:    overrides,
		SitesFile:    cfg.SitesFile,
		UploadDir:    cfg.Jobs.UploadDir,
		Logger:       logger.With("component", "web"),
	})

	return a, nil
}

// Tracker exposes the track/update use case for CLI callers.
func (a *Application) Tracker() *tracker.Tracker { return a.tracker }

// Ledger exposes the price-history use case for CLI callers.
func (a *Application) Ledger() *ledger.Ledger { return a.ledger }

// Repo exposes the product repository for CLI callers.
func (a *Application) Repo() ports.ProductRepository { return a.repo }

// Jobs exposes the job store and orchestrator for CLI callers.
func (a *Application) Jobs() (*jobs.Store, *jobs.Orchestrator) { return a.store, a.orch }

// Run serves HTTP and runs the periodic updater until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.updater.Start(ctx)
	defer a.updater.Stop()
	return a.server.Run(ctx)
}

// Close releases held resources.
func (a *Application) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
