package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/db"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	"github.com/yungbote/eigo-backend/internal/http"
	"github.com/yungbote/eigo-backend/internal/observability"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics
	Server   *http.Server

	store         *db.Service
	otelShutdown  func(context.Context) error
	cancel        context.CancelFunc
	routerEnabled bool
}

// Open connects and migrates the database and wires the data services. It is
// enough for command-line tools; New adds the HTTP server on top.
func Open(cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	rs := wireRepos(store.DB(), log)
	return &App{
		Log:      log,
		DB:       store.DB(),
		Cfg:      cfg,
		Repos:    rs,
		Services: wireDataServices(store.DB(), log, rs),
		store:    store,
	}, nil
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	a.otelShutdown = observability.InitOTel(ctx, a.Log, cfg.Otel)
	a.Metrics = observability.Init(a.Log)

	clients, err := wireClients(ctx, a.Log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients
	a.Services.Auth = wireAuth(a.Log, a.Services, clients)

	if n, err := a.Services.Accounts.SeedAdmins(ctx, cfg.AdminEmails); err != nil {
		a.Log.Warn("seeding admins failed", "error", err)
	} else if n > 0 {
		a.Log.Info("admins seeded", "count", n)
	}

	a.Server = http.NewServer(wireRouterConfig(a.DB, a.Log, cfg, a.Services, a.Metrics))
	a.Server.ShutdownTimeout = cfg.ShutdownTimeout
	a.routerEnabled = true
	return a, nil
}

// Start launches the background collectors.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.RegisterDB(a.Log, a.DB)
		if a.Cfg.MetricsAddr != "" {
			a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || !a.routerEnabled {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	a.Clients.Close()
	a.Clients = Clients{}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("closing database failed", "error", err)
		}
		a.store = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
