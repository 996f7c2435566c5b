package server

import (
	"context"
	"database/sql"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"

	"github.com/faciam-dev/gridbi/internal/api/handler"
	"github.com/faciam-dev/gridbi/internal/connections"
	"github.com/faciam-dev/gridbi/internal/dbqa"
	"github.com/faciam-dev/gridbi/internal/logger"
	"github.com/faciam-dev/gridbi/internal/notify"
	notifywidgets "github.com/faciam-dev/gridbi/internal/notify/widgets"
	regwidgets "github.com/faciam-dev/gridbi/internal/registry/widgets"
	dashrepo "github.com/faciam-dev/gridbi/internal/repository/dashboards"
	datasetsrepo "github.com/faciam-dev/gridbi/internal/repository/datasets"
	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
	"github.com/faciam-dev/gridbi/internal/server/middleware"
	"github.com/faciam-dev/gridbi/pkg/chartpolicy"
)

// New builds the HTTP API over the given metadata database. The returned
// engine drives scheduled health-check runs; the caller owns its cron loop.
func New(db *sql.DB, cfg DBConfig) (huma.API, *dbqa.Engine) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: true,
	}))

	var dialect ormdriver.Dialect
	if cfg.Driver == "postgres" {
		dialect = ormdriver.PostgresDialect{}
	} else {
		dialect = ormdriver.MySQLDialect{}
	}

	api := humachi.New(r, huma.DefaultConfig("GridBI API", "1.0.0"))
	api.UseMiddleware(middleware.ExtractTenant(api))

	initEvents(db, cfg.Driver, cfg.TablePrefix)

	connRepo := &connections.Repo{DB: db, Dialect: dialect, Driver: cfg.Driver, TablePrefix: cfg.TablePrefix}
	widgets := &widgetsrepo.Repo{DB: db, Dialect: dialect, Driver: cfg.Driver, TablePrefix: cfg.TablePrefix}
	dashboards := &dashrepo.Repo{DB: db, Dialect: dialect, Driver: cfg.Driver, TablePrefix: cfg.TablePrefix}
	datasets := &datasetsrepo.Repo{DB: db, Dialect: dialect, Driver: cfg.Driver, TablePrefix: cfg.TablePrefix}
	qaRepo := &dbqa.Repo{DB: db, Dialect: dialect, Driver: cfg.Driver, TablePrefix: cfg.TablePrefix}

	setupMetrics(api, r, widgets)

	svc := &connections.Service{Repo: connRepo, HTTP: resty.New()}

	notifyConf, err := notify.LoadConfig(os.Getenv("BI_NOTIFY_CONFIG"))
	if err != nil {
		logger.L.Error("load notify configuration", "err", err)
		os.Exit(1)
	}
	engine := &dbqa.Engine{Store: qaRepo, Exec: svc, Channels: notifyConf.Resolver()}

	policy := chartpolicy.NewStore(cfg.PolicyPath, logger.L)
	if cfg.PolicyPath != "" {
		if err := policy.Load(); err != nil {
			logger.L.Error("load chart policy", "path", cfg.PolicyPath, "err", err)
		}
		go policy.Watch(context.Background())
	}

	catalog, refresher := setupCatalog(db, cfg, widgets)

	handler.RegisterConnection(api, &handler.ConnectionHandler{Repo: connRepo, Svc: svc})
	handler.RegisterWidget(api, &handler.WidgetHandler{Repo: widgets, Catalog: refresher})
	catalogHandler := &handler.CatalogHandler{Reg: catalog}
	handler.RegisterCatalog(api, catalogHandler)
	r.Get("/v1/widgets/stream", catalogHandler.Stream)
	handler.RegisterChartPolicy(api, &handler.ChartPolicyHandler{Store: policy, PolicyPath: cfg.PolicyPath})
	handler.RegisterDashboard(api, &handler.DashboardHandler{Repo: dashboards, Widgets: widgets})
	handler.RegisterDataset(api, &handler.DatasetHandler{Repo: datasets, Connections: connRepo})
	handler.RegisterDbQa(api, &handler.DbQaHandler{Repo: qaRepo, Engine: engine, Connections: connRepo})

	return api, engine
}

// setupCatalog primes the in-memory widget catalog and starts the
// cross-replica invalidation listeners that apply to this deployment.
func setupCatalog(db *sql.DB, cfg DBConfig, widgets *widgetsrepo.Repo) (regwidgets.Registry, *regwidgets.Refresher) {
	cache := regwidgets.NewInMemory()
	if err := regwidgets.Prime(context.Background(), cache, widgets); err != nil {
		logger.L.Warn("prime widget catalog", "err", err)
	}
	refresher := &regwidgets.Refresher{Store: widgets, Reg: cache, Logger: logger.L}

	if cfg.Driver == "postgres" {
		refresher.Notifiers = append(refresher.Notifiers, &notifywidgets.Notifier{DB: db})
		pl := regwidgets.NewPGListener(cfg.DSN, widgets, cache, logger.L)
		if _, err := pl.Start(context.Background()); err != nil {
			logger.L.Warn("start pg widget listener", "err", err)
		}
	}
	if addr := os.Getenv("BI_CACHE_REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		channel := "gridbi:widgets"
		refresher.Notifiers = append(refresher.Notifiers, notifywidgets.NewRedisNotifier(rdb, channel))
		sub := &regwidgets.RedisSubscriber{
			RDB: rdb, Channel: channel,
			Store: widgets, Reg: cache, Logger: logger.L,
			BackoffMS: 500, BackoffMaxMS: 10000,
		}
		sub.Start(context.Background())
	}
	return cache, refresher
}
