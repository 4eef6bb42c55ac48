package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"victim-aid-go/internal/auth"
	"victim-aid-go/internal/config"
	"victim-aid-go/internal/db"
	aiddomain "victim-aid-go/internal/domain/aid"
	auditdomain "victim-aid-go/internal/domain/audit"
	dashboarddomain "victim-aid-go/internal/domain/dashboard"
	familydomain "victim-aid-go/internal/domain/family"
	userdomain "victim-aid-go/internal/domain/user"
	victimdomain "victim-aid-go/internal/domain/victim"
	"victim-aid-go/internal/metrics"
	"victim-aid-go/internal/repository/inmemory"
	aidrepo "victim-aid-go/internal/repository/postgres/aid"
	auditrepo "victim-aid-go/internal/repository/postgres/audit"
	dashboardrepo "victim-aid-go/internal/repository/postgres/dashboard"
	familyrepo "victim-aid-go/internal/repository/postgres/family"
	userrepo "victim-aid-go/internal/repository/postgres/user"
	victimrepo "victim-aid-go/internal/repository/postgres/victim"
	redisrepo "victim-aid-go/internal/repository/redis"
	"victim-aid-go/internal/storage"
	"victim-aid-go/internal/transport/httpserver"
	"victim-aid-go/internal/transport/httpserver/handler"
	adminhandler "victim-aid-go/internal/transport/httpserver/handler/admin"
	aidhandler "victim-aid-go/internal/transport/httpserver/handler/aid"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	familieshandler "victim-aid-go/internal/transport/httpserver/handler/families"
	reportshandler "victim-aid-go/internal/transport/httpserver/handler/reports"
	victimshandler "victim-aid-go/internal/transport/httpserver/handler/victims"
	"victim-aid-go/pkg/logger"
)

const startupTimeout = 30 * time.Second

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *goredis.Client
	log        logger.Logger
}

func New(log logger.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	application := &App{cfg: cfg, db: dbConn, log: log}

	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(ctx, dbConn, log); err != nil {
			_ = application.Close()
			return nil, err
		}
	}

	revocations, err := application.revocationList(ctx)
	if err != nil {
		_ = application.Close()
		return nil, err
	}

	log.Info("app: initializing storage", "driver", cfg.Storage.Driver)
	files, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = application.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	auditLog := auditdomain.NewLogger(auditdomain.WithObserver(m))

	users := userdomain.NewService(
		userrepo.NewPostgres(dbConn),
		auditLog,
		userdomain.WithCache(inmemory.NewInMemoryUserCache(), cfg.Auth.UserCacheTTL),
		userdomain.WithHashCost(cfg.Auth.BcryptCost),
	)
	if err := bootstrapAdmin(ctx, cfg.Bootstrap, users, log); err != nil {
		_ = application.Close()
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	authService := auth.NewService(users, tokens, revocations, auth.WithLoginObserver(m))

	families := familydomain.NewService(familyrepo.NewPostgres(dbConn), auditLog)
	victims := victimdomain.NewService(
		victimrepo.NewPostgres(dbConn),
		files,
		auditLog,
		victimdomain.WithMaxAttachmentSize(cfg.Uploads.MaxAttachmentSize),
		victimdomain.WithURLExpiry(cfg.Uploads.URLExpiry),
	)
	requests := aiddomain.NewService(aidrepo.NewPostgres(dbConn), auditLog)
	dashboard := dashboarddomain.NewService(
		dashboardrepo.NewPostgres(dbConn),
		dashboarddomain.WithReportCacheTTL(cfg.Reports.CacheTTL),
	)
	auditService := auditdomain.NewService(auditrepo.NewPostgres(dbConn))

	handlers := &handler.Handlers{
		Common:   commonhandler.New(authService, m, log),
		Families: familieshandler.New(families, m, log),
		Victims:  victimshandler.New(victims, files, cfg.Uploads.MaxAttachmentSize, m, log),
		Aid:      aidhandler.New(requests, m, log),
		Reports:  reportshandler.New(dashboard, m, log),
		Admin:    adminhandler.New(users, auditService, m, log),
	}

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, httpserver.Deps{
		Auth:     authService,
		Metrics:  m,
		Gatherer: registry,
		Log:      log,
	})

	log.Info("app: initializing http server")
	application.httpServer = httpserver.New(cfg.HTTP, router)
	return application, nil
}

// revocationList keeps logged-out tokens in Redis when configured so every
// instance sees them, and in process memory otherwise.
func (a *App) revocationList(ctx context.Context) (auth.RevocationList, error) {
	client, err := db.NewRedis(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		a.log.Warn("app: REDIS_URL not set, token revocations are kept in memory")
		return inmemory.NewRevocationList(), nil
	}
	a.redis = client
	a.log.Info("app: token revocations stored in redis")
	return redisrepo.NewRevocationList(client), nil
}

func bootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, users *userdomain.Service, log logger.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	created, err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("app: bootstrap administrator created", "username", cfg.AdminUsername)
	}
	return nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) ShutdownTimeout() time.Duration {
	if a.cfg.HTTP.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return a.cfg.HTTP.ShutdownTimeout
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
