package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chronos-go/internal/auth"
	"chronos-go/internal/config"
	"chronos-go/internal/db"
	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	userdomain "chronos-go/internal/domain/user"
	"chronos-go/internal/events"
	"chronos-go/internal/repository/inmemory"
	meetingrepo "chronos-go/internal/repository/postgres/meeting"
	schedulingrepo "chronos-go/internal/repository/postgres/scheduling"
	userrepo "chronos-go/internal/repository/postgres/user"
	"chronos-go/internal/telemetry"
	"chronos-go/internal/transport/httpserver"
	"chronos-go/internal/transport/httpserver/handler"
	authmw "chronos-go/internal/transport/httpserver/middleware"
	"chronos-go/pkg/logger"
	"github.com/nats-io/nats.go"
	"gorm.io/gorm"
)

type App struct {
	cfg               config.Config
	log               logger.Logger
	httpServer        *http.Server
	db                *gorm.DB
	nats              *nats.Conn
	recalculator      *schedulingdomain.Recalculator
	shutdownTelemetry telemetry.ShutdownFunc
}

type repositories struct {
	meetings   meetingdomain.Repository
	scheduling schedulingdomain.Repository
	users      userdomain.Repository
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}
	if err := a.init(ctx); err != nil {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			log.Error("app: cleanup after failed init", "err", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	log.Info("app: initializing telemetry", "enabled", cfg.Telemetry.Enabled)
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.ServiceName, cfg.Env, log)
	if err != nil {
		return err
	}
	a.shutdownTelemetry = shutdown

	log.Info("app: initializing storage", "driver", cfg.StorageDriver)
	repos, err := a.openStorage(ctx)
	if err != nil {
		return err
	}

	var publisher schedulingdomain.EventPublisher
	if cfg.NATS.URL != "" {
		log.Info("app: connecting to nats", "url", cfg.NATS.URL)
		conn, err := events.Connect(cfg.NATS, cfg.ServiceName, log)
		if err != nil {
			return err
		}
		a.nats = conn
		natsPublisher, err := events.NewPublisher(conn, cfg.NATS, log)
		if err != nil {
			return err
		}
		publisher = natsPublisher
	}

	a.recalculator = schedulingdomain.NewRecalculator(repos.scheduling, publisher, log)
	meetings := meetingdomain.NewService(repos.meetings, a.recalculator, inmemory.NewMeetingCache(), cfg.ShareCacheTTL)
	scheduling := schedulingdomain.NewService(repos.scheduling, a.recalculator)
	users := userdomain.NewService(repos.users)

	yandex := auth.NewYandexProvider(cfg.Yandex)
	authService := auth.NewService(users, yandex, auth.NewTokenIssuer(cfg.Auth), cfg.Auth.AllowTestToken)

	var tokens authmw.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		validator, err := auth.NewTokenValidator(cfg.Auth)
		if err != nil {
			return err
		}
		tokens = validator
	} else if !cfg.Auth.SkipAuth {
		return auth.ErrSigningKeyMissing
	}

	log.Info("app: initializing router")
	handlers := handler.New(meetings, scheduling, users, authService, yandex, cfg.ServiceName, log)
	authenticator := authmw.NewAuthenticator(cfg.Auth, tokens, users, log)
	router := httpserver.NewRouter(cfg, handlers, authenticator)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)
	return nil
}

func (a *App) openStorage(ctx context.Context) (repositories, error) {
	switch a.cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := inmemory.NewStore()
		return repositories{
			meetings:   inmemory.NewMeetingRepository(store),
			scheduling: inmemory.NewSchedulingRepository(store),
			users:      inmemory.NewUserRepository(store),
		}, nil
	case config.StorageDriverPostgres:
		dbConn, err := db.NewPostgres(ctx, a.cfg.DB, a.log)
		if err != nil {
			return repositories{}, err
		}
		a.db = dbConn
		return repositories{
			meetings:   meetingrepo.NewPostgres(dbConn),
			scheduling: schedulingrepo.NewPostgres(dbConn),
			users:      userrepo.NewPostgres(dbConn),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Recalculator() *schedulingdomain.Recalculator {
	return a.recalculator
}

// Migrate applies pending SQL migrations. It is a no-op for the memory driver.
func (a *App) Migrate(ctx context.Context) (int, error) {
	if a.db == nil {
		a.log.Info("db: no database configured, skipping migrations", "driver", a.cfg.StorageDriver)
		return 0, nil
	}
	return db.Migrate(ctx, a.db, a.log)
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	if err := db.Close(a.db); err != nil {
		errs = append(errs, fmt.Errorf("close db: %w", err))
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}
