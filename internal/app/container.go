package app

import (
	"context"
	"errors"
	"log"
	"time"

	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/database/migration"
	dbpostgres "jobboard/internal/database/postgres"
	"jobboard/internal/delivery/http/middleware"
	"jobboard/internal/events"
	"jobboard/internal/infrastructure/cache"
	"jobboard/internal/infrastructure/messaging"
	"jobboard/internal/pkg/jwt"
	"jobboard/internal/repository"
	"jobboard/internal/usecase/applications"
	"jobboard/internal/ws"
	"jobboard/migrations"
)

// Container owns the long-lived dependencies of the server process.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB     database.DB
	Redis  *cache.Redis
	Rabbit *messaging.RabbitPublisher
	Hub    *ws.Hub

	JWT          jwt.Service
	Auth         *middleware.AuthMiddleware
	RateLimit    *middleware.RateLimitMiddleware
	Applications *applications.Service

	stopHub context.CancelFunc
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.RunMigrations {
		runner := migration.Runner{FS: migrations.FS, Logger: logger}
		if err := runner.Run(ctx, db.SQLDB()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	c := &Container{Config: cfg, Logger: logger, DB: db}

	c.Redis = cache.NewRedis(cfg.Redis, logger)

	var publishers events.Multi
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := messaging.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Printf("[App] rabbitmq disabled err=%v", err)
		} else {
			c.Rabbit = rabbit
			publishers = append(publishers, rabbit)
		}
	}

	c.Hub = ws.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	c.stopHub = stopHub
	go c.Hub.Run(hubCtx)
	publishers = append(publishers, ws.NewNotifier(c.Hub))

	c.JWT = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.Issuer, cfg.JWT.AccessExpiresIn)
	c.Auth = middleware.NewAuthMiddleware(c.JWT)
	c.RateLimit = middleware.NewRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	c.Applications = applications.NewService(
		repository.NewPostgresStore(db),
		c.Redis,
		publishers,
		applications.Options{
			DefaultPageSize: cfg.Applications.DefaultPageSize,
			MaxPageSize:     cfg.Applications.MaxPageSize,
			SubmitLockTTL:   cfg.Applications.SubmitLockTTL,
			AppliedCacheTTL: cfg.Redis.TTL,
		},
		logger,
	)

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	if c.stopHub != nil {
		c.stopHub()
	}

	var errs []error
	if c.Rabbit != nil {
		errs = append(errs, c.Rabbit.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
