package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vedran77/receptionist/internal/config"
	"github.com/vedran77/receptionist/internal/database"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/repository"
	"github.com/vedran77/receptionist/internal/repository/memory"
	postgresrepo "github.com/vedran77/receptionist/internal/repository/postgres"
	"github.com/vedran77/receptionist/internal/vapi"
	"go.uber.org/zap"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg *config.Config
	log logging.Logger
	zap *zap.Logger

	pool  *pgxpool.Pool
	redis *redis.Client

	users      repository.UserRepository
	assistants repository.AssistantRepository
	tasks      repository.ReconciliationRepository
	provider   *vapi.Client
}

func loadConfig() (*config.Config, logging.Logger, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log, base, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, base, nil
}

func newApp(ctx context.Context, inMemory bool) (*app, error) {
	cfg, log, base, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, zap: base}

	if inMemory {
		log.Warn(ctx, "using in-memory storage, data is lost on exit")
		a.users = memory.NewUserRepo()
		a.assistants = memory.NewAssistantRepo()
		a.tasks = memory.NewReconciliationRepo()
	} else {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		log.Info(ctx, "connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

		a.users = postgresrepo.NewUserRepo(pool)
		a.assistants = postgresrepo.NewAssistantRepo(pool)
		a.tasks = postgresrepo.NewReconciliationRepo(pool)
	}

	if cfg.Redis.URL != "" {
		client, err := database.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		log.Info(ctx, "connected to redis")
	}

	opts := []vapi.Option{vapi.WithTimeout(cfg.Vapi.Timeout)}
	if cfg.Vapi.BaseURL != "" {
		opts = append(opts, vapi.WithBaseURL(cfg.Vapi.BaseURL))
	}
	a.provider = vapi.NewClient(cfg.Vapi.APIKey, opts...)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	a.zap.Sync()
}
