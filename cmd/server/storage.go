package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"evote/internal/platform/config"
	pgplatform "evote/internal/platform/postgres"
	redisplatform "evote/internal/platform/redis"
	"evote/internal/voting/service"
	"evote/internal/voting/store/memory"
	pgstore "evote/internal/voting/store/postgres"
	redisstore "evote/internal/voting/store/redis"
)

// storage is the selected backend. Every backend brings a VoteTx that sets
// the voter flag and records the vote together.
type storage struct {
	voters     service.VoterStore
	candidates service.CandidateStore
	tx         service.VoteTx

	health func(ctx context.Context) error
	close  func()
}

func openStorage(ctx context.Context, cfg config.Server, logger *slog.Logger) (*storage, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := pgplatform.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := pgplatform.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "using postgres storage")
		return &storage{
			voters:     pgstore.NewVoterStore(db),
			candidates: pgstore.NewCandidateStore(db),
			tx:         pgstore.NewVoteTx(db, cfg.StoreTimeout),
			health:     db.PingContext,
			close:      closeDB(db, logger),
		}, nil

	case config.BackendRedis:
		client, err := redisplatform.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "using redis storage")
		voters := redisstore.NewVoterStore(client.Client)
		candidates := redisstore.NewCandidateStore(client.Client)
		return &storage{
			voters:     voters,
			candidates: candidates,
			tx:         redisstore.NewVoteTx(voters, candidates),
			health:     client.Health,
			close: func() {
				if err := client.Close(); err != nil {
					logger.Warn("closing redis client", "error", err)
				}
			},
		}, nil

	case config.BackendMemory:
		voters := memory.NewVoterStore()
		candidates := memory.NewCandidateStore()
		logger.InfoContext(ctx, "using in-memory storage")
		return &storage{
			voters:     voters,
			candidates: candidates,
			tx:         memory.NewVoteTx(voters, candidates),
			health:     func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func closeDB(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
	}
}
