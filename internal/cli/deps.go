package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/auth"
	"quiz-admin-service/internal/config"
	"quiz-admin-service/internal/infra/memory"
	"quiz-admin-service/internal/infra/postgres"
	redisinfra "quiz-admin-service/internal/infra/redis"
	transport "quiz-admin-service/internal/transport/http"
)

// deps is the wired object graph shared by the server and maintenance commands.
type deps struct {
	services transport.Services
	closers  []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDeps picks Postgres or the in-memory store, and Redis or in-process caches,
// depending on what cfg configures.
func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}

	var store app.Store
	var loader memory.AnswerKeyLoader
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		d.closers = append(d.closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store = postgres.NewStore(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect pgx pool: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		loader = postgres.NewAnswerKeyLoader(pool)
	} else {
		log.Printf("postgres url not configured, using in-memory store")
		mem := memory.NewStore()
		store, loader = mem, mem
	}

	keyTTL := config.TTLDuration(cfg.AnswerKeys.TTL, 10*time.Minute)
	var keys app.AnswerKeyRepository
	var revocations app.RevocationRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = client.Close() })
		keys = redisinfra.NewAnswerKeyRepository(client, loader, keyTTL)
		revocations = redisinfra.NewRevocationList(client)
	} else {
		keys = memory.NewAnswerKeyRepository(loader, keyTTL)
		revocations = memory.NewRevocationList()
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	results := app.NewResultService(store)
	d.services = transport.Services{
		Users:     app.NewUserService(store, tokens, revocations),
		Questions: app.NewQuestionService(store, keys),
		Quizzes:   app.NewQuizService(store),
		Attempts:  app.NewAttemptService(store, keys, results),
		Results:   results,
		Stats:     app.NewStatsService(store),
	}
	return d, nil
}
