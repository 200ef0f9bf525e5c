// Command api serves the LoopTalk REST API used by the terminal client.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bajrang214/looptalk-client/internal/config"
	"github.com/bajrang214/looptalk-client/internal/db"
	"github.com/bajrang214/looptalk-client/internal/server"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	if err := mainRunner(mainDepsProvider()); err != nil {
		log.Printf("[API] %v", err)
		os.Exit(1)
	}
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	ensureSchema    func(context.Context, db.Querier) error
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	serve           func(context.Context, backend, <-chan os.Signal) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		ensureSchema:    db.EnsureSchema,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		serve:           Run,
	}
}

// backend is everything the HTTP server runs on. redis is nil when the post
// list cache is off; pg is nil only in tests.
type backend struct {
	cfg   config.Config
	pg    *pgxpool.Pool
	redis *redis.Client
}

func (b backend) close() {
	if b.pg != nil {
		b.pg.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// realMain refuses to start without Postgres and the schema, since every
// route but /health reads the posts or users table.
func realMain(deps mainDeps) error {
	cfg := deps.loadConfig()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := deps.ensureSchema(context.Background(), pg); err != nil {
		pg.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b := backend{cfg: cfg, pg: pg, redis: cacheClient(deps.connectRedis(cfg))}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)
	return deps.serve(context.Background(), b, signals)
}

// cacheClient keeps rdb only if it answers a ping. Without it the post list
// is read from Postgres on every request.
func cacheClient(rdb *redis.Client) *redis.Client {
	if rdb == nil {
		log.Printf("[API] REDIS_ADDR not set, post list cache off")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[API] redis unavailable, post list cache off: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

var listenFn = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run serves until a signal arrives, ctx ends or the listener fails, then
// shuts the app down and releases b's connections.
func Run(ctx context.Context, b backend, signals <-chan os.Signal) error {
	defer b.close()

	var q db.Querier
	if b.pg != nil {
		q = b.pg
	}
	srv := server.NewServer(b.cfg, q, b.redis)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listenFn(srv.App, b.cfg.ServerPort)
	}()

	select {
	case sig := <-signals:
		log.Printf("[API] %v received, shutting down", sig)
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", b.cfg.ServerPort, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdownFn(srv.App, shutdownCtx)
}
