// Command api runs the credential gateway HTTP server.
//
//	@title						credgate API
//	@version					1.0
//	@description				Credential gateway: account signup, login and session grants.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/credgate/auth-gateway/internal/api"
	"github.com/credgate/auth-gateway/internal/api/handler"
	"github.com/credgate/auth-gateway/internal/core/ports"
	"github.com/credgate/auth-gateway/internal/core/service"
	"github.com/credgate/auth-gateway/internal/infrastructure/config"
	"github.com/credgate/auth-gateway/internal/infrastructure/crypto"
	"github.com/credgate/auth-gateway/internal/infrastructure/db/memory"
	"github.com/credgate/auth-gateway/internal/infrastructure/db/mongo"
	"github.com/credgate/auth-gateway/internal/infrastructure/db/redis"
	"github.com/credgate/auth-gateway/internal/infrastructure/queue"
	"github.com/credgate/auth-gateway/internal/infrastructure/session"
	"github.com/credgate/auth-gateway/internal/metrics"
	"github.com/credgate/auth-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "credgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "credgate",
	})

	checks := make(map[string]handler.Check)

	// --- Credential store ---
	var store ports.AccountStore
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn().Msg("using in-memory credential store; accounts are lost on restart")
		store = memory.NewAccountStore()
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		accounts := mongo.NewAccountStore(db)
		if err := accounts.EnsureIndexes(ctx); err != nil {
			return err
		}
		store = accounts
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", db.Name()).Msg("connected to mongodb")
	}

	// --- Session revocation list ---
	var revoked ports.RevocationList
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()

		revoked = redis.NewRevocationList(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	} else {
		log.Warn().Msg("REDIS_ADDR not set; session revocations are kept in memory")
		revoked = memory.NewRevocationList()
	}

	// --- Core ---
	pool := queue.NewPool(cfg.Hashing.Workers, metrics.HashQueueDepth, logger.With("hash_pool"))
	// The pool outlives the signal context so in-flight requests can finish
	// hashing during graceful shutdown.
	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()
	pool.Start(poolCtx)

	hasher, err := crypto.NewBcryptHasher(cfg.Hashing.BcryptCost, pool)
	if err != nil {
		return err
	}
	sessions, err := session.NewJWTManager(cfg.Session.JWTSecret, cfg.Session.TokenTTL, revoked)
	if err != nil {
		return err
	}

	registrar := service.NewRegistrar(store, hasher, logger.With("registrar"))
	authenticator := service.NewAuthenticator(store, hasher, sessions, logger.With("authenticator"))

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Registrar:     registrar,
		Authenticator: authenticator,
		Checks:        checks,
		Log:           logger.With("http"),
		CookieSecure:  cfg.Session.CookieSecure,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	return serve(ctx, e, ":"+cfg.Port, log)
}

type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
