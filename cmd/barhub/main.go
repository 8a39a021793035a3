// Command barhub runs the bar ordering API: dual-token auth, role
// policy, and the user/order/product resources behind it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"barhub/internal/config"
	"barhub/internal/httpapi"
	"barhub/internal/password"
	"barhub/internal/policy"
	"barhub/internal/ratelimit"
	"barhub/internal/session"
	"barhub/internal/store"
	"barhub/internal/store/memory"
	"barhub/internal/store/postgres"
	"barhub/internal/token"
)

func main() {
	// A missing .env is fine; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("configuration invalid", zap.Error(err))
	}

	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg config.Config, log *zap.Logger) error {
	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.ArgonMemory,
		Time:        cfg.ArgonTime,
		Parallelism: cfg.ArgonParallelism,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		return err
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		return err
	}

	principals, products, orders, err := openStores(cfg, log)
	if err != nil {
		return err
	}

	limiter := openLimiter(cfg, log)
	sessions := session.NewManager(principals, hasher, codec, limiter, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedDevPrincipal(ctx, cfg, principals, hasher, log); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpapi.NewRequestValidator()
	e.Use(echomw.Recover())

	gate := httpapi.NewGate(codec, log)
	httpapi.RegisterRoutes(e, httpapi.Handlers{
		Gate:     gate,
		Auth:     httpapi.NewAuthHandler(sessions, cfg.RefreshTTL, cfg.Production(), log),
		Users:    httpapi.NewUsersHandler(principals, hasher, log),
		Orders:   httpapi.NewOrdersHandler(orders, products, log),
		Products: httpapi.NewProductsHandler(products, log),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		errCh <- e.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func openStores(cfg config.Config, log *zap.Logger) (store.PrincipalStore, store.ProductStore, store.OrderStore, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		return memory.NewPrincipalStore(), memory.NewProductStore(), memory.NewOrderStore(), nil
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info("connected to postgres")
	return postgres.NewPrincipalStore(db), postgres.NewProductStore(db), postgres.NewOrderStore(db), nil
}

func openLimiter(cfg config.Config, log *zap.Logger) *ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, login throttling disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	log.Info("login throttle enabled", zap.String("redis", cfg.RedisAddr))
	return ratelimit.New(client, ratelimit.Config{
		MaxAttempts: cfg.LoginMaxAttempts,
		Cooldown:    cfg.LoginCooldown,
		ThrottleIP:  true,
	})
}

// seedDevPrincipal bootstraps the first DEV account so a fresh
// deployment has an operator that can register everyone else.
func seedDevPrincipal(ctx context.Context, cfg config.Config, principals store.PrincipalStore, hasher *password.Hasher, log *zap.Logger) error {
	if cfg.DevEmail == "" || cfg.DevPassword == "" {
		return nil
	}

	_, err := principals.FindByEmail(ctx, cfg.DevEmail)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	hash, err := hasher.Hash(ctx, cfg.DevPassword)
	if err != nil {
		return err
	}

	p := &store.Principal{
		ID:           uuid.NewString(),
		Email:        cfg.DevEmail,
		PasswordHash: hash,
		Role:         policy.RoleDev,
	}
	if err := principals.Create(ctx, p); err != nil {
		return err
	}
	log.Info("seeded dev principal", zap.String("email", cfg.DevEmail))
	return nil
}
