package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	api "github.com/mind-engage/mindengage-adaptivequiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-adaptivequiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/cache"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/config"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/db"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/logger"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/pool"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
	syncx "github.com/mind-engage/mindengage-adaptivequiz/internal/sync"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	octx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(octx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "err", err)
	}
	defer dbh.Close()

	store := quiz.NewSQLStore(dbh)
	opts := []quiz.ServiceOption{
		quiz.WithEvents(syncx.NewEventRepo(dbh)),
		quiz.WithLogger(log.With("service", "quiz")),
	}
	var attemptCache *cache.Attempts
	if cfg.RedisAddr != "" {
		attemptCache, err = cache.Dial(ctx, cfg.RedisAddr, cfg.RedisTTL, log)
		if err != nil {
			log.Warn("attempt cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer attemptCache.Close()
			opts = append(opts, quiz.WithCache(attemptCache))
		}
	}
	svc := quiz.NewService(store, pool.StoreProvider{Store: store}, opts...)

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	router := api.NewRouter(api.Deps{
		Service: svc,
		Auth:    auth.NewAuthService(cfg.AuthSecret),
		Credentials: auth.Credentials{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			AllowLocal:    cfg.EnableLocalAuth,
		},
		QuizDefaults: cfg.QuizDefaults,
		CORSOrigins:  origins,
		Ready:        readiness(dbh, attemptCache),
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "cache", attemptCache != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", "err", err)
	}
}

func readiness(dbh *sql.DB, c *cache.Attempts) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := dbh.PingContext(ctx); err != nil {
			return err
		}
		if c != nil {
			return c.Ping(ctx)
		}
		return nil
	}
}
