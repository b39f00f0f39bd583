package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"miniblog/modules/auth"
	"miniblog/modules/blog"
	"miniblog/pkg/config"
	"miniblog/pkg/httpserver"
	"miniblog/pkg/logger"
	"miniblog/pkg/pg"
	"miniblog/pkg/redis"
	"miniblog/pkg/requestid"
	"miniblog/pkg/session"
)

type appConfig struct {
	Logger  logger.Config
	PG      pg.Config
	Redis   redis.Config
	Server  httpserver.Config
	Session session.Config
	Auth    auth.Config
	Blog    blog.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, logger.WithService("miniblog"))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	sessions, err := session.NewFromConfig(
		session.NewPGStore(pool),
		cfg.Session,
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}

	repo := blog.NewRepository(pool)
	cache := blog.NewCache(rdb, cfg.Blog.CacheTTL, log)
	renderer, err := blog.NewRenderer(log)
	if err != nil {
		return err
	}
	blogHandler := blog.NewHandler(repo, cache, renderer, cfg.Blog, log)
	authHandler := auth.NewHandler(
		auth.NewHTTPVerifier(cfg.Auth.VerifierURL, cfg.Auth.Audience),
		cfg.Auth.AdminEmail,
		log,
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Get("/health", healthHandler(pg.Healthcheck(pool), redis.Healthcheck(rdb)))
	r.Handle("/static/*", blog.Static())
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Mount("/auth", authHandler.Router())
		r.Mount("/", blogHandler.Router())
	})

	return httpserver.New(cfg.Server, log).Run(ctx, r)
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
