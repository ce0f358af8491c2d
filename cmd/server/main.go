package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/portfolio/blog/application"
	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/dfryer1193/portfolio/blog/persistence"
	"github.com/dfryer1193/portfolio/internal/middleware"
	"github.com/dfryer1193/portfolio/internal/rest"
	"github.com/dfryer1193/portfolio/shared/config"
	"github.com/dfryer1193/portfolio/shared/db/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 5 * time.Second
)

func main() {
	configDir := flag.String("config", ".", "Directory containing config.yaml")
	check := flag.Bool("check", false, "Build every post once and exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	mode := domain.ParseMode(cfg.Mode)
	setupLogging(mode)

	ctx := context.Background()

	source, err := newPostSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Source.Kind).Msg("Failed to set up post source")
	}

	renderer := application.NewMarkdownRenderer(
		application.WithPostsPath(cfg.Site.PostsPath),
		application.WithImagesPath(cfg.Site.ImagesPath),
	)

	opts := []application.Option{
		application.WithMaxConcurrency(cfg.Source.MaxConcurrency),
	}
	if cfg.Source.Policy == "skip-invalid" {
		opts = append(opts, application.WithErrorPolicy(application.SkipInvalid))
	}

	if cfg.Cache.Enabled {
		database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: cfg.Cache.Path})
		if err := database.Connect(); err != nil {
			log.Fatal().Err(err).Str("path", cfg.Cache.Path).Msg("Failed to open render cache")
		}
		defer database.Close()

		cache := persistence.NewRenderCache(database.DB())
		if cfg.Cache.MaxAgeHours > 0 {
			cutoff := time.Now().Add(-time.Duration(cfg.Cache.MaxAgeHours) * time.Hour)
			remaining, err := cache.Prune(ctx, cutoff)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to prune render cache")
			} else {
				log.Info().Int("entries", remaining).Msg("Pruned render cache")
			}
		}
		opts = append(opts, application.WithRenderCache(cache))
	}

	postService := application.NewPostService(source, renderer, opts...)

	posts, err := postService.GetPosts(ctx, mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build posts")
	}
	log.Info().Int("posts", len(posts)).Str("mode", mode.String()).Str("source", cfg.Source.Kind).Msg("Loaded posts")

	if *check {
		return
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: newHandler(cfg, mode, postService),
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
		return
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(mode domain.Mode) {
	zerolog.TimeFieldFormat = time.RFC3339
	if mode == domain.ModeDevelopment {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func newHandler(cfg *config.Config, mode domain.Mode, postService rest.PostService) http.Handler {
	if mode == domain.ModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(
		router,
		rest.NewPostsHandler(postService, mode),
		rest.NewWordleHandler(),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	return cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}).Handler(router)
}
