package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/chain"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/config"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/kafka"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/rest"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/services"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/store"
)

// App centralizes dependency wiring for the score service.
type App struct {
	cfg    config.Config
	logger zerolog.Logger

	readers   []*chain.Reader
	redis     *redis.Client
	publisher *kafka.ScoreEventPublisher
	score     *services.ScoreService

	engine     *gin.Engine
	httpServer *http.Server
}

// NewApp builds an App with all required dependencies. Redis and Kafka are
// only connected when enabled in cfg.
func NewApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	readers, err := chain.Dial(ctx, cfg.Networks)
	if err != nil {
		return nil, fmt.Errorf("dial networks: %w", err)
	}
	networkReaders := make([]services.NetworkReader, len(readers))
	for i, r := range readers {
		networkReaders[i] = r
	}

	a := &App{cfg: cfg, logger: logger, readers: readers}

	var opts []services.Option
	if cfg.CacheEnabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		opts = append(opts, services.WithCache(store.NewScoreCache(a.redis, cfg.ScoreCachePrefix, cfg.ScoreCacheTTL)))
	}
	if cfg.EventsEnabled() {
		a.publisher = kafka.NewScoreEventPublisher(cfg, logger)
		opts = append(opts, services.WithEventPublisher(a.publisher))
	}
	a.score = services.NewScoreService(networkReaders, cfg.RPCCallTimeout, logger, opts...)

	r, srv := rest.NewServer(cfg, logger)
	rest.NewScoreController(a.score, logger).RegisterScoreRoutes(r.Group(""))
	a.engine = r
	a.httpServer = srv

	logger.Info().
		Int("networks", len(readers)).
		Dur("call_timeout", cfg.RPCCallTimeout).
		Bool("cache", cfg.CacheEnabled()).
		Bool("events", cfg.EventsEnabled()).
		Msg("score service configured")
	return a, nil
}

// Handler exposes the HTTP surface without starting a listener.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Run serves HTTP and blocks until ctx cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runHTTPServer(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (a *App) runHTTPServer(ctx context.Context) error {
	srv := a.httpServer

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("HTTP server started")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	// App context shutdown:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		err := <-serverErr
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	// HTTP server error:
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close releases RPC, Redis and Kafka clients.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing Kafka publisher")
		}
		a.publisher = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing Redis client")
		}
		a.redis = nil
	}
	for _, r := range a.readers {
		r.Close()
	}
	a.readers = nil
}
