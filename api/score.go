// Package handler holds the serverless entry points. Each file is routed as
// its own function by the platform: score.go serves /api/score and check.go
// serves /api/check. Both run the engine the standalone binary runs.
package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	service "github.com/haMahdiyar/analyzer-galxe-refdrop/internal"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/config"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/logging"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/rest"
)

var (
	once    sync.Once
	app     *service.App
	initErr error

	// fallback answers while the app could not be built: preflight still
	// gets its CORS headers, everything else a 500 zero score.
	fallback http.Handler
)

func setup() {
	cfg, err := config.LoadConfig()
	if err != nil {
		initErr = err
		logging.New("galxe-score", "info", "json").Error().Err(err).Msg("failed to load config")
	} else {
		logger := logging.New("galxe-score", cfg.LogLevel, cfg.LogFormat)
		app, initErr = service.NewApp(context.Background(), cfg, logger)
		if initErr != nil {
			logger.Error().Err(initErr).Msg("failed to build app")
		}
	}
	if initErr != nil {
		fallback = fallbackEngine()
	}
}

func fallbackEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(rest.CORS(config.AllowedOrigins()))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"score": 0})
	})
	return r
}

// Handler serves one /api/score invocation.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		fallback.ServeHTTP(w, r)
		return
	}
	app.Handler().ServeHTTP(w, r)
}
