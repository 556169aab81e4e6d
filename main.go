package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	config "github.com/CodeAndHammer/guessr/internal/config"
	constants "github.com/CodeAndHammer/guessr/internal/constants"
	handlers "github.com/CodeAndHammer/guessr/internal/handlers"
	models "github.com/CodeAndHammer/guessr/internal/models"
	scoreboard "github.com/CodeAndHammer/guessr/internal/scoreboard"
	session "github.com/CodeAndHammer/guessr/internal/session"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

func main() {
	cfg, err := config.Load()
	util.SetupLogging(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		util.LogFatal("Invalid configuration: %v", err)
	}

	isProduction := cfg.IsProduction()
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	util.LogInfo("Starting guessr in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])
	if isProduction && cfg.UsesDefaultSecret() {
		util.LogWarn("SECRET_KEY is the development default; session cookies can be forged")
	}

	store, err := scoreboard.Open(cfg)
	if err != nil {
		util.LogFatal("Failed to open scoreboard: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			util.LogError(err, "Failed to close scoreboard")
		}
	}()
	util.LogInfo("Scoreboard backend %s at %s", store.Backend(), store.Location())

	app := newApp(cfg, store)
	router := newRouter(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startCleanupRoutines(ctx, app)

	startServer(cfg.Port, router)
}

func newApp(cfg config.Config, store models.ScoreStore) *models.App {
	return &models.App{
		Scores:         store,
		SessionSecret:  []byte(cfg.SecretKey),
		SessionTTL:     cfg.SessionTTL,
		LimiterMap:     make(map[string]*models.RateLimiterEntry),
		IsProduction:   cfg.IsProduction(),
		CSRFEnabled:    cfg.CSRFEnabled,
		StartTime:      time.Now(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RateLimiterTTL: cfg.RateLimiterTTL,
	}
}

func wrap(h func(*models.App, *gin.Context), app *models.App) gin.HandlerFunc {
	return func(c *gin.Context) { h(app, c) }
}

func newRouter(app *models.App) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLoggerMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(noStoreMiddleware())

	router.Use(csrfMiddleware(app))
	router.Use(validateCSRFMiddleware(app))

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	limit := rateLimitMiddleware(app)

	router.GET(constants.RouteHome, wrap(handlers.HomeHandler, app))
	router.GET(constants.RouteHealthz, wrap(handlers.HealthzHandler, app))
	router.GET(constants.RouteStart, wrap(handlers.StartFormHandler, app))
	router.POST(constants.RouteStart, limit, wrap(handlers.StartHandler, app))
	router.GET(constants.RouteGame, wrap(handlers.GameStateHandler, app))
	router.POST(constants.RouteGame, limit, wrap(handlers.GuessHandler, app))
	router.GET(constants.RouteScoreboard, wrap(handlers.ScoreboardHandler, app))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "path": c.Request.URL.Path})
	})

	return router
}

func startServer(port string, router *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); isServeFailure(err) {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

// isServeFailure reports whether ListenAndServe stopped for a reason other
// than a graceful Shutdown.
func isServeFailure(err error) bool {
	return err != nil && !errors.Is(err, http.ErrServerClosed)
}

func noStoreMiddleware() gin.HandlerFunc {
	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
	return func(c *gin.Context) {
		noStore(c)
		c.Next()
	}
}

func startCleanupRoutines(ctx context.Context, app *models.App) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanupStaleRateLimiters(app)
				if n := session.PruneFinished(app); n > 0 {
					util.LogInfo("Pruned %d finished rounds", n)
				}
			}
		}
	}()

	util.LogInfo("Started cleanup routine for rate limiters and finished rounds")
}

func cleanupStaleRateLimiters(app *models.App) int {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	cutoffTime := time.Now().Add(-app.RateLimiterTTL)
	removedCount := 0

	for key, entry := range app.LimiterMap {
		if entry.LastAccess.Before(cutoffTime) {
			delete(app.LimiterMap, key)
			removedCount++
		}
	}

	if len(app.LimiterMap) > 50000 {
		util.LogInfo("Rate limiter map too large (%d entries), performing emergency cleanup", len(app.LimiterMap))

		type limiterInfo struct {
			key        string
			lastAccess time.Time
		}
		limiters := make([]limiterInfo, 0, len(app.LimiterMap))
		for key, entry := range app.LimiterMap {
			limiters = append(limiters, limiterInfo{key: key, lastAccess: entry.LastAccess})
		}
		slices.SortFunc(limiters, func(a, b limiterInfo) int {
			return a.lastAccess.Compare(b.lastAccess)
		})

		entriesToRemove := len(limiters) / 2
		for _, l := range limiters[:entriesToRemove] {
			delete(app.LimiterMap, l.key)
			removedCount++
		}
		util.LogInfo("Removed %d oldest rate limiters", entriesToRemove)
	}

	if removedCount > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removedCount)
	}
	return removedCount
}

// isMutating reports whether method changes server or session state.
func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}
