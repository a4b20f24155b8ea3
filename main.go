package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"schulte/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logFatal("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app := newApp(cfg)
	logInfo("Starting Schulte in %s mode", map[bool]string{true: "production", false: "development"}[app.IsProduction])
	logInfo("Default session: %dx%d, mode %s (max %dx%d)",
		cfg.DefaultRows, cfg.DefaultCols, cfg.DefaultMode.Key(), cfg.MaxRows, cfg.MaxCols)

	router := app.setupRouter()

	ctx, cancel := context.WithCancel(context.Background())
	go app.runSweeper(ctx, cfg.SweepInterval)

	app.startServer(router)
	cancel()
}

// setupRouter builds the Gin engine with middleware and every route.
func (app *App) setupRouter() *gin.Engine {
	router := gin.Default()

	// the event stream flushes per event; a gzip writer would buffer it
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedPaths([]string{RouteEvents})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(requestIDMiddleware())
	router.Use(app.cacheHeadersMiddleware())

	// Optional front end: served only when a static/ directory is deployed.
	if dirExists("static") {
		logInfo("Serving static assets from static/ directory")
		router.Static("/static", "./static")
	}

	router.GET(RouteHealth, app.healthzHandler)
	router.GET(RouteState, app.stateHandler)
	router.GET(RouteModes, app.modesHandler)
	router.GET(RouteEvents, app.eventsHandler)

	limited := router.Group("", app.rateLimitMiddleware())
	limited.POST(RouteStart, app.startHandler)
	limited.POST(RouteStop, app.stopHandler)
	limited.POST(RouteToggle, app.toggleHandler)
	limited.POST(RouteSelect, app.selectHandler)
	limited.POST(RouteHover, app.hoverHandler)
	limited.POST(RouteLeave, app.leaveHandler)
	limited.POST(RouteDimensions, app.dimensionsHandler)
	limited.POST(RouteMode, app.modeHandler)

	return router
}

// startServer runs the HTTP server until SIGINT or SIGTERM, then shuts it
// down gracefully.
func (app *App) startServer(router *gin.Engine) {
	port := app.Config.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		// streams only end when their hub closes
		app.closeAllSessions()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
