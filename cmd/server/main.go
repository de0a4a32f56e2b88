package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	paystubapp "github.com/evmosdao/paystub/internal/application/paystub"
	"github.com/evmosdao/paystub/internal/bootstrap"
	"github.com/evmosdao/paystub/internal/infrastructure/cache"
	"github.com/evmosdao/paystub/internal/infrastructure/config"
	"github.com/evmosdao/paystub/internal/infrastructure/logger"
	"github.com/evmosdao/paystub/internal/infrastructure/telemetry"
	"github.com/evmosdao/paystub/internal/interfaces/http/handler"
	"github.com/evmosdao/paystub/internal/interfaces/http/middleware"
	"github.com/evmosdao/paystub/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Paystub API
//	@version		1.0
//	@description	Evmos DAO paystub editor and PDF export
//	@BasePath		/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry: traces, metrics, and the OTLP log bridge
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)
	tp, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Bridge(log, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting paystub service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	// Export pipeline. Production refuses to run without the shared guard.
	pipeline, err := bootstrap.NewPipeline(ctx, cfg, log,
		bootstrap.WithMeterProvider(mp),
		bootstrap.WithGuardFallback(!cfg.App.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to build export pipeline", zap.Error(err))
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			log.Error("Error closing export pipeline", zap.Error(err))
		}
	}()

	// The logo loads in the background; sessions render the placeholder until it is ready
	pipeline.Logo.Start(context.WithoutCancel(ctx))

	sessions := paystubapp.NewSessionStore(cfg.HTTP.SessionTTL)
	go sessions.RunJanitor(ctx, cfg.HTTP.SessionTTL/4)

	service := pipeline.NewService(sessions, paystubapp.NewLogNotifier(log))

	// Setup Gin
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(mp))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   profiler.IsEnabled(),
		SkipPaths: middleware.DefaultProfilingConfig().SkipPaths,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(securityConfig(cfg)))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: middleware.DefaultCORSConfig().ExposeHeaders,
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	// Routes
	paystubHandler := handler.NewPaystubHandler(service,
		handler.WithAttachment(cfg.Export.Sink != "s3"),
	)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion)
	if redisGuard, ok := pipeline.Guard.(*cache.RedisExportGuard); ok {
		systemHandler.AddCheck("export_guard", func(ctx context.Context) error {
			return redisGuard.GetClient().Ping(ctx).Err()
		})
	}

	// Each export drives a browser capture, so exports are throttled per client
	var exportLimiter *middleware.RateLimiter
	if cfg.HTTP.ExportRateLimit > 0 {
		exportLimiter = middleware.NewRateLimiter(ctx, cfg.HTTP.ExportRateLimit, cfg.HTTP.ExportRateWindow)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, group := range []*router.DomainGroup{
		handler.PaystubRoutes(paystubHandler, middleware.RateLimit(exportLimiter)),
		handler.LogoRoutes(paystubHandler),
		handler.SystemRoutes(systemHandler),
	} {
		r.Register(group)
		for _, route := range group.Routes() {
			log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", "/api/v1"+route.Path))
		}
	}
	r.Setup()

	// Files written by the filesystem sink are served under the configured base URL
	if cfg.Export.Sink == "filesystem" && len(cfg.Export.BaseURL) > 1 && cfg.Export.BaseURL[0] == '/' {
		engine.Static(cfg.Export.BaseURL, cfg.Export.OutputDir)
	}

	// Root-level health for load balancers
	engine.GET("/health", systemHandler.Health)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func securityConfig(cfg *config.Config) middleware.SecurityConfig {
	sc := middleware.DefaultSecurityConfig()
	sc.HSTSEnabled = cfg.App.IsProduction()
	return sc
}
