package main

import (
	"auth-session-server/config"
	_ "auth-session-server/docs"
	"auth-session-server/internal/handler"
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/repository"
	"auth-session-server/internal/security"
	"auth-session-server/internal/service"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Auth-session-server
// @version 1.0
// @description Аутентификация, ротация refresh токенов и управление сессиями устройств

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Ошибка создания логгера: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := config.SetupDatabase(&cfg.DatabaseConfig)
	if err != nil {
		logger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Ошибка при закрытии БД", zap.Error(err))
		}
	}()

	// Redis необязателен: без него blacklist читается из БД, а лимит входа
	// держится только на счётчике неудач в журнале
	var (
		blacklistCache ports.BlacklistCache
		rateLimiter    ports.RateLimiter
	)
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			logger.Warn("Redis недоступен, работаем без кэша и лимитера", zap.Error(err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("Ошибка при закрытии Redis", zap.Error(err))
				}
			}()
			blacklistCache = repository.NewBlacklistCacheRepository(redisClient)
			rateLimiter = repository.NewRateLimitRepository(redisClient)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	durations, err := parseDurations(cfg)
	if err != nil {
		logger.Fatal("Некорректная длительность в конфигурации", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db)
	rotationRepo := repository.NewRotationRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	externalRepo := repository.NewExternalSessionRepository(db)

	jwtService, err := security.NewJWTService(&cfg.JWT)
	if err != nil {
		logger.Fatal("Ошибка создания JWT сервиса", zap.Error(err))
	}

	blacklistService := service.NewBlacklistService(blacklistRepo, blacklistCache, sessionRepo, rotationRepo, m, logger.Named("blacklist"),
		durations.blacklistCacheTTL, durations.blacklistCheckTimeout)
	rotationService := service.NewRotationService(rotationRepo, logger.Named("rotation"))
	sessionService := service.NewSessionService(sessionRepo, m, logger.Named("session"), nil,
		durations.sessionLookback, cfg.Security.SessionSuspicionScore)
	auditService := service.NewAuditService(auditRepo, m, logger.Named("audit"),
		cfg.Security.SuspiciousFailedLogins, cfg.Security.SuspiciousLookbackEvents, durations.suspiciousWindow)

	authService := service.NewAuthenticationService(userRepo, jwtService, blacklistService, rotationService, sessionService, auditService,
		rateLimiter, m, logger.Named("auth"), service.AuthSettings{
			LoginRateLimit:       cfg.Security.LoginRateLimit,
			LoginRateWindow:      durations.loginRateWindow,
			FailureWindowMinutes: cfg.Security.FailureWindowMinutes,
			MaxFailuresPerIP:     cfg.Security.MaxFailuresPerIP,
			ReuseRevokeRetries:   cfg.Security.ReuseRevokeRetries,
		})

	var archiver service.AuditArchiver
	if cfg.Archive.Enabled {
		s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
		if err != nil {
			logger.Fatal("Ошибка создания S3 сервиса", zap.Error(err))
		}
		archiver = service.NewAuditArchiveService(auditRepo, s3Service, logger.Named("archive"), cfg.Archive.RetentionDays, cfg.Archive.BatchSize)
	}
	cleanupService := service.NewCleanupService(blacklistService, rotationService, sessionService, archiver, m, logger.Named("cleanup"), durations.cleanupInterval)
	go cleanupService.Run(ctx)

	authMiddleware := security.NewAuthMiddleware(jwtService, blacklistService, sessionService, externalRepo, auditService, m,
		cfg.External.CookieName, logger.Named("middleware"))
	authHandler := handler.NewAuthenticationHandler(authService, logger.Named("handler"))
	sessionHandler := handler.NewSessionHandler(authService, logger.Named("handler"))

	srv, router := config.SetupServer(cfg.ServerAddr)

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", healthHandler(db))

	setupAuthRoutes(router, authHandler, sessionHandler, authMiddleware)

	runServer(ctx, srv, logger)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, sh *handler.SessionHandler, mw *security.AuthMiddleware) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(mw.DualAuth)
			r.Get("/me", h.GetCurrentUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Post("/logout", h.Logout)
			r.Put("/password", h.ChangePassword)

			r.Get("/sessions", sh.ListSessions)
			r.Delete("/sessions", sh.RevokeAllSessions)
			r.Delete("/sessions/{id}", sh.RevokeSession)
			r.Get("/families/{family}", sh.TokenFamily)
		})
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Use(mw.OptionalAuth)
		r.Get("/ping", h.Ping)
	})
}

func healthHandler(db *config.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type serviceDurations struct {
	blacklistCacheTTL     time.Duration
	blacklistCheckTimeout time.Duration
	loginRateWindow       time.Duration
	suspiciousWindow      time.Duration
	sessionLookback       time.Duration
	cleanupInterval       time.Duration
}

func parseDurations(cfg *config.AppConfig) (serviceDurations, error) {
	var (
		d   serviceDurations
		err error
	)
	parse := func(value string, fallback time.Duration) time.Duration {
		if err != nil {
			return 0
		}
		var parsed time.Duration
		parsed, err = config.Duration(value, fallback)
		return parsed
	}

	d.blacklistCacheTTL = parse(cfg.Security.BlacklistCacheTTL, 5*time.Second)
	d.blacklistCheckTimeout = parse(cfg.Security.BlacklistCheckTimeout, 300*time.Millisecond)
	d.loginRateWindow = parse(cfg.Security.LoginRateWindow, time.Minute)
	d.suspiciousWindow = parse(cfg.Security.SuspiciousWindow, time.Hour)
	d.sessionLookback = parse(cfg.Security.SessionLookback, 30*24*time.Hour)
	d.cleanupInterval = parse(cfg.Cleanup.Interval, time.Hour)
	return d, err
}

func runServer(ctx context.Context, server *http.Server, logger *zap.Logger) {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("сервер запущен", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ошибка работы сервера", zap.Error(err))
		}
	case sig := <-signalChannel:
		logger.Info("получен сигнал остановки работы сервера", zap.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		logger.Warn("ошибка при остановке сервера", zap.Error(err))
	} else {
		logger.Info("сервер успешно остановлен")
	}
}
