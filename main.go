package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/db"
	"github.com/GEAN1412/voxvideo-studio/entitlement"
	"github.com/GEAN1412/voxvideo-studio/genai"
	"github.com/GEAN1412/voxvideo-studio/generation"
	"github.com/GEAN1412/voxvideo-studio/handlers"
	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/middleware"
	"github.com/GEAN1412/voxvideo-studio/payment"
	"github.com/GEAN1412/voxvideo-studio/session"
	"github.com/GEAN1412/voxvideo-studio/worker"
)

const defaultAdminEmail = "admin@voxvideo.com"

func init() {
	// Load environment variables
	dotenvErr := godotenv.Load()

	development := os.Getenv("GIN_MODE") != "release"
	if err := logger.Init(development, logger.LogLevel(os.Getenv("LOG_LEVEL"))); err != nil {
		panic(err)
	}
	if dotenvErr != nil {
		logger.Get().Warn(".env file not found")
	}
}

func main() {
	log := logger.Get()
	defer logger.Sync()

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			log.Warn("Sentry initialization failed", zap.Error(err))
		}
	}

	store, err := db.Init()
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	sessions := session.NewManager(store, []byte(secret), adminEmail)
	orch := generation.NewOrchestrator(store, genai.NewClient(apiKey), entitlement.Evaluator{AdminEmail: adminEmail})
	if v := durationEnv("VIDEO_POLL_INTERVAL"); v > 0 {
		orch.PollInterval = v
	}
	if n := intEnv("VIDEO_MAX_POLLS"); n > 0 {
		orch.MaxPolls = n
	}

	pool := worker.NewPool(intEnvDefault("VIDEO_WORKERS", 4), orch)
	pool.Start()
	defer pool.Stop()

	svc := &handlers.Service{
		Sessions: sessions,
		Profiles: store,
		Payments: payment.NewWorkflow(store),
		Orch:     orch,
		Pool:     pool,
	}

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})
	router.Use(middleware.Cors())
	if os.Getenv("SENTRY_DSN") != "" {
		router.Use(sentrygin.New(sentrygin.Options{}))
	}

	memoryStore := persist.NewMemoryStore(6 * time.Hour)

	api := router.Group("/api")
	{
		api.POST("/auth/login", svc.HandleLogin)
		api.GET("/voices", cache.CacheByRequestURI(memoryStore, 1*time.Hour), svc.HandleListVoices)

		authed := api.Group("")
		authed.Use(middleware.Auth(sessions))
		{
			authed.POST("/auth/logout", svc.HandleLogout)
			authed.GET("/profile", svc.HandleGetProfile)

			authed.POST("/voice/generate", svc.HandleVoiceGenerate)
			authed.POST("/voice/preview", svc.HandleVoicePreview)
			authed.POST("/image/generate", svc.HandleImageGenerate)

			authed.POST("/video/generate", svc.HandleVideoGenerate)
			authed.GET("/video/jobs/:id/events", svc.HandleVideoEvents)
			authed.GET("/video/jobs/:id/result", svc.HandleVideoResult)

			authed.POST("/payment/confirm", svc.HandlePaymentConfirm)

			admin := authed.Group("/admin")
			admin.Use(middleware.AdminRequired)
			{
				admin.GET("/profiles", svc.HandleListProfiles)
				admin.POST("/approve", svc.HandleApprove)
				admin.GET("/metrics", gin.WrapF(pool.MetricsHandler))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("Server starting", zap.String("port", port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}

func durationEnv(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Get().Warn("invalid duration in environment", zap.String("key", key), zap.String("value", v))
		return 0
	}
	return d
}

func intEnv(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Get().Warn("invalid integer in environment", zap.String("key", key), zap.String("value", v))
		return 0
	}
	return n
}

func intEnvDefault(key string, fallback int) int {
	if n := intEnv(key); n > 0 {
		return n
	}
	return fallback
}
