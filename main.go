package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/handlers"
	"social-service/internal/identity"
	"social-service/internal/logger"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/services"
	"social-service/internal/telemetry"
	"social-service/internal/uploader"
	"social-service/internal/ws"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.Telemetry)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}

	database, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	logger.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)))
	emitter := telemetry.NewEmitter(publisher, cfg.ServiceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	postRepo := repositories.NewPostRepo(database)

	imgur := uploader.NewClient(cfg.Imgur)
	if !imgur.Enabled() {
		logger.Warn("IMGUR_CLIENT_ID not set, image attachments will be dropped")
	}

	verifier := identity.NewTokenVerifier(cfg.Identity)
	resolver := identity.NewResolver(userRepo, emitter)

	hub := ws.NewHub(emitter)

	messageService := services.NewMessageService(userRepo, messageRepo, imgur, emitter, hub)
	postService := services.NewPostService(userRepo, postRepo, imgur, emitter)
	userService := services.NewUserService(userRepo)

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatal("failed to register validators", zap.Error(err))
	}

	userHandler := handlers.NewUserHandler(userService)
	messageHandler := handlers.NewMessageHandler(messageService)
	postHandler := handlers.NewPostHandler(postService)
	inboxWS := ws.NewInboxHandler(hub, emitter)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier, resolver)
	optionalAuth := middleware.OptionalAuth(verifier, resolver)

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/me", authMiddleware, userHandler.Me)
	router.GET("/users/:username", optionalAuth, userHandler.GetByUsername)

	router.GET("/conversations", authMiddleware, messageHandler.ListConversations)
	router.GET("/conversations/:user_id/messages", authMiddleware, messageHandler.ListThread)
	router.POST("/messages", authMiddleware, messageHandler.SendMessage)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.GET("/posts", optionalAuth, postHandler.ListPosts)
	router.POST("/posts", authMiddleware, postHandler.CreatePost)
	router.DELETE("/posts/:post_id", authMiddleware, postHandler.DeletePost)
	router.POST("/posts/:post_id/likes", authMiddleware, postHandler.LikePost)
	router.DELETE("/posts/:post_id/likes", authMiddleware, postHandler.UnlikePost)
	router.POST("/posts/:post_id/comments", authMiddleware, postHandler.CreateComment)
	router.DELETE("/comments/:comment_id", authMiddleware, postHandler.DeleteComment)

	router.GET("/ws", authMiddleware, inboxWS.Handle)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", zap.Error(err))
	}
}
