package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"souqly/internal/cache"
	"souqly/internal/config"
	"souqly/internal/database"
	"souqly/internal/handler"
	"souqly/internal/queue"
	appredis "souqly/internal/redis"
	"souqly/internal/repository"
	"souqly/internal/service"
	"souqly/internal/worker"
)

// Run wires the whole application together and serves HTTP until the
// process receives SIGINT/SIGTERM.
func Run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	redisClient, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	tokenRepo := repository.NewDeviceTokenRepository(db)

	// 5. Cache and queue
	likesCache := cache.NewLikesCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// 6. Services
	userService := service.NewUserService(userRepo, followRepo)
	authService := service.NewAuthService(cfg)
	followService := service.NewFollowService(followRepo, userRepo, db, publisher)
	feedService := service.NewFeedService(productRepo, categoryRepo, userRepo, likesCache, db, publisher)

	var mediaService *service.MediaService
	if ms, err := service.NewMediaService(ctx, cfg); err != nil {
		// Uploads are disabled but everything else keeps working
		log.Printf("[Server] Media service disabled: %v", err)
	} else {
		mediaService = ms
	}

	expoPush := service.NewExpoPushClient()
	notifService := service.NewNotificationService(notifRepo, tokenRepo, userRepo, expoPush)

	// 7. Notification workers consuming the activity stream
	workerHandler := worker.NewHandler(productRepo, notifService)
	manager := worker.NewManager(consumer, workerHandler, worker.DefaultManagerConfig())
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer manager.Stop()

	// 8. HTTP handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService),
		UserHandler:         handler.NewUserHandler(userService, mediaService),
		FollowHandler:       handler.NewFollowHandler(followService),
		FeedHandler:         handler.NewFeedHandler(feedService, mediaService, cfg),
		NotificationHandler: handler.NewNotificationHandler(notifService),
		JWTSecret:           cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 9. Serve until interrupted, then drain in-flight requests
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("[Server] Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Println("[Server] Stopped")
	return nil
}
