package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"dareduel/database"
	"dareduel/internal/config"
	"dareduel/internal/microservices/http-api/handler"
	"dareduel/internal/microservices/http-api/middleware"
	"dareduel/internal/microservices/http-api/repository"
	"dareduel/internal/microservices/http-api/service"
	"dareduel/internal/microservices/websocket"
	"dareduel/internal/sweeper"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("could not open pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// presence degrades to "everyone offline", the game still works
		logger.Warn("redis unreachable, presence disabled", "addr", cfg.RedisAddr, "error", err)
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)

	// presence + realtime hub
	presence := service.NewPresenceService(rdb, cfg.PresenceTTL, logger)
	hub := websocket.NewHub(presence, friendRepo, challengeRepo, logger)
	go hub.Run(ctx)

	// services
	friendCodes := service.NewFriendCodeService(userRepo)
	authService := service.NewAuthService(userRepo, refreshTokenRepo, friendCodes, cfg)
	userService := service.NewUserService(userRepo, friendCodes)
	notificationService := service.NewNotificationService(notificationRepo, hub, logger)
	friendService := service.NewFriendService(userRepo, friendRepo, notificationService, presence, hub, logger)
	statsService := service.NewStatsService(statsRepo, leaderboardRepo)
	challengeService := service.NewChallengeService(challengeRepo, friendRepo, userRepo, notificationService, statsService, hub, logger)

	// background expiry of unanswered challenges
	expiry := sweeper.New(challengeService, cfg.ChallengePendingTTL, cfg.ChallengeSweepPeriod, cfg.ChallengeSweepWorkers, logger)
	go expiry.Run(ctx)

	router := setupRouter(cfg, authService, userService, friendCodes, friendService, challengeService, notificationService, statsService, hub)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("api server listening", "addr", addr, "env", cfg.GoEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func setupRouter(
	cfg *config.Config,
	authService service.AuthService,
	userService service.UserService,
	friendCodes service.FriendCodeService,
	friendService service.FriendService,
	challengeService service.ChallengeService,
	notificationService service.NotificationService,
	statsService service.StatsService,
	hub *websocket.Hub,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connected_users": hub.ConnectedUsers()})
	})

	authLimited := middleware.RateLimit(rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst)
	authGroup := r.Group("/api/auth", authLimited)
	handler.NewAuthHandler(authService, int64(cfg.AccessTokenTTL.Seconds())).RegisterRoutes(authGroup)

	authed := middleware.AuthMiddleware(authService)

	users := r.Group("/api/users", authed)
	handler.NewUserHandler(userService, friendCodes).RegisterRoutes(users)

	friends := r.Group("/api/friends", authed)
	handler.NewFriendHandler(friendService, friendCodes).RegisterRoutes(friends)

	challenges := r.Group("/api/challenges", authed)
	handler.NewChallengeHandler(challengeService).RegisterRoutes(challenges)

	notifications := r.Group("/api/notifications", authed)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(notifications)

	stats := r.Group("/api/stats", authed)
	handler.NewStatsHandler(statsService).RegisterRoutes(stats)

	// websocket endpoint authenticates via ?token=, not the middleware
	r.GET("/ws", websocket.WSHandler(hub, authService))

	return r
}
