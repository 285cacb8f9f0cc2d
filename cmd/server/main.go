// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/collabnet/internal/auth"
	"github.com/jason-s-yu/collabnet/internal/cache"
	"github.com/jason-s-yu/collabnet/internal/chat"
	"github.com/jason-s-yu/collabnet/internal/config"
	"github.com/jason-s-yu/collabnet/internal/database"
	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/handlers"
	"github.com/jason-s-yu/collabnet/internal/matching"
	"github.com/jason-s-yu/collabnet/internal/media"
	"github.com/jason-s-yu/collabnet/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.JWTPrivateKeyPath != "" {
		err = auth.InitFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.TokenTTL)
	} else {
		logger.Warn("no JWT key files configured; sessions will not survive a restart")
		err = auth.Init(cfg.TokenTTL)
	}
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	ctx := context.Background()

	// postgres
	pool, err := database.ConnectDB(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connect: %v", err)
	}
	defer pool.Close()
	store := database.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatalf("postgres migrate: %v", err)
	}

	// mongo
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	messages := chat.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := messages.EnsureIndexes(ctx); err != nil {
		logger.Fatalf("mongo indexes: %v", err)
	}

	// redis
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	rc := cache.New(rdb, cfg.SuggestionCacheTTL)

	// media
	var objects handlers.MediaStore
	switch cfg.MediaBackend {
	case "s3":
		objects, err = media.NewS3Store(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL)
	default:
		objects, err = media.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL)
	}
	if err != nil {
		logger.Fatalf("%s connect: %v", cfg.MediaBackend, err)
	}

	api := handlers.NewServer(handlers.Deps{
		Users:      store,
		Posts:      store,
		Collab:     store,
		Friends:    friends.NewService(store, rc),
		Matching:   matching.NewService(store, store, rc),
		Chat:       chat.NewService(messages, rc),
		Media:      objects,
		Subscriber: rc,
		Logger:     logger,
	})

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.LogMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", api.Routes())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
