package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/config"
	"github.com/todo-grow/backend/internal/database"
	"github.com/todo-grow/backend/internal/handlers"
	"github.com/todo-grow/backend/internal/repository"
	"github.com/todo-grow/backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}

	// Initialize services
	store := repository.NewStore(db)
	taskService := services.NewTaskService(store.Tasks())
	todoService := services.NewTodoService(store, taskService)

	var provider services.SocialAuthProvider
	if cfg.KakaoConfigured() {
		provider = services.NewKakaoProvider(cfg.Kakao)
	} else {
		log.Println("Kakao login not configured, social login endpoints will respond 503")
	}
	authService := services.NewAuthService(store.Users(), provider, cfg.Auth)

	aiService := services.NewAIService(cfg.AI)
	if cfg.AI.APIKey == "" {
		log.Println("OPENAI_API_KEY not set, AI generation will respond 503")
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:       cfg,
		SessionStore: sessionStore,
		AuthService:  authService,
		TaskService:  taskService,
		TodoService:  todoService,
		Generator:    aiService,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		log.Printf("Server starting on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server exited")
}

// newSessionStore holds the short-lived OAuth state between the login URL
// request and the provider callback.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.Session.Store == config.SessionStoreRedis {
		rs, err := redisStore.NewStore(
			10,                         // Redis pool size
			"tcp",                      // network type
			cfg.RedisAddr(),            // Redis address from config
			"",                         // username (empty for default user)
			"",                         // password (empty = no password)
			[]byte(cfg.Session.Secret), // authentication key
		)
		if err != nil {
			return nil, err
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
