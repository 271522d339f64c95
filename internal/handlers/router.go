package handlers

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/config"
	"github.com/todo-grow/backend/internal/constants"
	"github.com/todo-grow/backend/internal/middleware"
	"github.com/todo-grow/backend/internal/services"
)

// RouterDeps are the collaborators the HTTP layer is built from
type RouterDeps struct {
	Config       *config.Config
	SessionStore sessions.Store
	AuthService  *services.AuthService
	TaskService  *services.TaskService
	TodoService  *services.TodoService
	Generator    services.TaskGenerator
}

// NewRouter wires middleware, handlers and routes into a gin engine
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	authHandler := NewAuthHandler(deps.AuthService, cfg.Kakao.FrontendURL)
	todoHandler := NewTodoHandler(deps.TodoService, deps.TaskService, deps.Generator)
	taskHandler := NewTaskHandler(deps.TaskService, deps.TodoService)

	requireAuth := middleware.RequireAuth(deps.AuthService)
	if cfg.Auth.Disabled {
		log.Printf("Warning: authentication disabled, all requests act as user %d", cfg.Auth.DevUserID)
		requireAuth = middleware.DevAuth(cfg.Auth.DevUserID)
	}

	generateLimit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		generateLimit = middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize))
	}

	requireTodo := middleware.RequireTodoAccess(deps.TodoService)
	requireTask := middleware.RequireTaskAccess(deps.TaskService)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.GET("/kakao/url", authHandler.KakaoLoginURL)
			auth.GET("/kakao", authHandler.KakaoCallback)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.DELETE("/withdraw", requireAuth, authHandler.Withdraw)
		}

		// Todo routes (protected)
		todos := api.Group("/todos")
		todos.Use(requireAuth)
		{
			todos.GET("", todoHandler.ListTodos)
			todos.POST("", todoHandler.CreateTodo)
			todos.POST("/bulk", todoHandler.BulkCreateTodo)
			todos.POST("/ai", generateLimit, todoHandler.GenerateTodo)
			todos.GET("/:id", requireTodo, todoHandler.GetTodo)
			todos.DELETE("/:id", requireTodo, todoHandler.DeleteTodo)
			todos.GET("/:id/tasks", requireTodo, todoHandler.GetTodoTasks)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", requireTask, taskHandler.GetTask)
			tasks.PATCH("/:id", requireTask, taskHandler.UpdateTask)
			tasks.PATCH("/:id/toggle", requireTask, taskHandler.ToggleTask)
			tasks.DELETE("/:id", requireTask, taskHandler.DeleteTask)
		}
	}

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}

	corsCfg.AllowOrigins = cfg.AllowedOrigins
	corsCfg.AllowCredentials = true
	return corsCfg
}
