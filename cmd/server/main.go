package main

import (
	"log"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/taskify-dev/taskify-api/internal/config"
	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/handlers"
	"github.com/taskify-dev/taskify-api/internal/metrics"
	"github.com/taskify-dev/taskify-api/internal/middleware"
	"github.com/taskify-dev/taskify-api/internal/notify"
	"github.com/taskify-dev/taskify-api/internal/oauth"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/services"
	"github.com/taskify-dev/taskify-api/internal/storage"
	"github.com/taskify-dev/taskify-api/internal/verification"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs the verification code store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	codeStore := verification.NewCodeStore(rdb, constants.VerificationCodeTTL)

	// Attachment storage: MinIO when configured, local disk otherwise
	var store storage.Store
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		store = minioStore
	} else {
		localStore, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to prepare upload directory: %v", err)
		}
		store = localStore
	}

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SkipEmailSending)

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, services.NoopDispatcher{})
	authService := services.NewAuthService(userRepo, codeStore, mailer, cfg.PrivateKey)
	userService := services.NewUserService(userRepo)
	teamService := services.NewTeamService(teamRepo, userRepo, notificationService)
	projectService := services.NewProjectService(projectRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, store, notificationService, aiService)

	// The assistant answers from rules unless OpenAI is configured
	var responder services.Responder = services.NewRuleResponder()
	if cfg.OpenAIAPIKey != "" {
		responder = services.NewOpenAIResponder(cfg.OpenAIAPIKey)
	}

	// OAuth providers
	providers := []*oauth.Provider{}
	if cfg.GithubClientID != "" {
		providers = append(providers, oauth.NewGithubProvider(cfg.GithubClientID, cfg.GithubClientSecret))
	}
	if cfg.GoogleClientID != "" {
		providers = append(providers, oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI))
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	chatbotHandler := handlers.NewChatbotHandler(responder)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	oauthHandler := handlers.NewOAuthHandler(authService, providers...)

	// Initialize Gin router
	r := gin.Default()
	r.Use(metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Cookie sessions carry the chatbot conversation state
	isProduction := cfg.GinMode == "release"
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	// Serve locally stored attachments
	if cfg.MinioEndpoint == "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Taskify API is running",
		})
	})
	r.GET("/metrics", metrics.Handler())

	requireAuth := middleware.RequireAuth(cfg.PrivateKey)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/2fa/send-email-code", authHandler.SendEmailCode)
			auth.POST("/2fa/verify-email-code", authHandler.VerifyEmailCode)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.POST("/totp/enable", requireAuth, authHandler.EnableTwoFactor)
			auth.POST("/totp/verify", requireAuth, authHandler.VerifyTwoFactor)
			auth.POST("/totp/disable", requireAuth, authHandler.DisableTwoFactor)
		}

		// OAuth helper routes (public)
		api.GET("/getAccessToken", oauthHandler.GetAccessToken)
		api.GET("/getUserData", oauthHandler.GetUserData)

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.PUT("/:id/roles", userHandler.UpdateUserRoles)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("/user", teamHandler.ListUserTeams)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.GetTeam)
			teams.PUT("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.UpdateTeam)
			teams.DELETE("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.DeleteTeam)
			teams.POST("/:id/members", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.AddMember)
			teams.DELETE("/:id/members/:user_id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.RemoveMember)
			teams.PATCH("/:id/members/:user_id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.UpdateMemberRole)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.PATCH("/:id/reschedule", middleware.RequireTaskAccess(), taskHandler.Reschedule)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
			tasks.DELETE("/:id/attachment", middleware.RequireTaskAccess(), taskHandler.DeleteAttachment)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), taskHandler.AddComment)
			tasks.DELETE("/:id/comments/:comment_id", middleware.RequireTaskAccess(), taskHandler.DeleteComment)
		}

		// Chatbot route (protected)
		api.POST("/chatbot/message", requireAuth, chatbotHandler.Message)

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}
	}

	// Start server
	slog.Info("server starting", "addr", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
