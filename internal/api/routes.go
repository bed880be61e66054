package api

import (
	"net/http"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/metrics"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the router needs.
type Services struct {
	Auth        service.AuthService
	Users       service.UserService
	Connections service.ConnectionService
	Programs    service.ProgramService
	Tree        service.TreeService
	TrainingLog service.TrainingLogService
	Movements   service.MovementService
	Media       service.MediaService
}

// RouterOptions holds the optional pieces of the HTTP stack.
type RouterOptions struct {
	Instrumentation *metrics.Instrumentation // nil disables request metrics
	MetricsPath     string                   // empty disables the scrape endpoint
	RateLimiter     RequestRateLimiter       // nil disables /auth rate limiting
	AuthPerMinute   int
}

func SetupRoutes(router *gin.Engine, services Services, opts RouterOptions) {
	router.Use(LogRequest())
	if opts.Instrumentation != nil {
		router.Use(RequestMetrics(opts.Instrumentation))
	}
	// innermost, so the log and metrics above see the 500
	router.Use(PanicRecovery(opts.Instrumentation))

	authHandler := NewAuthHandler(services.Auth)
	userHandler := NewUserHandler(services.Users)
	connectionHandler := NewConnectionHandler(services.Connections)
	programHandler := NewProgramHandler(services.Programs)
	treeHandler := NewTreeHandler(services.Tree)
	logHandler := NewTrainingLogHandler(services.TrainingLog)
	movementHandler := NewMovementHandler(services.Movements)
	mediaHandler := NewMediaHandler(services.Media)

	authMiddleware := AuthMiddleware(services.Auth)
	coachOnly := RoleMiddleware(domain.RoleCoach)
	athleteOnly := RoleMiddleware(domain.RoleAthlete)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.MetricsPath != "" {
		router.GET(opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	if opts.RateLimiter != nil && opts.AuthPerMinute > 0 {
		authGroup.Use(RateLimit(opts.RateLimiter, "auth", opts.AuthPerMinute, opts.Instrumentation))
	}
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Users ---
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me", userHandler.UpdateMe)
		protected.GET("/users/search", userHandler.SearchUsers)
		protected.GET("/users/:userId", userHandler.GetProfile)

		// --- Connections ---
		connections := protected.Group("/connections")
		{
			connections.GET("", connectionHandler.ListConnections)
			connections.GET("/pending", connectionHandler.ListPending)
			connections.GET("/sent", connectionHandler.ListSent)
			connections.POST("/requests/:userId", connectionHandler.SendRequest)
			connections.DELETE("/requests/:userId", connectionHandler.CancelRequest)
			connections.POST("/requests/:userId/accept", connectionHandler.AcceptRequest)
			connections.POST("/requests/:userId/decline", connectionHandler.DeclineRequest)
			connections.DELETE("/:userId", connectionHandler.Disconnect)
		}

		// --- Blocks ---
		// athletes read their blocks; everything else is for the owning coach
		blocks := protected.Group("/blocks")
		{
			blocks.GET("", programHandler.ListBlocks)
			blocks.GET("/:blockId", programHandler.GetBlock)
			blocks.POST("", coachOnly, programHandler.CreateBlock)
			blocks.PUT("/:blockId", coachOnly, programHandler.UpdateBlock)
			blocks.DELETE("/:blockId", coachOnly, programHandler.DeleteBlock)
			blocks.POST("/:blockId/duplicate", coachOnly, programHandler.DuplicateBlock)
			blocks.POST("/:blockId/save-as-template", coachOnly, programHandler.SaveBlockAsTemplate)
			blocks.POST("/:blockId/weeks", coachOnly, treeHandler.AddBlockWeek)
		}

		// --- Templates ---
		templates := protected.Group("/templates")
		templates.Use(coachOnly)
		{
			templates.GET("", programHandler.ListTemplates)
			templates.POST("", programHandler.CreateTemplate)
			templates.GET("/:templateId", programHandler.GetTemplate)
			templates.PUT("/:templateId", programHandler.UpdateTemplate)
			templates.DELETE("/:templateId", programHandler.DeleteTemplate)
			templates.POST("/:templateId/duplicate", programHandler.DuplicateTemplate)
			templates.POST("/:templateId/assign", programHandler.AssignTemplate)
			templates.POST("/:templateId/weeks", treeHandler.AddTemplateWeek)
		}

		// --- Tree editing ---
		weeks := protected.Group("/weeks")
		weeks.Use(coachOnly)
		{
			weeks.PUT("/:weekId", treeHandler.UpdateWeek)
			weeks.DELETE("/:weekId", treeHandler.DeleteWeek)
			weeks.POST("/:weekId/duplicate", treeHandler.DuplicateWeek)
			weeks.POST("/:weekId/days", treeHandler.AddDay)
		}

		days := protected.Group("/days")
		{
			days.PUT("/:dayId", coachOnly, treeHandler.UpdateDay)
			days.DELETE("/:dayId", coachOnly, treeHandler.DeleteDay)
			days.POST("/:dayId/duplicate", coachOnly, treeHandler.DuplicateDay)
			days.POST("/:dayId/exercises", coachOnly, treeHandler.AddExercise)
			days.PUT("/:dayId/exercises/order", coachOnly, treeHandler.ReorderExercises)
			days.PUT("/:dayId/completion", athleteOnly, logHandler.CompleteDay)
		}

		exercises := protected.Group("/exercises")
		exercises.Use(coachOnly)
		{
			exercises.PUT("/:exerciseId", treeHandler.UpdateExercise)
			exercises.DELETE("/:exerciseId", treeHandler.DeleteExercise)
			exercises.POST("/:exerciseId/sets", treeHandler.AddSet)
		}

		sets := protected.Group("/sets")
		{
			sets.PUT("/:setId", coachOnly, treeHandler.UpdateSet)
			sets.DELETE("/:setId", coachOnly, treeHandler.DeleteSet)

			// --- Training log and videos (athlete) ---
			sets.PUT("/:setId/log", athleteOnly, logHandler.LogSet)
			sets.DELETE("/:setId/log", athleteOnly, logHandler.ClearSetLog)
			sets.POST("/:setId/video/upload-url", athleteOnly, mediaHandler.RequestUploadURL)
			sets.POST("/:setId/video/confirm", athleteOnly, mediaHandler.ConfirmUpload)
			sets.DELETE("/:setId/video", athleteOnly, mediaHandler.DeleteVideo)
			sets.GET("/:setId/video", mediaHandler.GetVideoURL)
		}

		protected.GET("/history", logHandler.ExerciseHistory)

		// --- Movement library ---
		movements := protected.Group("/movements")
		movements.Use(coachOnly)
		{
			movements.GET("", movementHandler.ListMovements)
			movements.POST("", movementHandler.CreateMovement)
			movements.GET("/:movementId", movementHandler.GetMovement)
			movements.PUT("/:movementId", movementHandler.UpdateMovement)
			movements.DELETE("/:movementId", movementHandler.DeleteMovement)
		}
	}
}
