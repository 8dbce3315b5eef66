package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/handlers"
	"github.com/monocle-dev/devboard/internal/logging"
	"github.com/monocle-dev/devboard/internal/middleware"
	"github.com/monocle-dev/devboard/internal/services"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Store          store.Store
	Identity       *services.IdentityService
	Projects       *services.ProjectService
	Tasks          *services.TaskService
	Notes          *services.NoteService
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(logging.AccessLog(deps.Logger), gin.Recovery())

	r.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	health := handlers.NewHealthHandler(deps.Store)
	authHandler := handlers.NewAuthHandler(deps.Identity)
	projectHandler := handlers.NewProjectHandler(deps.Projects)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	noteHandler := handlers.NewNoteHandler(deps.Notes)

	requireAuth := middleware.AuthMiddleware(deps.Identity)

	api := r.Group("/api/v1")
	{
		api.GET("/healthcheck", health.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.CreateUser)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.POST("/login", authHandler.LoginUser)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", requireAuth, authHandler.LogoutUser)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.POST("/rotate-keys", requireAuth, authHandler.RotateKeys)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:project_id", projectHandler.GetProject)
			projects.PUT("/:project_id", projectHandler.UpdateProject)
			projects.DELETE("/:project_id", projectHandler.DeleteProject)

			projects.POST("/:project_id/members", projectHandler.AddMember)
			projects.DELETE("/:project_id/members/:member_id", projectHandler.RemoveMember)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:task_id", taskHandler.GetTask)
			tasks.PUT("/:task_id", taskHandler.UpdateTask)
			tasks.DELETE("/:task_id", taskHandler.DeleteTask)

			tasks.POST("/:task_id/subtasks", taskHandler.CreateSubtask)
			tasks.PUT("/:task_id/subtasks/:subtask_id", taskHandler.UpdateSubtask)
			tasks.DELETE("/subtasks/:subtask_id", taskHandler.DeleteSubtask)
		}

		notes := api.Group("/notes", requireAuth)
		{
			notes.POST("", noteHandler.CreateNote)
			notes.GET("/:project_id", noteHandler.ListNotes)
			notes.GET("/note/:note_id", noteHandler.GetNote)
			notes.PUT("/:note_id", noteHandler.UpdateNote)
			notes.DELETE("/:note_id", noteHandler.DeleteNote)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	// cors.New panics on a config that allows no origin at all.
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
