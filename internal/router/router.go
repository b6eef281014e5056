package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/auth"
	"github.com/taskmanager-dev/taskmanager/internal/handlers"
	"github.com/taskmanager-dev/taskmanager/internal/middleware"
	"github.com/taskmanager-dev/taskmanager/internal/web"
)

type Options struct {
	Handler        *handlers.Handler
	Issuer         *auth.TokenIssuer
	Credentials    middleware.CredentialsSource
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(opts Options) (*gin.Engine, error) {
	templates, err := web.Templates()

	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.SetHTMLTemplate(templates)

	h := opts.Handler
	requireSession := middleware.Auth(opts.Issuer, opts.Credentials)

	r.GET("/api/health", handlers.HealthCheck)

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)

	app := r.Group("", requireSession)
	{
		app.GET("/", h.Root)
		app.GET("/home", h.Home)

		projects := app.Group("/projects")
		{
			projects.GET("", h.ListProjects)
			projects.GET("/shared", h.SharedProjects)
			projects.GET("/add", h.NewProjectForm)
			projects.POST("/add", h.CreateProject)
			projects.GET("/delete/:id", h.ConfirmDeleteProject)
			projects.POST("/delete/:id", h.DeleteProject)
			projects.GET("/:id", h.GetProject)
			projects.GET("/:id/update", h.EditProjectForm)
			projects.POST("/:id/update", h.UpdateProject)
			projects.GET("/:id/share", h.ShareProjectForm)
			projects.POST("/:id/share", h.ShareProject)
			projects.GET("/:id/addTask", h.NewTaskForm)
			projects.POST("/:id/addTask", h.AddTask)
			projects.GET("/:id/addTag", h.NewTagForm)
			projects.POST("/:id/addTag", h.AddTag)
		}

		tasks := app.Group("/task")
		{
			tasks.GET("/:id", h.GetTask)
			tasks.GET("/:id/update", h.EditTaskForm)
			tasks.POST("/:id/update", h.UpdateTask)
			tasks.GET("/:id/delete", h.ConfirmDeleteTask)
			tasks.POST("/:id/delete", h.DeleteTask)
			tasks.GET("/:id/assignTo/:userId", h.ConfirmAssignTask)
			tasks.POST("/:id/assignTo/:userId", h.AssignTask)
			tasks.GET("/:id/assignTag/:tagId", h.ConfirmAssignTag)
			tasks.POST("/:id/assignTag/:tagId", h.AssignTag)
			tasks.GET("/:id/addComment", h.NewCommentForm)
			tasks.POST("/:id/addComment", h.AddComment)
		}

		users := app.Group("/users/me")
		{
			users.GET("", h.Me)
			users.GET("/updateProfile", h.EditProfileForm)
			users.POST("/updateProfile", h.UpdateProfile)
		}

		admin := app.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("", h.Admin)
			admin.GET("/users", h.ListUsers)
			admin.POST("/users/:username/delete", h.DeleteUser)
		}

		app.GET("/ws/projects/:id", h.WebSocket)
	}

	return r, nil
}
