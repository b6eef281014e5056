// Package handlers holds the HTML controllers. Every handler that touches a
// project, or a task inside one, goes through loadProject or loadTask, which
// apply the access rules and redirect to /projects when they fail.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/access"
	"github.com/taskmanager-dev/taskmanager/internal/auth"
	"github.com/taskmanager-dev/taskmanager/internal/live"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"github.com/taskmanager-dev/taskmanager/internal/services"
	"github.com/taskmanager-dev/taskmanager/internal/session"
	"github.com/taskmanager-dev/taskmanager/internal/types"
	"github.com/taskmanager-dev/taskmanager/internal/utils"
	"github.com/taskmanager-dev/taskmanager/internal/validation"
)

type CookieConfig struct {
	Domain string
	Secure bool
}

type Handler struct {
	svc      *services.Services
	issuer   *auth.TokenIssuer
	hub      *live.Hub
	notifier *services.Notifier
	cookie   CookieConfig
	origins  []string
	logger   *slog.Logger

	users       validation.UserValidator
	credentials validation.CredentialsValidator
	projects    validation.ProjectValidator
	tasks       validation.TaskValidator
	tags        validation.TagValidator
	comments    validation.CommentValidator
}

type Options struct {
	Services       *services.Services
	Issuer         *auth.TokenIssuer
	Hub            *live.Hub
	Notifier       *services.Notifier
	Cookie         CookieConfig
	AllowedOrigins []string
	Logger         *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hub := opts.Hub
	if hub == nil {
		hub = live.NewHub(logger)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = services.NewNotifier(nil, logger)
	}

	return &Handler{
		svc:         opts.Services,
		issuer:      opts.Issuer,
		hub:         hub,
		notifier:    notifier,
		cookie:      opts.Cookie,
		origins:     opts.AllowedOrigins,
		logger:      logger,
		credentials: validation.CredentialsValidator{Lookup: opts.Services.Credentials},
	}
}

func (h *Handler) render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	s, _ := session.Current(ctx)
	data["LoggedUser"] = s.User
	data["IsAdmin"] = s.IsAdmin()

	if _, ok := data["Title"]; !ok {
		data["Title"] = "Taskmanager"
	}

	ctx.HTML(status, name, data)
}

// redirect answers GETs with 302 and form posts with 303 so browsers follow
// up with a GET.
func redirect(ctx *gin.Context, location string) {
	status := http.StatusFound
	if ctx.Request.Method != http.MethodGet {
		status = http.StatusSeeOther
	}
	ctx.Redirect(status, location)
}

func (h *Handler) fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	h.logger.Error("request failed",
		"request_id", ctx.GetString(types.ContextRequestIDKey),
		"path", ctx.Request.URL.Path,
		"error", err,
	)
	h.render(ctx, http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Error",
		"Message": "The request could not be completed.",
	})
}

// loadProject resolves the :id project and applies the guard for action.
// When it returns false the response has already been written.
func (h *Handler) loadProject(ctx *gin.Context, action access.Action) (models.Project, bool) {
	id, err := utils.GetID(ctx, "id")

	if err != nil {
		redirect(ctx, "/projects")
		return models.Project{}, false
	}

	project, err := h.svc.Projects.Get(ctx.Request.Context(), id)

	if errors.Is(err, services.ErrNotFound) {
		redirect(ctx, "/projects")
		return models.Project{}, false
	}

	if err != nil {
		h.fail(ctx, err)
		return models.Project{}, false
	}

	if err := access.Check(session.CurrentUser(ctx), project, action); err != nil {
		h.logger.Info("access denied", "project_id", project.ID, "user_id", session.CurrentUser(ctx).ID, "action", action.String())
		redirect(ctx, "/projects")
		return models.Project{}, false
	}

	return project, true
}

// loadTask resolves the :id task and applies the guard for action against
// the task's project.
func (h *Handler) loadTask(ctx *gin.Context, action access.Action) (models.Task, bool) {
	id, err := utils.GetID(ctx, "id")

	if err != nil {
		redirect(ctx, "/projects")
		return models.Task{}, false
	}

	task, err := h.svc.Tasks.Get(ctx.Request.Context(), id)

	if errors.Is(err, services.ErrNotFound) {
		redirect(ctx, "/projects")
		return models.Task{}, false
	}

	if err != nil {
		h.fail(ctx, err)
		return models.Task{}, false
	}

	if err := access.Check(session.CurrentUser(ctx), task.Project, action); err != nil {
		h.logger.Info("access denied", "task_id", task.ID, "user_id", session.CurrentUser(ctx).ID, "action", action.String())
		redirect(ctx, "/projects")
		return models.Task{}, false
	}

	return task, true
}
