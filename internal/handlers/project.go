package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/access"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"github.com/taskmanager-dev/taskmanager/internal/services"
	"github.com/taskmanager-dev/taskmanager/internal/session"
	"github.com/taskmanager-dev/taskmanager/internal/validation"
)

type ProjectForm struct {
	Name           string `form:"name"`
	Description    string `form:"description"`
	SlackWebhook   string `form:"slack_webhook"`
	DiscordWebhook string `form:"discord_webhook"`
}

func (f ProjectForm) apply(project *models.Project) {
	project.Name = strings.TrimSpace(f.Name)
	project.Description = strings.TrimSpace(f.Description)
	project.SlackWebhook = strings.TrimSpace(f.SlackWebhook)
	project.DiscordWebhook = strings.TrimSpace(f.DiscordWebhook)
}

type ShareForm struct {
	Username string `form:"username"`
}

func projectPath(id uint) string {
	return fmt.Sprintf("/projects/%d", id)
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	projects, err := h.svc.Projects.OwnedBy(ctx.Request.Context(), session.CurrentUser(ctx))

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.render(ctx, http.StatusOK, "projects.html", gin.H{
		"Title":    "My projects",
		"Projects": projects,
		"Shared":   false,
	})
}

func (h *Handler) SharedProjects(ctx *gin.Context) {
	projects, err := h.svc.Projects.SharedWith(ctx.Request.Context(), session.CurrentUser(ctx))

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.render(ctx, http.StatusOK, "projects.html", gin.H{
		"Title":    "Shared with me",
		"Projects": projects,
		"Shared":   true,
	})
}

func (h *Handler) GetProject(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.View)

	if !ok {
		return
	}

	members, err := h.svc.Users.Members(ctx.Request.Context(), project)

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.render(ctx, http.StatusOK, "project.html", gin.H{
		"Title":   project.Name,
		"Project": project,
		"IsOwner": access.IsOwner(session.CurrentUser(ctx), project),
		"Members": members,
		"Tags":    project.Tags,
		"Tasks":   project.Tasks,
	})
}

func (h *Handler) NewProjectForm(ctx *gin.Context) {
	h.renderProjectForm(ctx, http.StatusOK, "New project", "/projects/add", models.Project{}, nil)
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	var form ProjectForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, "/projects/add")
		return
	}

	user := session.CurrentUser(ctx)
	project := models.Project{OwnerID: user.ID, Owner: user}
	form.apply(&project)

	errs := &validation.Errors{}
	h.projects.Validate(ctx.Request.Context(), project, errs)

	if errs.HasErrors() {
		h.renderProjectForm(ctx, http.StatusUnprocessableEntity, "New project", "/projects/add", project, errs)
		return
	}

	if err := h.svc.Projects.Save(ctx.Request.Context(), &project); err != nil {
		h.fail(ctx, err)
		return
	}

	h.logger.Info("project created", "project_id", project.ID, "owner_id", user.ID)
	redirect(ctx, projectPath(project.ID))
}

func (h *Handler) EditProjectForm(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	h.renderProjectForm(ctx, http.StatusOK, "Edit "+project.Name, projectPath(project.ID)+"/update", project, nil)
}

// UpdateProject overwrites the editable fields only. The owner, members,
// tasks and tags of the stored project are untouched.
func (h *Handler) UpdateProject(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	var form ProjectForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, projectPath(project.ID)+"/update")
		return
	}

	form.apply(&project)

	errs := &validation.Errors{}
	h.projects.Validate(ctx.Request.Context(), project, errs)

	if errs.HasErrors() {
		h.renderProjectForm(ctx, http.StatusUnprocessableEntity, "Edit project", projectPath(project.ID)+"/update", project, errs)
		return
	}

	if err := h.svc.Projects.Save(ctx.Request.Context(), &project); err != nil {
		h.fail(ctx, err)
		return
	}

	h.hub.Broadcast(project.ID, "Project updated")
	redirect(ctx, projectPath(project.ID))
}

func (h *Handler) renderProjectForm(ctx *gin.Context, status int, title, action string, project models.Project, errs *validation.Errors) {
	h.render(ctx, status, "projectForm.html", gin.H{
		"Title":   title,
		"Action":  action,
		"Project": project,
		"Errors":  errs,
	})
}

func (h *Handler) ConfirmDeleteProject(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	h.render(ctx, http.StatusOK, "confirmDeleteProject.html", gin.H{
		"Title":   "Delete " + project.Name,
		"Project": project,
	})
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	if err := h.svc.Projects.Delete(ctx.Request.Context(), &project); err != nil {
		h.fail(ctx, err)
		return
	}

	h.logger.Info("project deleted", "project_id", project.ID, "owner_id", project.OwnerID)
	h.hub.Broadcast(project.ID, "Project deleted")
	redirect(ctx, "/home")
}

func (h *Handler) ShareProjectForm(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	h.render(ctx, http.StatusOK, "shareProject.html", gin.H{
		"Title":   "Share " + project.Name,
		"Project": project,
	})
}

// ShareProject adds the user behind the submitted username to the members.
// An unknown username sends the caller home without changing anything.
func (h *Handler) ShareProject(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	var form ShareForm

	if err := ctx.ShouldBind(&form); err != nil || strings.TrimSpace(form.Username) == "" {
		redirect(ctx, "/home")
		return
	}

	credentials, err := h.svc.Credentials.GetByUsername(ctx.Request.Context(), form.Username)

	if errors.Is(err, services.ErrNotFound) {
		redirect(ctx, "/home")
		return
	}

	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := h.svc.Projects.Share(ctx.Request.Context(), &project, credentials.User); err != nil {
		h.fail(ctx, err)
		return
	}

	h.logger.Info("project shared", "project_id", project.ID, "user_id", credentials.UserID)
	h.hub.Broadcast(project.ID, "Project shared")
	redirect(ctx, "/projects")
}

func (h *Handler) NewTaskForm(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	h.renderTaskForm(ctx, http.StatusOK, "New task", projectPath(project.ID)+"/addTask", project, models.Task{}, nil)
}

// AddTask creates a task in the project. Whatever the form says, the new
// task starts out not completed.
func (h *Handler) AddTask(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	var form TaskForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, projectPath(project.ID)+"/addTask")
		return
	}

	task := models.Task{ProjectID: project.ID}
	form.apply(&task)
	task.Completed = false

	errs := &validation.Errors{}
	h.tasks.Validate(ctx.Request.Context(), task, errs)

	if errs.HasErrors() {
		h.renderTaskForm(ctx, http.StatusUnprocessableEntity, "New task", projectPath(project.ID)+"/addTask", project, task, errs)
		return
	}

	if err := h.svc.Projects.AddTask(ctx.Request.Context(), &project, &task); err != nil {
		h.fail(ctx, err)
		return
	}

	h.hub.Broadcast(project.ID, "Task added")
	redirect(ctx, projectPath(project.ID))
}

func (h *Handler) NewTagForm(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	h.renderTagForm(ctx, http.StatusOK, project, models.Tag{}, nil)
}

type TagForm struct {
	Name        string `form:"name"`
	Color       string `form:"color"`
	Description string `form:"description"`
}

func (h *Handler) AddTag(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.Mutate)

	if !ok {
		return
	}

	var form TagForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, projectPath(project.ID)+"/addTag")
		return
	}

	tag := models.Tag{
		ProjectID:   project.ID,
		Name:        strings.TrimSpace(form.Name),
		Color:       strings.TrimSpace(form.Color),
		Description: strings.TrimSpace(form.Description),
	}

	errs := &validation.Errors{}
	h.tags.Validate(ctx.Request.Context(), tag, errs)

	if errs.HasErrors() {
		h.renderTagForm(ctx, http.StatusUnprocessableEntity, project, tag, errs)
		return
	}

	if err := h.svc.Projects.AddTag(ctx.Request.Context(), &project, &tag); err != nil {
		h.fail(ctx, err)
		return
	}

	h.hub.Broadcast(project.ID, "Tag added")
	redirect(ctx, projectPath(project.ID))
}

func (h *Handler) renderTagForm(ctx *gin.Context, status int, project models.Project, tag models.Tag, errs *validation.Errors) {
	h.render(ctx, status, "tagForm.html", gin.H{
		"Title":   "New tag",
		"Project": project,
		"Tag":     tag,
		"Errors":  errs,
	})
}
