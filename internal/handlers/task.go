package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/access"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"github.com/taskmanager-dev/taskmanager/internal/services"
	"github.com/taskmanager-dev/taskmanager/internal/session"
	"github.com/taskmanager-dev/taskmanager/internal/utils"
	"github.com/taskmanager-dev/taskmanager/internal/validation"
)

type TaskForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Completed   bool   `form:"completed"`
}

func (f TaskForm) apply(task *models.Task) {
	task.Name = strings.TrimSpace(f.Name)
	task.Description = strings.TrimSpace(f.Description)
	task.Completed = f.Completed
}

type CommentForm struct {
	Comment string `form:"comment"`
}

func taskPath(id uint) string {
	return fmt.Sprintf("/task/%d", id)
}

// assignable lists who a task of project may be given to: the owner first,
// then the members.
func assignable(project models.Project) []models.User {
	users := make([]models.User, 0, len(project.Members)+1)
	users = append(users, project.Owner)
	return append(users, project.Members...)
}

func (h *Handler) GetTask(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.View)

	if !ok {
		return
	}

	h.render(ctx, http.StatusOK, "task.html", gin.H{
		"Title":      task.Name,
		"Task":       task,
		"Project":    task.Project,
		"CanMutate":  access.CanMutate(session.CurrentUser(ctx), task.Project),
		"Assignable": assignable(task.Project),
	})
}

func (h *Handler) EditTaskForm(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	h.renderTaskForm(ctx, http.StatusOK, "Edit "+task.Name, taskPath(task.ID)+"/update", task.Project, task, nil)
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	var form TaskForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, taskPath(task.ID)+"/update")
		return
	}

	form.apply(&task)

	errs := &validation.Errors{}
	h.tasks.Validate(ctx.Request.Context(), task, errs)

	if errs.HasErrors() {
		h.renderTaskForm(ctx, http.StatusUnprocessableEntity, "Edit task", taskPath(task.ID)+"/update", task.Project, task, errs)
		return
	}

	if err := h.svc.Tasks.Save(ctx.Request.Context(), &task); err != nil {
		h.fail(ctx, err)
		return
	}

	h.hub.Broadcast(task.ProjectID, "Task updated")
	redirect(ctx, taskPath(task.ID))
}

func (h *Handler) renderTaskForm(ctx *gin.Context, status int, title, action string, project models.Project, task models.Task, errs *validation.Errors) {
	h.render(ctx, status, "taskForm.html", gin.H{
		"Title":   title,
		"Action":  action,
		"Project": project,
		"Task":    task,
		"Errors":  errs,
	})
}

func (h *Handler) ConfirmDeleteTask(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	h.render(ctx, http.StatusOK, "confirmDeleteTask.html", gin.H{
		"Title": "Delete " + task.Name,
		"Task":  task,
	})
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	if err := h.svc.Tasks.Delete(ctx.Request.Context(), &task); err != nil {
		h.fail(ctx, err)
		return
	}

	h.hub.Broadcast(task.ProjectID, "Task deleted")
	redirect(ctx, projectPath(task.ProjectID))
}

// loadAssignee resolves :userId. It answers with a redirect back to the task
// when the user does not exist.
func (h *Handler) loadAssignee(ctx *gin.Context, task models.Task) (models.User, bool) {
	userID, err := utils.GetID(ctx, "userId")

	if err != nil {
		redirect(ctx, taskPath(task.ID))
		return models.User{}, false
	}

	user, err := h.svc.Users.Get(ctx.Request.Context(), userID)

	if errors.Is(err, services.ErrNotFound) {
		redirect(ctx, taskPath(task.ID))
		return models.User{}, false
	}

	if err != nil {
		h.fail(ctx, err)
		return models.User{}, false
	}

	return user, true
}

func (h *Handler) ConfirmAssignTask(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	user, ok := h.loadAssignee(ctx, task)

	if !ok {
		return
	}

	h.render(ctx, http.StatusOK, "assignTask.html", gin.H{
		"Title": "Assign " + task.Name,
		"Task":  task,
		"User":  user,
	})
}

// AssignTask gives the task to the owner or a member of its project. Anyone
// else is refused and the task stays as it was.
func (h *Handler) AssignTask(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	user, ok := h.loadAssignee(ctx, task)

	if !ok {
		return
	}

	err := h.svc.Tasks.Assign(ctx.Request.Context(), &task, user)

	if errors.Is(err, services.ErrNotMember) {
		h.logger.Info("assignment refused", "task_id", task.ID, "user_id", user.ID)
		redirect(ctx, taskPath(task.ID))
		return
	}

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.notifier.Dispatch(ctx.Request.Context(), "task_assigned", task.Project, func(c context.Context) error {
		return h.notifier.TaskAssigned(c, task.Project, task, user)
	})
	h.hub.Broadcast(task.ProjectID, "Task assigned")
	redirect(ctx, taskPath(task.ID))
}

func (h *Handler) loadTag(ctx *gin.Context, task models.Task) (models.Tag, bool) {
	tagID, err := utils.GetID(ctx, "tagId")

	if err != nil {
		redirect(ctx, taskPath(task.ID))
		return models.Tag{}, false
	}

	tag, err := h.svc.Tags.Get(ctx.Request.Context(), tagID)

	if errors.Is(err, services.ErrNotFound) {
		redirect(ctx, taskPath(task.ID))
		return models.Tag{}, false
	}

	if err != nil {
		h.fail(ctx, err)
		return models.Tag{}, false
	}

	return tag, true
}

func (h *Handler) ConfirmAssignTag(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	tag, ok := h.loadTag(ctx, task)

	if !ok {
		return
	}

	h.render(ctx, http.StatusOK, "assignTag.html", gin.H{
		"Title": "Tag " + task.Name,
		"Task":  task,
		"Tag":   tag,
	})
}

func (h *Handler) AssignTag(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.Mutate)

	if !ok {
		return
	}

	tag, ok := h.loadTag(ctx, task)

	if !ok {
		return
	}

	err := h.svc.Tasks.AddTag(ctx.Request.Context(), &task, tag)

	if errors.Is(err, services.ErrForeignTag) {
		h.logger.Info("foreign tag refused", "task_id", task.ID, "tag_id", tag.ID)
		redirect(ctx, taskPath(task.ID))
		return
	}

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.hub.Broadcast(task.ProjectID, "Task tagged")
	redirect(ctx, taskPath(task.ID))
}

func (h *Handler) NewCommentForm(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.View)

	if !ok {
		return
	}

	h.renderCommentForm(ctx, http.StatusOK, task, "", nil)
}

// AddComment is open to members as well as the owner.
func (h *Handler) AddComment(ctx *gin.Context) {
	task, ok := h.loadTask(ctx, access.View)

	if !ok {
		return
	}

	var form CommentForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, taskPath(task.ID)+"/addComment")
		return
	}

	comment := strings.TrimSpace(form.Comment)

	errs := &validation.Errors{}
	h.comments.Validate(ctx.Request.Context(), comment, errs)

	if errs.HasErrors() {
		h.renderCommentForm(ctx, http.StatusUnprocessableEntity, task, comment, errs)
		return
	}

	if err := h.svc.Tasks.AddComment(ctx.Request.Context(), &task, comment); err != nil {
		h.fail(ctx, err)
		return
	}

	author := session.CurrentUser(ctx)
	h.notifier.Dispatch(ctx.Request.Context(), "comment_added", task.Project, func(c context.Context) error {
		return h.notifier.CommentAdded(c, task.Project, task, author, comment)
	})
	h.hub.Broadcast(task.ProjectID, "Comment added")
	redirect(ctx, taskPath(task.ID))
}

func (h *Handler) renderCommentForm(ctx *gin.Context, status int, task models.Task, comment string, errs *validation.Errors) {
	h.render(ctx, status, "addComment.html", gin.H{
		"Title":   "Comment on " + task.Name,
		"Task":    task,
		"Comment": comment,
		"Errors":  errs,
	})
}
