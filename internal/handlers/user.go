package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/services"
	"github.com/taskmanager-dev/taskmanager/internal/session"
	"github.com/taskmanager-dev/taskmanager/internal/validation"
)

func (h *Handler) Root(ctx *gin.Context) {
	redirect(ctx, "/home")
}

func (h *Handler) Home(ctx *gin.Context) {
	h.render(ctx, http.StatusOK, "home.html", gin.H{"Title": "Home"})
}

// Me shows the caller's profile and the tasks assigned to them.
func (h *Handler) Me(ctx *gin.Context) {
	s, err := session.Current(ctx)

	if err != nil {
		redirect(ctx, "/login")
		return
	}

	tasks, err := h.svc.Tasks.AssignedTo(ctx.Request.Context(), s.User)

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.render(ctx, http.StatusOK, "userProfile.html", gin.H{
		"Title":       s.User.Name,
		"User":        s.User,
		"Credentials": s.Credentials,
		"Tasks":       tasks,
	})
}

func (h *Handler) EditProfileForm(ctx *gin.Context) {
	s, err := session.Current(ctx)

	if err != nil {
		redirect(ctx, "/login")
		return
	}

	h.renderProfileForm(ctx, http.StatusOK, AccountForm{
		Name:     s.User.Name,
		Email:    s.User.Email,
		Username: s.Credentials.Username,
	}, nil)
}

// UpdateProfile changes the caller's own user and credentials. An empty
// password keeps the current one.
func (h *Handler) UpdateProfile(ctx *gin.Context) {
	s, err := session.Current(ctx)

	if err != nil {
		redirect(ctx, "/login")
		return
	}

	var form AccountForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, "/users/me/updateProfile")
		return
	}

	form.normalize()

	credentials := s.Credentials
	credentials.Username = form.Username
	credentials.User = s.User
	credentials.User.Name = form.Name
	credentials.User.Email = form.Email

	errs := &validation.Errors{}
	h.users.Validate(ctx.Request.Context(), credentials.User, errs)
	h.credentials.Validate(ctx.Request.Context(), validation.CredentialsForm{
		ID:       credentials.ID,
		Username: form.Username,
		Password: form.Password,
	}, errs)

	if errs.HasErrors() {
		h.renderProfileForm(ctx, http.StatusUnprocessableEntity, form, errs)
		return
	}

	if form.Password != "" {
		if err := h.svc.Credentials.SetPassword(&credentials, form.Password); err != nil {
			h.fail(ctx, err)
			return
		}
	}

	err = h.svc.Credentials.Save(ctx.Request.Context(), &credentials)

	if errors.Is(err, services.ErrUsernameTaken) {
		errs.Add("username", "is already taken")
		h.renderProfileForm(ctx, http.StatusUnprocessableEntity, form, errs)
		return
	}

	if err != nil {
		h.fail(ctx, err)
		return
	}

	// The token carries the username, so a rename needs a fresh one.
	if credentials.Username != s.Credentials.Username {
		if err := h.setSessionCookie(ctx, credentials); err != nil {
			h.fail(ctx, err)
			return
		}
	}

	redirect(ctx, "/users/me")
}

func (h *Handler) renderProfileForm(ctx *gin.Context, status int, form AccountForm, errs *validation.Errors) {
	form.Password = ""
	h.render(ctx, status, "updateProfile.html", gin.H{
		"Title":  "Edit profile",
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) Admin(ctx *gin.Context) {
	h.render(ctx, http.StatusOK, "admin.html", gin.H{"Title": "Administration"})
}

func (h *Handler) ListUsers(ctx *gin.Context) {
	all, err := h.svc.Credentials.List(ctx.Request.Context())

	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.render(ctx, http.StatusOK, "allUsers.html", gin.H{
		"Title":           "All users",
		"CredentialsList": all,
	})
}

// DeleteUser removes another account together with its projects. Admins
// cannot delete themselves.
func (h *Handler) DeleteUser(ctx *gin.Context) {
	s, err := session.Current(ctx)

	if err != nil {
		redirect(ctx, "/login")
		return
	}

	username := strings.ToLower(strings.TrimSpace(ctx.Param("username")))

	if username == s.Credentials.Username {
		redirect(ctx, "/admin/users")
		return
	}

	err = h.svc.Credentials.Delete(ctx.Request.Context(), username)

	if err != nil && !errors.Is(err, services.ErrNotFound) {
		h.fail(ctx, err)
		return
	}

	if err == nil {
		h.logger.Info("user deleted", "username", username, "admin_id", s.User.ID)
	}

	redirect(ctx, "/admin/users")
}
