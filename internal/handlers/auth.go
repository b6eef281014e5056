package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"github.com/taskmanager-dev/taskmanager/internal/services"
	"github.com/taskmanager-dev/taskmanager/internal/types"
	"github.com/taskmanager-dev/taskmanager/internal/validation"
)

type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// AccountForm backs both registration and profile updates.
type AccountForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Username string `form:"username"`
	Password string `form:"password"`
}

func (f *AccountForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Username = strings.ToLower(strings.TrimSpace(f.Username))
}

func (h *Handler) setSessionCookie(ctx *gin.Context, credentials models.Credentials) error {
	token, err := h.issuer.Generate(credentials.UserID, credentials.Username)

	if err != nil {
		return err
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(types.TokenCookieName, token, int(h.issuer.TTL().Seconds()), "/", h.cookie.Domain, h.cookie.Secure, true)

	return nil
}

func (h *Handler) LoginPage(ctx *gin.Context) {
	h.render(ctx, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

func (h *Handler) Login(ctx *gin.Context) {
	var form LoginForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, "/login")
		return
	}

	credentials, err := h.svc.Credentials.Authenticate(ctx.Request.Context(), form.Username, form.Password)

	if errors.Is(err, services.ErrInvalidCredentials) {
		h.render(ctx, http.StatusUnauthorized, "login.html", gin.H{
			"Title":    "Log in",
			"Message":  "Invalid username or password",
			"Username": form.Username,
		})
		return
	}

	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := h.setSessionCookie(ctx, credentials); err != nil {
		h.fail(ctx, err)
		return
	}

	h.logger.Info("user logged in", "user_id", credentials.UserID)
	redirect(ctx, "/home")
}

func (h *Handler) RegisterPage(ctx *gin.Context) {
	h.render(ctx, http.StatusOK, "register.html", gin.H{
		"Title": "Register",
		"Form":  AccountForm{},
	})
}

func (h *Handler) Register(ctx *gin.Context) {
	var form AccountForm

	if err := ctx.ShouldBind(&form); err != nil {
		redirect(ctx, "/register")
		return
	}

	form.normalize()

	credentials := models.Credentials{
		Username: form.Username,
		Role:     models.RoleDefault,
		User:     models.User{Name: form.Name, Email: form.Email},
	}

	errs := &validation.Errors{}
	h.users.Validate(ctx.Request.Context(), credentials.User, errs)
	h.credentials.Validate(ctx.Request.Context(), validation.CredentialsForm{
		Username:         form.Username,
		Password:         form.Password,
		PasswordRequired: true,
	}, errs)

	if errs.HasErrors() {
		h.renderRegister(ctx, form, errs)
		return
	}

	if err := h.svc.Credentials.SetPassword(&credentials, form.Password); err != nil {
		h.fail(ctx, err)
		return
	}

	err := h.svc.Credentials.Save(ctx.Request.Context(), &credentials)

	if errors.Is(err, services.ErrUsernameTaken) {
		errs.Add("username", "is already taken")
		h.renderRegister(ctx, form, errs)
		return
	}

	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := h.setSessionCookie(ctx, credentials); err != nil {
		h.fail(ctx, err)
		return
	}

	h.logger.Info("user registered", "user_id", credentials.UserID, "username", credentials.Username)
	redirect(ctx, "/home")
}

func (h *Handler) renderRegister(ctx *gin.Context, form AccountForm, errs *validation.Errors) {
	form.Password = ""
	h.render(ctx, http.StatusUnprocessableEntity, "register.html", gin.H{
		"Title":  "Register",
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(types.TokenCookieName, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	redirect(ctx, "/login")
}
