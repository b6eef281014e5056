package validation

import (
	"context"
	"strings"

	"github.com/taskmanager-dev/taskmanager/internal/models"
)

const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	MinUsernameLength    = 4
	MaxUsernameLength    = 20
	MinPasswordLength    = 6
	MaxPasswordLength    = 20
	MaxTagNameLength     = 50
	MaxCommentLength     = 2000
)

type UserValidator struct{}

func (UserValidator) Validate(_ context.Context, user models.User, errs *Errors) {
	checkLength(errs, "name", user.Name, MinNameLength, MaxNameLength)

	if strings.TrimSpace(user.Email) == "" {
		errs.Add("email", "is required")
		return
	}

	checkFormat(errs, "email", strings.TrimSpace(user.Email), "email", "must be a valid email address")
}

// UsernameLookup reports whether a username is already used by credentials
// other than exceptID.
type UsernameLookup interface {
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
}

// CredentialsForm is what the registration and profile forms submit. Password
// may be empty on profile updates, meaning "keep the current one".
type CredentialsForm struct {
	ID       uint
	Username string
	Password string
	// PasswordRequired is set on registration.
	PasswordRequired bool
}

type CredentialsValidator struct {
	Lookup UsernameLookup
}

func (v CredentialsValidator) Validate(ctx context.Context, form CredentialsForm, errs *Errors) {
	username := strings.TrimSpace(form.Username)
	checkLength(errs, "username", username, MinUsernameLength, MaxUsernameLength)

	if form.Password != "" || form.PasswordRequired {
		checkLength(errs, "password", form.Password, MinPasswordLength, MaxPasswordLength)
	}

	if v.Lookup == nil || len(errs.For("username")) > 0 {
		return
	}

	taken, err := v.Lookup.UsernameTaken(ctx, username, form.ID)

	if err != nil {
		errs.Add("username", "could not be checked, try again")
		return
	}

	if taken {
		errs.Add("username", "is already taken")
	}
}

type ProjectValidator struct{}

func (ProjectValidator) Validate(_ context.Context, project models.Project, errs *Errors) {
	checkLength(errs, "name", project.Name, MinNameLength, MaxNameLength)
	checkLength(errs, "description", project.Description, 0, MaxDescriptionLength)
	checkFormat(errs, "slack_webhook", project.SlackWebhook, "url", "must be a valid URL")
	checkFormat(errs, "discord_webhook", project.DiscordWebhook, "url", "must be a valid URL")
}

type TaskValidator struct{}

func (TaskValidator) Validate(_ context.Context, task models.Task, errs *Errors) {
	checkLength(errs, "name", task.Name, MinNameLength, MaxNameLength)
	checkLength(errs, "description", task.Description, 0, MaxDescriptionLength)
}

type TagValidator struct{}

func (TagValidator) Validate(_ context.Context, tag models.Tag, errs *Errors) {
	checkLength(errs, "name", tag.Name, 1, MaxTagNameLength)
	checkLength(errs, "description", tag.Description, 0, MaxDescriptionLength)
	checkFormat(errs, "color", tag.Color, "hexcolor", "must be a hex color such as #ff8800")
}

type CommentValidator struct{}

func (CommentValidator) Validate(_ context.Context, comment string, errs *Errors) {
	checkLength(errs, "comment", comment, 1, MaxCommentLength)
}
