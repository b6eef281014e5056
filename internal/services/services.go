// Package services is the thin layer between controllers and the relational
// store: one service per entity, each exposing get, save and delete plus the
// handful of queries the controllers need.
package services

import (
	"errors"
	"fmt"

	"github.com/taskmanager-dev/taskmanager/db"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotMember          = errors.New("user is not a member of the project")
	ErrForeignTag         = errors.New("tag belongs to another project")
)

type Services struct {
	Users       *UserService
	Credentials *CredentialsService
	Projects    *ProjectService
	Tasks       *TaskService
	Tags        *TagService
}

func New(conn *gorm.DB) *Services {
	return &Services{
		Users:       &UserService{db: conn},
		Credentials: &CredentialsService{db: conn},
		Projects:    &ProjectService{db: conn},
		Tasks:       &TaskService{db: conn},
		Tags:        &TagService{db: conn},
	}
}

// lookupErr maps a failed single-row lookup to ErrNotFound so callers never
// depend on the ORM's sentinel.
func lookupErr(kind string, key any, err error) error {
	if db.IsNotFound(err) {
		return fmt.Errorf("%s %v: %w", kind, key, ErrNotFound)
	}
	return fmt.Errorf("get %s %v: %w", kind, key, err)
}
