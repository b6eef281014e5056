// Package access holds the single ownership and membership rule set applied
// to projects and everything inside them.
//
// Owners may do anything with a project. Members, the users a project has
// been shared with, may look at it and comment on its tasks. Everyone else
// gets nothing.
package access

import (
	"errors"

	"github.com/taskmanager-dev/taskmanager/internal/models"
)

var ErrForbidden = errors.New("forbidden")

type Action int

const (
	// View covers reading a project, its tasks and tags, and commenting.
	View Action = iota
	// Mutate covers every change to the project or its children.
	Mutate
)

func (a Action) String() string {
	switch a {
	case View:
		return "view"
	case Mutate:
		return "mutate"
	default:
		return "unknown"
	}
}

func IsOwner(user models.User, project models.Project) bool {
	return user.ID != 0 && user.ID == project.OwnerID
}

// CanView requires project.Members to be loaded.
func CanView(user models.User, project models.Project) bool {
	return IsOwner(user, project) || project.HasMember(user)
}

func CanMutate(user models.User, project models.Project) bool {
	return IsOwner(user, project)
}

// Check returns ErrForbidden unless user may perform action on project.
func Check(user models.User, project models.Project, action Action) error {
	var allowed bool

	switch action {
	case View:
		allowed = CanView(user, project)
	case Mutate:
		allowed = CanMutate(user, project)
	}

	if !allowed {
		return ErrForbidden
	}

	return nil
}
