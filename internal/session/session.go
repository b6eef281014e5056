// Package session carries the authenticated identity of the current request.
// It is populated once by the auth middleware and only read afterwards.
package session

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"github.com/taskmanager-dev/taskmanager/internal/types"
)

var ErrNoSession = errors.New("user not authenticated")

type Session struct {
	User        models.User
	Credentials models.Credentials
}

func (s Session) IsAdmin() bool {
	return s.Credentials.IsAdmin()
}

func Set(ctx *gin.Context, s Session) {
	ctx.Set(types.ContextSessionKey, s)
}

func Current(ctx *gin.Context) (Session, error) {
	value, exists := ctx.Get(types.ContextSessionKey)

	if !exists {
		return Session{}, ErrNoSession
	}

	s, ok := value.(Session)

	if !ok {
		return Session{}, errors.New("invalid session type in context")
	}

	return s, nil
}

// CurrentUser is shorthand for Current(ctx).User; the zero User is returned
// for anonymous requests.
func CurrentUser(ctx *gin.Context) models.User {
	s, _ := Current(ctx)
	return s.User
}
