package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/auth"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"github.com/taskmanager-dev/taskmanager/internal/session"
	"github.com/taskmanager-dev/taskmanager/internal/types"
)

// CredentialsSource loads the credentials, with their user, behind a token.
type CredentialsSource interface {
	GetByUserID(ctx context.Context, userID uint) (models.Credentials, error)
}

// Auth resolves the session token from the "token" cookie, or from a Bearer
// Authorization header, and stores the session on the context. Requests
// without a valid session are sent to the login page.
func Auth(issuer *auth.TokenIssuer, source CredentialsSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := tokenFromRequest(ctx)

		if tokenString == "" {
			redirectToLogin(ctx)
			return
		}

		claims, err := issuer.Verify(tokenString)

		if err != nil {
			redirectToLogin(ctx)
			return
		}

		credentials, err := source.GetByUserID(ctx.Request.Context(), claims.UserID)

		if err != nil {
			redirectToLogin(ctx)
			return
		}

		session.Set(ctx, session.Session{
			User:        credentials.User,
			Credentials: credentials,
		})
		ctx.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s, err := session.Current(ctx)

		if err != nil || !s.IsAdmin() {
			ctx.Redirect(http.StatusFound, "/home")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

func tokenFromRequest(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(types.TokenCookieName); err == nil && cookie != "" {
		return cookie
	}

	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)

	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

func redirectToLogin(ctx *gin.Context) {
	ctx.Redirect(http.StatusFound, "/login")
	ctx.Abort()
}
