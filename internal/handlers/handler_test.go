package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskmanager-dev/taskmanager/internal/models"
)

func TestCheckOrigin(t *testing.T) {
	h := &Handler{origins: []string{"https://app.example.com"}}

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "tasks.example.com", true},
		{"same host", "https://tasks.example.com", "tasks.example.com", true},
		{"allowed", "https://app.example.com", "tasks.example.com", true},
		{"foreign", "https://evil.example.com", "tasks.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/projects/1", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			if got := h.checkOrigin(req); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestRedirectStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for method, want := range map[string]int{
		http.MethodGet:  http.StatusFound,
		http.MethodPost: http.StatusSeeOther,
	} {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(method, "/", nil)

		redirect(ctx, "/home")
		ctx.Writer.WriteHeaderNow()

		if w.Code != want {
			t.Errorf("%s: expected %d, got %d", method, want, w.Code)
		}

		if got := w.Header().Get("Location"); got != "/home" {
			t.Errorf("%s: expected Location /home, got %q", method, got)
		}
	}
}

func TestAssignableListsOwnerFirst(t *testing.T) {
	owner := models.User{BaseModel: models.BaseModel{ID: 1}, Name: "Alice"}
	member := models.User{BaseModel: models.BaseModel{ID: 2}, Name: "Bob"}

	got := assignable(models.Project{Owner: owner, Members: []models.User{member}})

	if len(got) != 2 || got[0].ID != owner.ID || got[1].ID != member.ID {
		t.Errorf("unexpected assignable users %+v", got)
	}
}
