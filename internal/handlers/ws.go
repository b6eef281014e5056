package handlers

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/taskmanager-dev/taskmanager/internal/access"
)

// checkOrigin accepts same-origin pages, clients that send no Origin at all,
// and the configured allowed origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if origin == "" {
		return true
	}

	if slices.Contains(h.origins, origin) {
		return true
	}

	u, err := url.Parse(origin)

	return err == nil && u.Host == r.Host
}

// WebSocket streams refresh events for a project the caller may view.
func (h *Handler) WebSocket(ctx *gin.Context) {
	project, ok := h.loadProject(ctx, access.View)

	if !ok {
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)

	if err != nil {
		h.logger.Warn("websocket upgrade failed", "project_id", project.ID, "error", err)
		return
	}

	h.hub.Serve(conn, project.ID)
}
