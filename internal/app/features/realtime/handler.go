// internal/app/features/realtime/handler.go
package realtime

import (
	"net/http"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	realtimehub "github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades signed-in requests to a websocket that receives the
// user's notification pushes.
type Handler struct {
	Hub      *realtimehub.Hub
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket handler. allowedOrigins mirrors the CORS
// setting; "*" or an empty list accepts any origin.
func NewHandler(hub *realtimehub.Hub, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		Hub: hub,
		Log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

// ServeWS handles GET /ws. It blocks for the life of the connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Log.Debug("realtime: upgrade failed", zap.String("user_id", u.ID), zap.Error(err))
		return
	}
	h.Log.Debug("realtime: connected", zap.String("user_id", u.ID))
	h.Hub.Serve(conn, u.ID)
}
