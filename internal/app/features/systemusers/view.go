// internal/app/features/systemusers/view.go
package systemusers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeView handles GET /users/{id}. Any signed-in user may view an account.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.ObjectIDParam(r, "id", "user")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"user": u})
}
