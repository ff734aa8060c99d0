package api

import (
	"log/slog"
	"net/http"

	"github.com/Jeffreasy/mimo-auth/internal/api/helpers"
	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// writeServiceError translates an error returned by the Authentication
// Service into an HTTP response. auth.Error values carry their own status
// code; anything else is treated as an unclassified internal error and
// never has its message exposed to the client.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	if authErr, ok := auth.As(err); ok {
		if authErr.Kind == auth.Internal || authErr.Kind == auth.ExternalServiceError {
			slog.Error(op, "error", err)
			helpers.RespondError(w, authErr.StatusCode(), "internal error")
			return
		}
		helpers.RespondError(w, authErr.StatusCode(), authErr.Message)
		return
	}

	slog.Error(op, "error", err)
	helpers.RespondError(w, http.StatusInternalServerError, "internal error")
}
