package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// Message is the body of every informational or failure response.
type Message struct {
	Message string `json:"message"`
}

// JSON writes payload as the response body.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("respond: encode payload failed")
	}
}

// Text writes a {"message": ...} body.
func Text(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, Message{Message: message})
}
