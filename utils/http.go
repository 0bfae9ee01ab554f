package utils

import (
	"encoding/json"
	"net/http"

	"venturelink_server/apperrors"
)

// ActorID returns the authenticated user id attached to the request by the
// identity layer. Empty when the request is unauthenticated.
func ActorID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// WriteJSON encodes payload as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// WriteError maps an application error onto an HTTP status and a JSON body.
// State errors carry their flag so clients can branch on the exact refusal.
func WriteError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeValidation:
		status = http.StatusBadRequest
	case apperrors.CodeAuthorization:
		status = http.StatusForbidden
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeConflict, apperrors.CodeState:
		status = http.StatusConflict
	case apperrors.CodeUpstream:
		status = http.StatusBadGateway
	}

	body := map[string]string{"error": err.Error()}
	if flag := apperrors.FlagOf(err); flag != "" {
		body["flag"] = flag
	}
	WriteJSON(w, status, body)
}
