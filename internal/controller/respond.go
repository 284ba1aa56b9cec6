package controller

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteError answers with the status StatusCode picks for err. Server
// errors are logged; their detail is not sent to the client.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := appErrors.StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

// Decode reads a JSON body into v; a malformed body is a bad request.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.NewBadRequest("invalid body: " + err.Error())
	}
	return nil
}
