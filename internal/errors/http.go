package appErrors

import (
	"errors"
	"net/http"
)

// ErrBadRequest is a malformed or incomplete request body.
type ErrBadRequest struct {
	Reason string
}

func (e *ErrBadRequest) Error() string { return e.Reason }

func NewBadRequest(reason string) error {
	return &ErrBadRequest{Reason: reason}
}

// StatusCode maps an error to the HTTP status the API answers with.
func StatusCode(err error) int {
	var (
		badRequest *ErrBadRequest
		campaign   *ErrInvalidCampaignStatus
		transition *ErrInvalidTransition
		config     *ErrConfiguration
	)
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &campaign), errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &config):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
