package metrics

import (
	apperrors "github.com/allisson/textdrop/internal/errors"
)

// Operation statuses recorded by business metrics.
const (
	StatusSuccess         = "success"
	StatusNotFound        = "not_found"
	StatusInvalidInput    = "invalid_input"
	StatusPayloadTooLarge = "payload_too_large"
	StatusIntegrityError  = "integrity_error"
	StatusUnavailable     = "unavailable"
	StatusError           = "error"
)

var statusByKind = map[error]string{
	apperrors.ErrNotFound:        StatusNotFound,
	apperrors.ErrInvalidInput:    StatusInvalidInput,
	apperrors.ErrPayloadTooLarge: StatusPayloadTooLarge,
	apperrors.ErrIntegrity:       StatusIntegrityError,
	apperrors.ErrUnavailable:     StatusUnavailable,
}

// StatusOf classifies an operation result by its error kind. A rising
// not_found or integrity_error rate on fetch is what code guessing looks like.
func StatusOf(err error) string {
	if err == nil {
		return StatusSuccess
	}
	if status, ok := statusByKind[apperrors.Kind(err)]; ok {
		return status
	}
	return StatusError
}
