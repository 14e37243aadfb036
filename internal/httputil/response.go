// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/textdrop/internal/errors"
	"github.com/allisson/textdrop/internal/validation"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidInput     = "invalid_input"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodePayloadTooLarge  = "payload_too_large"
	CodeIntegrity        = "integrity_error"
	CodeRateLimited      = "rate_limit_exceeded"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal_error"
)

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON response using Gin.
// Only validation failures echo their message; every other error gets a fixed
// message so paths, keys and driver details stay in the logs.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	switch apperrors.Kind(err) {
	case apperrors.ErrNotFound:
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error: "no text found for this fetch code",
			Code:  CodeNotFound,
		}

	case apperrors.ErrPayloadTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
		errorResponse = ErrorResponse{
			Error: "payload exceeds the maximum allowed size",
			Code:  CodePayloadTooLarge,
		}

	case apperrors.ErrInvalidInput:
		statusCode = http.StatusBadRequest
		errorResponse = ErrorResponse{
			Error: validation.Message(err),
			Code:  CodeInvalidInput,
		}

	case apperrors.ErrIntegrity:
		statusCode = http.StatusUnprocessableEntity
		errorResponse = ErrorResponse{
			Error: "wrong fetch code or corrupted data",
			Code:  CodeIntegrity,
		}

	case apperrors.ErrUnavailable:
		statusCode = http.StatusServiceUnavailable
		errorResponse = ErrorResponse{
			Error: "service temporarily unavailable",
			Code:  CodeUnavailable,
		}

	default:
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error: "an internal error occurred",
			Code:  CodeInternal,
		}
	}

	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Code),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed request bodies.
func HandleBadRequestGin(c *gin.Context, message string, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.String("reason", message))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeBadRequest})
}

// HandleRequestTooLargeGin writes a 413 response for bodies over the request size cap.
func HandleRequestTooLargeGin(c *gin.Context, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("request body too large")
	}

	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error: "request body exceeds the maximum allowed size",
		Code:  CodePayloadTooLarge,
	})
}

// HandleMethodNotAllowedGin writes a 405 response.
func HandleMethodNotAllowedGin(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
		Error: "only POST is supported",
		Code:  CodeMethodNotAllowed,
	})
}

// HandleTooManyRequestsGin aborts with a 429 response and a Retry-After header.
func HandleTooManyRequestsGin(c *gin.Context, retryAfterSeconds int) {
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
		Error: "too many requests, please retry later",
		Code:  CodeRateLimited,
	})
}
