// Package http provides the HTTP handler of the texts endpoint.
// The server only ever sees fetch codes and envelopes, never plaintext.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/textdrop/internal/blobs/http/dto"
	blobsUseCase "github.com/allisson/textdrop/internal/blobs/usecase"
	"github.com/allisson/textdrop/internal/httputil"
)

// BlobHandler handles save and fetch requests against the blob store.
type BlobHandler struct {
	blobUseCase blobsUseCase.BlobUseCase
	logger      *slog.Logger
}

// NewBlobHandler creates a new blob handler with required dependencies.
func NewBlobHandler(blobUseCase blobsUseCase.BlobUseCase, logger *slog.Logger) *BlobHandler {
	return &BlobHandler{
		blobUseCase: blobUseCase,
		logger:      logger,
	}
}

// TextsHandler dispatches a texts request on its action.
// POST /v1/texts - {"action":"save"|"fetch","code":...,"text":...}.
// Returns 200 OK with {"ok":true} on save and {"ok":true,"text":...} on fetch.
func (h *BlobHandler) TextsHandler(c *gin.Context) {
	var req dto.TextRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			httputil.HandleRequestTooLargeGin(c, h.logger)
		case errors.Is(err, io.EOF):
			httputil.HandleBadRequestGin(c, "request body must not be empty", h.logger)
		default:
			httputil.HandleBadRequestGin(c, "request body must be JSON", h.logger)
		}
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case dto.ActionSave:
		if err := h.blobUseCase.Save(ctx, req.Code, req.Text); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, dto.NewSaveResponse())

	case dto.ActionFetch:
		text, err := h.blobUseCase.Fetch(ctx, req.Code)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, dto.NewFetchResponse(text))
	}
}
