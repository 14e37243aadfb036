// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"fmt"

	validation "github.com/jellydator/validation"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
	customValidation "github.com/allisson/textdrop/internal/validation"
)

// Actions accepted by the texts endpoint.
const (
	ActionSave  = "save"
	ActionFetch = "fetch"
)

// TextRequest is the body of POST /v1/texts. Text is only read by save, and a
// missing text saves the empty string.
type TextRequest struct {
	Action string `json:"action"`
	Code   string `json:"code"`
	Text   string `json:"text"`
}

// Validate checks the fetch code first and the action second, so a request
// with both wrong reports the fetch code.
func (r *TextRequest) Validate() error {
	if err := customValidation.ValidateFetchCode(customValidation.NormalizeFetchCode(r.Code)); err != nil {
		return err
	}

	err := validation.Validate(r.Action,
		validation.Required.Error("must be save or fetch"),
		validation.In(ActionSave, ActionFetch).Error("must be save or fetch"),
	)
	if err != nil {
		return fmt.Errorf(
			"%w: %w",
			blobsDomain.ErrUnknownAction,
			customValidation.FieldError{Field: "action", Err: err},
		)
	}

	return nil
}
