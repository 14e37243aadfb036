// Package validation provides custom validation rules for the application.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/textdrop/internal/errors"
)

const (
	// MaxFetchCodeLength is the maximum fetch code length in characters.
	MaxFetchCodeLength = 60

	// MaxPlaintextChars is the maximum plaintext length in characters.
	MaxPlaintextChars = 1_000_000
)

var (
	// fetchCodeRegex lists the only characters a fetch code may contain.
	fetchCodeRegex = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)
)

// Input errors shared by the client and the server.
var (
	// ErrInvalidFetchCode indicates the fetch code failed FetchCodeRules.
	ErrInvalidFetchCode = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid fetch code")

	// ErrPlaintextTooLarge indicates the plaintext exceeds MaxPlaintextChars.
	ErrPlaintextTooLarge = apperrors.Wrap(apperrors.ErrInvalidInput, "plaintext too large")
)

// FieldError is a validation failure for a single named field. Its message is
// safe to return to clients.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string { return e.Field + " " + e.Err.Error() }

func (e FieldError) Unwrap() error { return e.Err }

// NoSlashOrSpace rejects any '/' or whitespace character anywhere in the string.
var NoSlashOrSpace = validation.NewStringRuleWithError(
	func(s string) bool {
		return !strings.ContainsFunc(s, func(r rune) bool {
			return r == '/' || unicode.IsSpace(r)
		})
	},
	validation.NewError("validation_no_slash_or_space", `must not contain "/" or any whitespace`),
)

// FetchCodeCharset restricts a fetch code to letters, digits, '.', '_' and '-'.
var FetchCodeCharset = validation.Match(fetchCodeRegex).
	ErrorObject(validation.NewError(
		"validation_fetch_code_charset",
		"may only contain letters, digits, '.', '_' and '-'",
	))

// FetchCodeRules is the rule set shared by the client and the server.
// The order matters: the first failing rule is the one reported.
var FetchCodeRules = []validation.Rule{
	validation.Required.ErrorObject(validation.NewError("validation_required", "must not be empty")),
	validation.RuneLength(1, MaxFetchCodeLength).ErrorObject(validation.NewError(
		"validation_fetch_code_length",
		"must be between 1 and 60 characters",
	)),
	NoSlashOrSpace,
	FetchCodeCharset,
}

// NormalizeFetchCode trims surrounding whitespace from a user supplied fetch code.
func NormalizeFetchCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidateFetchCode checks a (normalized) fetch code against FetchCodeRules.
// The returned error wraps ErrInvalidFetchCode and a FieldError.
func ValidateFetchCode(code string) error {
	if err := validation.Validate(code, FetchCodeRules...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFetchCode, FieldError{Field: "fetch code", Err: err})
	}
	return nil
}

// ValidatePlaintext checks that text holds at most MaxPlaintextChars characters.
// The returned error wraps ErrPlaintextTooLarge and a FieldError.
func ValidatePlaintext(text string) error {
	if err := CheckMaxChars("text", text, MaxPlaintextChars); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaintextTooLarge, err)
	}
	return nil
}

// CheckMaxChars returns a FieldError when value holds more than limit characters.
// Callers attach the sentinel that fits their context.
func CheckMaxChars(field, value string, limit int) error {
	rule := validation.RuneLength(0, limit).ErrorObject(validation.NewError(
		"validation_max_chars",
		"exceeds the maximum number of characters",
	))
	if err := validation.Validate(value, rule); err != nil {
		return FieldError{Field: field, Err: err}
	}
	return nil
}

// Message returns the client facing text of a validation error: the innermost
// FieldError when there is one, the full error text otherwise.
func Message(err error) string {
	var fe FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return err.Error()
}
