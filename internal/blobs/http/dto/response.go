package dto

// TextResponse is the body of a successful texts request. Text is only
// present on fetch, where an empty text is still returned.
type TextResponse struct {
	OK   bool    `json:"ok"`
	Text *string `json:"text,omitempty"`
}

// NewSaveResponse returns the response of a successful save.
func NewSaveResponse() TextResponse {
	return TextResponse{OK: true}
}

// NewFetchResponse returns the response of a successful fetch.
func NewFetchResponse(text string) TextResponse {
	return TextResponse{OK: true, Text: &text}
}
