// Package client implements the end-to-end encrypted client of the texts API.
//
// Save seals the text into an e2e1 envelope before it leaves the process and
// Fetch opens it after it arrives, so the server only stores ciphertext.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/allisson/textdrop/internal/envelope"
	apperrors "github.com/allisson/textdrop/internal/errors"
	"github.com/allisson/textdrop/internal/validation"
)

const (
	textsPath = "/v1/texts"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 16 << 20

	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 2
)

// Client errors.
var (
	// ErrNotFound indicates no text is stored under the fetch code.
	ErrNotFound = apperrors.Wrap(apperrors.ErrNotFound, "no text found for this fetch code")

	// ErrInvalidURL indicates the server URL could not be used.
	ErrInvalidURL = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid server URL")

	// ErrInsecureURL indicates a plain http server URL without AllowInsecure.
	ErrInsecureURL = apperrors.Wrap(apperrors.ErrInvalidInput, "server URL must use https")

	// ErrMalformedResponse indicates a 2xx response the client cannot interpret.
	ErrMalformedResponse = apperrors.Wrap(apperrors.ErrUnavailable, "malformed server response")

	// ErrServerUnreachable indicates the request never got a response.
	ErrServerUnreachable = apperrors.Wrap(apperrors.ErrUnavailable, "server unreachable")
)

// APIError is a non-2xx answer from the server other than 404.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. https://drop.example.com.
	BaseURL string

	// AllowInsecure permits http:// base URLs. Only meant for local testing.
	AllowInsecure bool

	// DisableRetries turns off retrying 429 and 5xx responses.
	DisableRetries bool

	// HTTPClient overrides the pooled client from go-cleanhttp.
	HTTPClient *http.Client

	// Codec overrides the default envelope codec.
	Codec *envelope.Codec

	// Logger receives retry logs. Nil discards them.
	Logger *slog.Logger
}

// Client talks to the texts API.
type Client struct {
	endpoint string
	http     *retryablehttp.Client
	codec    *envelope.Codec
}

// request and response are the wire shapes of POST /v1/texts.
type request struct {
	Action string `json:"action"`
	Code   string `json:"code"`
	Text   string `json:"text,omitempty"`
}

type response struct {
	OK    bool    `json:"ok"`
	Text  *string `json:"text"`
	Error string  `json:"error"`
	Code  string  `json:"code"`
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	endpoint, err := endpointURL(cfg.BaseURL, cfg.AllowInsecure)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = defaultTimeout
	}
	// Never follow redirects: one could downgrade the request to plain http.
	noRedirects := *httpClient
	noRedirects.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &noRedirects
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.RetryMax = defaultRetryMax
	if cfg.DisableRetries {
		rc.RetryMax = 0
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	}

	codec := cfg.Codec
	if codec == nil {
		codec = &envelope.Codec{}
	}

	return &Client{endpoint: endpoint, http: rc, codec: codec}, nil
}

// Save encrypts text under code and stores it, replacing any previous text.
func (c *Client) Save(ctx context.Context, code, text string) error {
	code = validation.NormalizeFetchCode(code)

	sealed, err := c.codec.Encode(code, text)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, request{Action: "save", Code: code, Text: sealed})
	return err
}

// Fetch retrieves the text stored under code and decrypts it. Texts stored
// without an envelope by older clients are returned as they are.
func (c *Client) Fetch(ctx context.Context, code string) (string, error) {
	code = validation.NormalizeFetchCode(code)
	if err := validation.ValidateFetchCode(code); err != nil {
		return "", err
	}

	resp, err := c.do(ctx, request{Action: "fetch", Code: code})
	if err != nil {
		return "", err
	}
	if resp.Text == nil {
		return "", fmt.Errorf("%w: missing text", ErrMalformedResponse)
	}

	return c.codec.Decode(code, *resp.Text)
}

// do posts req and maps the answer to a response or an error.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	var resp response
	decodeErr := json.NewDecoder(bytes.NewReader(raw)).Decode(&resp)

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case httpResp.StatusCode < 200 || httpResp.StatusCode > 299:
		apiErr := &APIError{StatusCode: httpResp.StatusCode, Code: resp.Code, Message: resp.Error}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(httpResp.StatusCode)
		}
		return nil, apiErr
	case decodeErr != nil:
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	case !resp.OK:
		return nil, &APIError{StatusCode: httpResp.StatusCode, Code: resp.Code, Message: resp.Error}
	}

	return &resp, nil
}

// endpointURL checks the base URL and returns the texts endpoint below it.
func endpointURL(baseURL string, allowInsecure bool) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !allowInsecure {
			return "", ErrInsecureURL
		}
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	return u.JoinPath(textsPath).String(), nil
}
