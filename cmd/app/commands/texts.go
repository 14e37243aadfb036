package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/allisson/textdrop/internal/client"
)

// TextClient saves and fetches end-to-end encrypted texts.
type TextClient interface {
	Save(ctx context.Context, code, text string) error
	Fetch(ctx context.Context, code string) (string, error)
}

// NewTextClient builds the HTTP client of the save and fetch commands. Retry
// and error logs go to stderr so stdout carries only the fetched text.
func NewTextClient(serverURL string, allowInsecure bool) (TextClient, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c, err := client.New(client.Config{
		BaseURL:       serverURL,
		AllowInsecure: allowInsecure,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RunSave encrypts text under code and stores it on the server. An empty text
// is read from stdio.Reader until EOF.
func RunSave(ctx context.Context, textClient TextClient, stdio IOTuple, code, text string) error {
	if text == "" {
		var err error
		if text, err = readText(stdio.Reader); err != nil {
			return err
		}
	}

	if err := textClient.Save(ctx, code, text); err != nil {
		return fmt.Errorf("failed to save text: %w", err)
	}
	_, _ = fmt.Fprintln(stdio.Writer, "Text saved. Fetch it with the same code.")
	return nil
}

// RunFetch downloads and decrypts the text stored under code and writes it to
// writer unchanged.
func RunFetch(ctx context.Context, textClient TextClient, writer io.Writer, code string) error {
	text, err := textClient.Fetch(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to fetch text: %w", err)
	}
	_, err = io.WriteString(writer, text)
	return err
}

// readText reads the text to save, dropping a single trailing newline left by
// shells and heredocs.
func readText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	text := strings.TrimSuffix(string(b), "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, nil
}
