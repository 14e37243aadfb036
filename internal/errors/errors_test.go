package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	base := errors.New("base error")

	wrapped := Wrap(base, "wrapped")
	require.Error(t, wrapped)
	assert.Equal(t, "wrapped: base error", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)

	assert.NoError(t, Wrap(nil, "wrapped"))
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "unclassified", err: errors.New("boom"), want: nil},
		{name: "bare kind", err: ErrNotFound, want: ErrNotFound},
		{name: "wrapped", err: Wrap(ErrIntegrity, "corrupt record"), want: ErrIntegrity},
		{name: "wrapped twice", err: Wrap(fmt.Errorf("%w: bad code", ErrInvalidInput), "save"), want: ErrInvalidInput},
		{name: "unavailable", err: Wrap(ErrUnavailable, "storage"), want: ErrUnavailable},
		{name: "too large wins over invalid", err: errors.Join(ErrInvalidInput, ErrPayloadTooLarge), want: ErrPayloadTooLarge},
		{name: "not found wins over unavailable", err: errors.Join(ErrUnavailable, ErrNotFound), want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestKindsAreDistinct(t *testing.T) {
	for i, a := range kinds {
		for j, b := range kinds {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
	}
}
