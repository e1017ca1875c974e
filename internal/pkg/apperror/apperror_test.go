package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("rehearsal %s not found", "r1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "rehearsal r1 not found", err.Error())
}

func TestWrappedChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("loading speech: %w", Persistence(cause, "store unavailable"))

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Contains(t, err.Error(), "store unavailable: connection refused")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}
