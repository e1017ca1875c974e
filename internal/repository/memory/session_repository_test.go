package memory

import (
	"context"
	"testing"

	"speech-rehearsal-be/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	s := session.New()
	s.StartSpeech("s1", "r1")
	require.NoError(t, repo.Save(ctx, s))

	// Mutating the caller's copy must not leak into the store.
	s.Speeches[0] = "changed"

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"s1"}, got.Speeches)
	assert.Equal(t, "r1", got.CurrentRehearsal)

	require.NoError(t, repo.Delete(ctx, s.ID))
	got, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
