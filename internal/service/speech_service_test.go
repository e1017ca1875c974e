package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/pkg/apperror"
	pkgEvents "speech-rehearsal-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSpeech(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.speeches.Create(ctx, "user_abc123xyz", "Wedding toast")
	require.NoError(t, err)

	assert.Equal(t, "Wedding toast", created.Speech.Name)
	assert.Equal(t, "user_abc123xyz", created.Speech.UserId)
	assert.Equal(t, []uuid.UUID{created.Rehearsal.Id}, created.Speech.Rehearsals)
	assert.Zero(t, created.Speech.PracticeTime)

	first, err := f.rehearsals.Get(ctx, created.Speech.Rehearsals[0])
	require.NoError(t, err)
	assert.Equal(t, created.Speech.Id, first.Speech)
	assert.Empty(t, first.Analysis)

	assert.Equal(t, []string{pkgEvents.SpeechCreated}, f.events.types())
}

func TestCreateSpeechValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.speeches.Create(ctx, "user_abc123xyz", "  ")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSpeechName, created.Speech.Name)

	_, err = f.speeches.Create(ctx, "", "Keynote")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestCreateSpeechRollsBackOnRehearsalFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.store.FailNextWrite("rehearsal")

	_, err := f.speeches.Create(ctx, "user_abc123xyz", "Pitch")
	require.Error(t, err)
	assert.Equal(t, apperror.KindPersistence, apperror.KindOf(err))

	list, err := f.speeches.ListByUser(ctx, "user_abc123xyz")
	require.NoError(t, err)
	assert.Empty(t, list.Speeches)
	assert.Empty(t, f.events.types())
}

func TestListSpeechesByUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a, err := f.speeches.Create(ctx, "user_a", "First")
	require.NoError(t, err)
	_, err = f.speeches.Create(ctx, "user_b", "Other user")
	require.NoError(t, err)
	b, err := f.speeches.Create(ctx, "user_a", "Second")
	require.NoError(t, err)

	list, err := f.speeches.ListByUser(ctx, "user_a")
	require.NoError(t, err)
	require.Len(t, list.Speeches, 2)
	assert.Equal(t, a.Speech.Id, list.Speeches[0].Id)
	assert.Equal(t, b.Speech.Id, list.Speeches[1].Id)

	empty, err := f.speeches.ListByUser(ctx, "user_nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty.Speeches)
	assert.Empty(t, empty.Speeches)
}

func TestRenameSpeech(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	created, err := f.speeches.Create(ctx, "user_a", "Draft")
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       uuid.UUID
		newName  string
		wantKind apperror.Kind
	}{
		{name: "renames", id: created.Speech.Id, newName: "Final"},
		{name: "empty name", id: created.Speech.Id, newName: " ", wantKind: apperror.KindValidation},
		{name: "unknown speech", id: uuid.New(), newName: "Final", wantKind: apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.speeches.Rename(ctx, tt.id, tt.newName)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, apperror.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.newName, res.Name)
		})
	}

	got, err := f.speeches.Get(ctx, created.Speech.Id)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Name)
}

func TestRenameDuringCreateRehearsalKeepsLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	created, err := f.speeches.Create(ctx, "user_a", "Draft")
	require.NoError(t, err)

	const pairs = 200
	ids := make(chan uuid.UUID, pairs)
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := f.rehearsals.Create(ctx, created.Speech.Id)
			if assert.NoError(t, err) {
				ids <- res.Rehearsal.Id
			}
		}()
		go func() {
			defer wg.Done()
			_, err := f.speeches.Rename(ctx, created.Speech.Id, "Final")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(ids)

	speech, err := f.speeches.Get(ctx, created.Speech.Id)
	require.NoError(t, err)
	assert.Equal(t, "Final", speech.Name)
	require.Len(t, speech.Rehearsals, pairs+1)
	for id := range ids {
		assert.Contains(t, speech.Rehearsals, id)
	}
}

func TestDeleteSpeechRemovesAllRehearsals(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.speeches.Create(ctx, "user_a", "Talk")
	require.NoError(t, err)
	second, err := f.rehearsals.Create(ctx, created.Speech.Id)
	require.NoError(t, err)

	res, err := f.speeches.Delete(ctx, created.Speech.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, res.DeletedRehearsals)

	_, err = f.speeches.Get(ctx, created.Speech.Id)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	for _, id := range []uuid.UUID{created.Rehearsal.Id, second.Rehearsal.Id} {
		_, err = f.rehearsals.Get(ctx, id)
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	}

	_, err = f.speeches.Delete(ctx, created.Speech.Id)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSpeechSummaryAndAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.speeches.Create(ctx, "user_a", "Talk")
	require.NoError(t, err)
	second, err := f.rehearsals.Create(ctx, created.Speech.Id)
	require.NoError(t, err)

	_, err = f.rehearsals.UpdateVideo(ctx, created.Rehearsal.Id, testVideoURL, 90)
	require.NoError(t, err)
	_, err = f.rehearsals.UpdateVideo(ctx, second.Rehearsal.Id, "https://res.cloudinary.com/demo/video/upload/take2.mp4", 30)
	require.NoError(t, err)

	summary, err := f.speeches.Summary(ctx, created.Speech.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RehearsalCount)
	assert.InDelta(t, 2.0, summary.PracticeMinutes, 0.0001)
	require.Len(t, summary.Rehearsals, 2)
	assert.Equal(t, created.Rehearsal.Id, summary.Rehearsals[0].Id)

	require.NoError(t, f.speeches.RefreshAggregates(ctx, created.Speech.Id))
	got, err := f.speeches.Get(ctx, created.Speech.Id)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.PracticeTime)
	assert.Equal(t, "https://res.cloudinary.com/demo/video/upload/v1712345678/rehearsals/take1.jpg", got.ThumbnailUrl)

	err = f.speeches.RefreshAggregates(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
