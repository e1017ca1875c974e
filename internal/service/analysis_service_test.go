package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/pkg/apperror"
	pkgEvents "speech-rehearsal-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prepare creates a rehearsal with the given kinds, content and a video.
func (f *fixture) prepare(t *testing.T, analysis []string, content *dto.ContentRequest) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	created, err := f.speeches.Create(ctx, "user_a", "Talk")
	require.NoError(t, err)
	id := created.Rehearsal.Id

	_, err = f.rehearsals.UpdateType(ctx, id, &analysis)
	require.NoError(t, err)
	if content != nil {
		_, err = f.rehearsals.UpdateContent(ctx, id, content)
		require.NoError(t, err)
	}
	_, err = f.rehearsals.UpdateVideo(ctx, id, testVideoURL, 75)
	require.NoError(t, err)
	return id
}

func TestAnalyzeBothKindsThenCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.prepare(t, []string{"content", "delivery"}, &dto.ContentRequest{Type: "outline", Text: "Hook\nStory\nAsk"})

	res, err := f.analysis.Analyze(ctx, id)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.NotNil(t, res.DeliveryAnalysis)
	require.NotNil(t, res.ContentAnalysis)
	assert.Equal(t, 142.0, res.DeliveryAnalysis.SpeechRateWpm)
	assert.Equal(t, 3, res.DeliveryAnalysis.FillerWords["um"])
	require.NotNil(t, res.DeliveryAnalysis.BodyLanguageAnalysis)
	assert.Equal(t, "Open posture", res.DeliveryAnalysis.BodyLanguageAnalysis.Pros[0].Description)
	require.NotNil(t, res.ContentAnalysis.ContentAnalysis)
	assert.Equal(t, "Intro", res.ContentAnalysis.ContentAnalysis.Pros[0].OutlinePoint)
	assert.Nil(t, res.ContentAnalysis.ScriptAnalysis)

	assert.Equal(t, int32(1), f.engine.transcriptCalls.Load())
	assert.Equal(t, int32(1), f.engine.bodyLanguageCalls.Load())
	assert.Equal(t, "Hook\nStory\nAsk", f.engine.lastTranscript.Outline)
	assert.Empty(t, f.engine.lastTranscript.Script)
	assert.Equal(t, []string{AnalysisInFlight, AnalysisCompleted}, f.notifier.statuses())
	assert.Contains(t, f.events.types(), pkgEvents.RehearsalAnalyzed)

	stored, err := f.rehearsals.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.DeliveryAnalysis, stored.DeliveryAnalysis)
	assert.Equal(t, res.ContentAnalysis, stored.ContentAnalysis)

	again, err := f.analysis.Analyze(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.DeliveryAnalysis, again.DeliveryAnalysis)
	assert.Equal(t, int32(1), f.engine.transcriptCalls.Load())
	assert.Equal(t, int32(1), f.engine.bodyLanguageCalls.Load())
}

func TestAnalyzeOnlyRequestedKinds(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		analysis         []string
		content          *dto.ContentRequest
		wantDelivery     bool
		wantContent      bool
		wantBodyLanguage int32
		wantScript       string
	}{
		{
			name:             "delivery only",
			analysis:         []string{"delivery"},
			wantDelivery:     true,
			wantBodyLanguage: 1,
		},
		{
			name:        "content from script",
			analysis:    []string{"content"},
			content:     &dto.ContentRequest{Type: "script", Text: "Thank you all for coming."},
			wantContent: true,
			wantScript:  "Thank you all for coming.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := f.prepare(t, tt.analysis, tt.content)

			res, err := f.analysis.Analyze(ctx, id)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDelivery, res.DeliveryAnalysis != nil)
			assert.Equal(t, tt.wantContent, res.ContentAnalysis != nil)
			assert.Equal(t, int32(1), f.engine.transcriptCalls.Load())
			assert.Equal(t, tt.wantBodyLanguage, f.engine.bodyLanguageCalls.Load())
			assert.Equal(t, tt.wantScript, f.engine.lastTranscript.Script)
			assert.Empty(t, f.engine.lastTranscript.Outline)
		})
	}
}

func TestAnalyzeNothingRequested(t *testing.T) {
	f := newFixture()
	id := f.prepare(t, []string{}, nil)

	res, err := f.analysis.Analyze(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Nil(t, res.DeliveryAnalysis)
	assert.Nil(t, res.ContentAnalysis)
	assert.Zero(t, f.engine.transcriptCalls.Load())
}

func TestAnalyzeEngineFailureLeavesFieldsUnset(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.engine.bodyLanguageErr = errEngineDown
	id := f.prepare(t, []string{"content", "delivery"}, &dto.ContentRequest{Type: "outline", Text: "Hook"})

	_, err := f.analysis.Analyze(ctx, id)
	require.Error(t, err)
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
	assert.ErrorIs(t, err, errEngineDown)

	stored, err := f.rehearsals.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.DeliveryAnalysis)
	assert.Nil(t, stored.ContentAnalysis)
	assert.Equal(t, []string{AnalysisInFlight, AnalysisFailed}, f.notifier.statuses())
	assert.Contains(t, f.events.types(), pkgEvents.AnalysisFailed)

	// No retry happens on its own; a new call goes back to the engine.
	f.engine.bodyLanguageErr = nil
	res, err := f.analysis.Analyze(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, res.DeliveryAnalysis)
	assert.Equal(t, int32(2), f.engine.bodyLanguageCalls.Load())
}

func TestAnalyzePreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("no video", func(t *testing.T) {
		f := newFixture()
		created, err := f.speeches.Create(ctx, "user_a", "Talk")
		require.NoError(t, err)
		_, err = f.rehearsals.UpdateType(ctx, created.Rehearsal.Id, kinds("delivery"))
		require.NoError(t, err)

		_, err = f.analysis.Analyze(ctx, created.Rehearsal.Id)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Zero(t, f.engine.transcriptCalls.Load())
	})

	t.Run("content requested without text", func(t *testing.T) {
		f := newFixture()
		id := f.prepare(t, []string{"content"}, nil)

		_, err := f.analysis.Analyze(ctx, id)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Empty(t, f.notifier.statuses())
	})

	t.Run("unknown rehearsal", func(t *testing.T) {
		f := newFixture()
		_, err := f.analysis.Analyze(ctx, uuid.New())
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})
}

func TestConcurrentAnalyzeSharesOneRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.engine.release = make(chan struct{})
	id := f.prepare(t, []string{"delivery"}, nil)

	var wg sync.WaitGroup
	results := make([]*dto.AnalysisResponse, 2)
	errs := make([]error, 2)
	call := func(i int) {
		defer wg.Done()
		results[i], errs[i] = f.analysis.Analyze(ctx, id)
	}

	wg.Add(1)
	go call(0)
	assert.Eventually(t, func() bool {
		return f.engine.transcriptCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	wg.Add(1)
	go call(1)
	time.Sleep(50 * time.Millisecond)
	close(f.engine.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].DeliveryAnalysis, results[1].DeliveryAnalysis)
	assert.Equal(t, int32(1), f.engine.transcriptCalls.Load())
	assert.Equal(t, int32(1), f.engine.bodyLanguageCalls.Load())
}

func TestAnalyzeCallerCancelDoesNotDropResult(t *testing.T) {
	f := newFixture()
	f.engine.release = make(chan struct{})
	id := f.prepare(t, []string{"delivery"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.analysis.Analyze(ctx, id)
		done <- err
	}()

	assert.Eventually(t, func() bool {
		return f.engine.bodyLanguageCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err), "a caller giving up is not an internal error")

	close(f.engine.release)
	assert.Eventually(t, func() bool {
		stored, err := f.rehearsals.Get(context.Background(), id)
		return err == nil && stored.DeliveryAnalysis != nil
	}, time.Second, 5*time.Millisecond)
}
