package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/repository/memory"
	"speech-rehearsal-be/internal/repository/unitofwork"
	"speech-rehearsal-be/pkg/analysisengine"
	"speech-rehearsal-be/pkg/media"

	"github.com/google/uuid"
)

type recordedEvent struct {
	Type string
	Data map[string]interface{}
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Type: eventType, Data: data})
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type fakePublisher struct {
	mu       sync.Mutex
	speeches []uuid.UUID
	err      error
}

func (f *fakePublisher) RecomputeSpeech(ctx context.Context, speechId uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speeches = append(f.speeches, speechId)
	return f.err
}

func (f *fakePublisher) queued() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.speeches...)
}

type statusUpdate struct {
	RehearsalID string
	Status      string
	Kinds       []string
}

type fakeNotifier struct {
	mu      sync.Mutex
	updates []statusUpdate
}

func (f *fakeNotifier) NotifyAnalysisStatus(rehearsalId string, status string, kinds []string, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{RehearsalID: rehearsalId, Status: status, Kinds: kinds})
}

func (f *fakeNotifier) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.updates))
	for i, u := range f.updates {
		out[i] = u.Status
	}
	return out
}

type fakeEngine struct {
	transcriptCalls   atomic.Int32
	bodyLanguageCalls atomic.Int32

	mu              sync.Mutex
	lastTranscript  analysisengine.TranscriptRequest
	transcriptErr   error
	bodyLanguageErr error
	// When set, calls block until it is closed.
	release chan struct{}
}

func (f *fakeEngine) wait(ctx context.Context) error {
	if f.release == nil {
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeEngine) AnalyzeTranscript(ctx context.Context, req analysisengine.TranscriptRequest) (*analysisengine.TranscriptResult, error) {
	f.transcriptCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastTranscript = req
	f.mu.Unlock()
	if f.transcriptErr != nil {
		return nil, f.transcriptErr
	}

	res := &analysisengine.TranscriptResult{
		SpeechRateWpm: 142,
		FillerWords:   map[string]int{"um": 3, "like": 1},
	}
	if req.Outline != "" {
		res.ContentAnalysis = &analysisengine.OutlineFeedback{
			Pros: []analysisengine.OutlineObservation{{OutlinePoint: "Intro", Timestamp: "00:05", Description: "Clear hook"}},
			Cons: []analysisengine.OutlineObservation{},
		}
	}
	if req.Script != "" {
		res.ScriptAnalysis = &analysisengine.ScriptFeedback{
			Omissions: []analysisengine.ScriptObservation{{ScriptExcerpt: "thank you all", Timestamp: "01:10", Note: "skipped"}},
		}
	}
	return res, nil
}

func (f *fakeEngine) AnalyzeBodyLanguage(ctx context.Context, videoURL string) (*analysisengine.BodyLanguageResult, error) {
	f.bodyLanguageCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.bodyLanguageErr != nil {
		return nil, f.bodyLanguageErr
	}
	return &analysisengine.BodyLanguageResult{
		Pros: []analysisengine.Observation{{Timestamp: "00:12", Description: "Open posture"}},
		Cons: []analysisengine.Observation{{Timestamp: "00:40", Description: "Looking down"}},
	}, nil
}

type fakeUploader struct {
	result *media.UploadResult
	err    error
}

func (f *fakeUploader) UploadVideo(ctx context.Context, filename string, file io.Reader) (*media.UploadResult, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

var errEngineDown = errors.New("engine down")

const testVideoURL = "https://res.cloudinary.com/demo/video/upload/v1712345678/rehearsals/take1.mp4"

// fixture wires the services over an in-memory store.
type fixture struct {
	store      *memory.Store
	uowFactory unitofwork.RepositoryFactory
	events     *fakeEvents
	publisher  *fakePublisher
	notifier   *fakeNotifier
	engine     *fakeEngine
	uploader   *fakeUploader

	speeches   ISpeechService
	rehearsals IRehearsalService
	analysis   IAnalysisService
}

func newFixture() *fixture {
	log := logger.NewNopLogger()
	f := &fixture{
		store:     memory.NewStore(),
		events:    &fakeEvents{},
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		engine:    &fakeEngine{},
		uploader: &fakeUploader{result: &media.UploadResult{
			SecureURL: testVideoURL,
			PublicID:  "rehearsals/take1",
			Duration:  93.5,
		}},
	}
	f.uowFactory = memory.NewRepositoryFactory(f.store)
	f.speeches = NewSpeechService(f.uowFactory, f.events, log)
	f.rehearsals = NewRehearsalService(f.uowFactory, f.publisher, f.events, f.uploader, time.Second, log)
	f.analysis = NewAnalysisService(f.uowFactory, f.engine, f.notifier, f.events, 5*time.Second, log)
	return f
}
