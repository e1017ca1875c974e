package service

import (
	"context"
	"errors"
	"time"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/repository/unitofwork"
	"speech-rehearsal-be/internal/tracer"
	"speech-rehearsal-be/pkg/analysisengine"
	pkgEvents "speech-rehearsal-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Analysis status values, shared with the websocket hub.
const (
	AnalysisInFlight  = "in_flight"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "failed"
)

// StatusNotifier receives analysis progress for live subscribers.
type StatusNotifier interface {
	NotifyAnalysisStatus(rehearsalId string, status string, kinds []string, errMsg string)
}

type IAnalysisService interface {
	// Analyze fills in every requested analysis kind that has no stored
	// result yet. Concurrent calls for the same rehearsal share one run.
	Analyze(ctx context.Context, id uuid.UUID) (*dto.AnalysisResponse, error)
}

type analysisService struct {
	uowFactory unitofwork.RepositoryFactory
	engine     analysisengine.Engine
	notifier   StatusNotifier
	events     IEventPublisher
	timeout    time.Duration
	logger     logger.ILogger

	inflight singleflight.Group
}

func NewAnalysisService(
	uowFactory unitofwork.RepositoryFactory,
	engine analysisengine.Engine,
	notifier StatusNotifier,
	events IEventPublisher,
	timeout time.Duration,
	logger logger.ILogger,
) IAnalysisService {
	return &analysisService{
		uowFactory: uowFactory,
		engine:     engine,
		notifier:   notifier,
		events:     events,
		timeout:    timeout,
		logger:     logger,
	}
}

func (s *analysisService) Analyze(ctx context.Context, id uuid.UUID) (*dto.AnalysisResponse, error) {
	ch := s.inflight.DoChan(id.String(), func() (interface{}, error) {
		// The run outlives a disconnecting caller so a finished engine call
		// is still persisted; the timeout bounds it instead.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.run(runCtx, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dto.AnalysisResponse), nil
	case <-ctx.Done():
		// The run keeps going and will persist; only this caller gave up.
		return nil, apperror.Upstream(ctx.Err(), "analysis of rehearsal %s still running", id)
	}
}

type engineResults struct {
	transcript   *analysisengine.TranscriptResult
	bodyLanguage *analysisengine.BodyLanguageResult
}

func (s *analysisService) run(ctx context.Context, id uuid.UUID) (res *dto.AnalysisResponse, err error) {
	ctx, span := tracer.Start(ctx, "analysis.run", attribute.String("rehearsal.id", id.String()))
	defer func() { tracer.End(span, err) }()

	rehearsal, err := findRehearsal(ctx, s.uowFactory.NewUnitOfWork(ctx), id)
	if err != nil {
		return nil, err
	}

	pending := rehearsal.PendingKinds()
	if len(pending) == 0 {
		return analysisResponse(rehearsal, true), nil
	}
	if rehearsal.VideoUrl == "" {
		return nil, apperror.Validation("rehearsal %s has no video to analyze", id)
	}
	contentPending := containsKind(pending, entity.AnalysisContent)
	if contentPending && !rehearsal.HasContent() {
		return nil, apperror.Validation("content analysis requested but rehearsal %s has no outline or script", id)
	}

	kinds := kindStrings(pending)
	s.notifier.NotifyAnalysisStatus(id.String(), AnalysisInFlight, kinds, "")
	s.logger.Info("AnalysisService", "Analysis started", map[string]interface{}{
		"rehearsal_id": id,
		"kinds":        kinds,
	})

	results, err := s.callEngine(ctx, rehearsal, pending)
	if err != nil {
		return nil, s.fail(ctx, id, kinds, apperror.Upstream(err, "analysis engine failed for rehearsal %s", id))
	}

	updated, err := s.persist(ctx, id, pending, results)
	if err != nil {
		return nil, s.fail(ctx, id, kinds, err)
	}

	s.notifier.NotifyAnalysisStatus(id.String(), AnalysisCompleted, kinds, "")
	s.events.Publish(ctx, pkgEvents.RehearsalAnalyzed, map[string]interface{}{
		"rehearsal_id": id.String(),
		"speech_id":    updated.SpeechId.String(),
		"kinds":        kinds,
	})
	s.logger.Info("AnalysisService", "Analysis completed", map[string]interface{}{
		"rehearsal_id": id,
		"kinds":        kinds,
	})
	return analysisResponse(updated, false), nil
}

// callEngine issues at most one transcript call, which serves both kinds, and
// one body-language call when delivery is pending. Both run concurrently.
func (s *analysisService) callEngine(ctx context.Context, r *entity.Rehearsal, pending []entity.AnalysisKind) (*engineResults, error) {
	var results engineResults
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		req := analysisengine.TranscriptRequest{VideoURL: r.VideoUrl}
		if containsKind(pending, entity.AnalysisContent) {
			switch r.Content.Type {
			case entity.ContentOutline:
				req.Outline = r.Content.Text
			case entity.ContentScript:
				req.Script = r.Content.Text
			}
		}
		res, err := s.engine.AnalyzeTranscript(gctx, req)
		if err != nil {
			return err
		}
		results.transcript = res
		return nil
	})

	if containsKind(pending, entity.AnalysisDelivery) {
		g.Go(func() error {
			res, err := s.engine.AnalyzeBodyLanguage(gctx, r.VideoUrl)
			if err != nil {
				return err
			}
			results.bodyLanguage = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &results, nil
}

// persist writes each produced kind once. The rehearsal is reloaded inside the
// transaction so a kind dropped while the engine was running is not written.
func (s *analysisService) persist(ctx context.Context, id uuid.UUID, pending []entity.AnalysisKind, results *engineResults) (*entity.Rehearsal, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	rehearsal, err := lockRehearsal(ctx, uow, id)
	if err != nil {
		return nil, err
	}

	for _, kind := range pending {
		if !rehearsal.Requests(kind) {
			continue
		}
		switch kind {
		case entity.AnalysisDelivery:
			rehearsal.DeliveryAnalysis = toDeliveryAnalysis(results.transcript, results.bodyLanguage)
		case entity.AnalysisContent:
			rehearsal.ContentAnalysis = toContentAnalysis(results.transcript)
		}
		if err := uow.RehearsalRepository().Update(ctx, rehearsal); err != nil {
			return nil, writeError(err, "rehearsal", id)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit analysis for rehearsal %s", id)
	}
	return rehearsal, nil
}

func (s *analysisService) fail(ctx context.Context, id uuid.UUID, kinds []string, err error) error {
	s.logger.Error("AnalysisService", "Analysis failed", map[string]interface{}{
		"rehearsal_id": id,
		"kinds":        kinds,
		"error":        err.Error(),
		"timeout":      errors.Is(err, context.DeadlineExceeded),
	})
	s.notifier.NotifyAnalysisStatus(id.String(), AnalysisFailed, kinds, err.Error())
	s.events.Publish(ctx, pkgEvents.AnalysisFailed, map[string]interface{}{
		"rehearsal_id": id.String(),
		"kinds":        kinds,
		"error":        err.Error(),
	})
	return err
}

func analysisResponse(r *entity.Rehearsal, cached bool) *dto.AnalysisResponse {
	return &dto.AnalysisResponse{
		RehearsalId:      r.Id,
		DeliveryAnalysis: r.DeliveryAnalysis,
		ContentAnalysis:  r.ContentAnalysis,
		Cached:           cached,
	}
}

func containsKind(kinds []entity.AnalysisKind, kind entity.AnalysisKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func kindStrings(kinds []entity.AnalysisKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func toDeliveryAnalysis(t *analysisengine.TranscriptResult, b *analysisengine.BodyLanguageResult) *entity.DeliveryAnalysis {
	d := &entity.DeliveryAnalysis{
		SpeechRateWpm: t.SpeechRateWpm,
		FillerWords:   t.FillerWords,
	}
	if d.FillerWords == nil {
		d.FillerWords = map[string]int{}
	}
	if b != nil {
		d.BodyLanguageAnalysis = &entity.BodyLanguageAnalysis{
			Pros: toObservations(b.Pros),
			Cons: toObservations(b.Cons),
		}
	}
	return d
}

func toObservations(in []analysisengine.Observation) []entity.Observation {
	out := make([]entity.Observation, len(in))
	for i, o := range in {
		out[i] = entity.Observation{Timestamp: o.Timestamp, Description: o.Description}
	}
	return out
}

func toContentAnalysis(t *analysisengine.TranscriptResult) *entity.ContentAnalysis {
	c := &entity.ContentAnalysis{}
	if t.ContentAnalysis != nil {
		c.ContentAnalysis = &entity.OutlineAnalysis{
			Pros: toOutlineObservations(t.ContentAnalysis.Pros),
			Cons: toOutlineObservations(t.ContentAnalysis.Cons),
		}
	}
	if t.ScriptAnalysis != nil {
		c.ScriptAnalysis = &entity.ScriptAnalysis{
			Omissions:   toScriptObservations(t.ScriptAnalysis.Omissions),
			Additions:   toScriptObservations(t.ScriptAnalysis.Additions),
			Paraphrases: toScriptObservations(t.ScriptAnalysis.Paraphrases),
		}
	}
	return c
}

func toOutlineObservations(in []analysisengine.OutlineObservation) []entity.OutlineObservation {
	out := make([]entity.OutlineObservation, len(in))
	for i, o := range in {
		out[i] = entity.OutlineObservation(o)
	}
	return out
}

func toScriptObservations(in []analysisengine.ScriptObservation) []entity.ScriptObservation {
	out := make([]entity.ScriptObservation, len(in))
	for i, o := range in {
		out[i] = entity.ScriptObservation(o)
	}
	return out
}
