package service

import (
	"context"
	"strings"
	"time"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/repository/unitofwork"
	pkgEvents "speech-rehearsal-be/pkg/events"
	"speech-rehearsal-be/pkg/media"

	"github.com/google/uuid"
)

type ISpeechService interface {
	Create(ctx context.Context, userId string, name string) (*dto.CreateSpeechResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SpeechResponse, error)
	ListByUser(ctx context.Context, userId string) (*dto.ListSpeechesResponse, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*dto.SpeechResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteSpeechResponse, error)
	Summary(ctx context.Context, id uuid.UUID) (*dto.SpeechSummaryResponse, error)
	// RefreshAggregates recomputes practice time and thumbnail from the rehearsals.
	RefreshAggregates(ctx context.Context, id uuid.UUID) error
}

type speechService struct {
	uowFactory unitofwork.RepositoryFactory
	events     IEventPublisher
	logger     logger.ILogger
}

func NewSpeechService(
	uowFactory unitofwork.RepositoryFactory,
	events IEventPublisher,
	logger logger.ILogger,
) ISpeechService {
	return &speechService{
		uowFactory: uowFactory,
		events:     events,
		logger:     logger,
	}
}

// Create stores the speech and its first rehearsal in one transaction, so a
// failure on either write leaves nothing behind.
func (s *speechService) Create(ctx context.Context, userId string, name string) (*dto.CreateSpeechResponse, error) {
	if strings.TrimSpace(userId) == "" {
		return nil, apperror.Validation("userId is required")
	}
	if strings.TrimSpace(name) == "" {
		name = entity.DefaultSpeechName
	}

	now := time.Now()
	speech := &entity.Speech{
		Id:         uuid.New(),
		UserId:     userId,
		Name:       name,
		Rehearsals: []uuid.UUID{},
		CreatedAt:  now,
	}
	rehearsal := &entity.Rehearsal{
		Id:        uuid.New(),
		SpeechId:  speech.Id,
		Analysis:  []entity.AnalysisKind{},
		CreatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	if err := uow.SpeechRepository().Create(ctx, speech); err != nil {
		return nil, apperror.Persistence(err, "could not create speech")
	}
	if err := uow.RehearsalRepository().Create(ctx, rehearsal); err != nil {
		return nil, apperror.Persistence(err, "could not create rehearsal")
	}
	speech.Rehearsals = append(speech.Rehearsals, rehearsal.Id)
	if err := uow.SpeechRepository().Update(ctx, speech); err != nil {
		return nil, apperror.Persistence(err, "could not link rehearsal to speech")
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit speech")
	}

	s.logger.Info("SpeechService", "Speech created", map[string]interface{}{
		"speech_id":    speech.Id,
		"rehearsal_id": rehearsal.Id,
		"user_id":      userId,
	})
	s.events.Publish(ctx, pkgEvents.SpeechCreated, map[string]interface{}{
		"speech_id":    speech.Id.String(),
		"rehearsal_id": rehearsal.Id.String(),
		"user_id":      userId,
	})

	return &dto.CreateSpeechResponse{
		Speech:    dto.NewSpeechResponse(speech),
		Rehearsal: dto.NewRehearsalResponse(rehearsal),
	}, nil
}

func (s *speechService) find(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, forUpdate bool) (*entity.Speech, error) {
	var (
		speech *entity.Speech
		err    error
	)
	if forUpdate {
		speech, err = uow.SpeechRepository().FindByIDForUpdate(ctx, id)
	} else {
		speech, err = uow.SpeechRepository().FindByID(ctx, id)
	}
	if err != nil {
		return nil, apperror.Persistence(err, "could not load speech %s", id)
	}
	if speech == nil {
		return nil, apperror.NotFound("speech %s not found", id)
	}
	return speech, nil
}

func (s *speechService) Get(ctx context.Context, id uuid.UUID) (*dto.SpeechResponse, error) {
	speech, err := s.find(ctx, s.uowFactory.NewUnitOfWork(ctx), id, false)
	if err != nil {
		return nil, err
	}
	return dto.NewSpeechResponse(speech), nil
}

func (s *speechService) ListByUser(ctx context.Context, userId string) (*dto.ListSpeechesResponse, error) {
	speeches, err := s.uowFactory.NewUnitOfWork(ctx).SpeechRepository().FindAllByUserID(ctx, userId)
	if err != nil {
		return nil, apperror.Persistence(err, "could not list speeches")
	}

	res := &dto.ListSpeechesResponse{Speeches: make([]*dto.SpeechResponse, 0, len(speeches))}
	for _, sp := range speeches {
		res.Speeches = append(res.Speeches, dto.NewSpeechResponse(sp))
	}
	return res, nil
}

func (s *speechService) Rename(ctx context.Context, id uuid.UUID, name string) (*dto.SpeechResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	// Locked so the write-back cannot drop a rehearsal linked meanwhile.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	speech, err := s.find(ctx, uow, id, true)
	if err != nil {
		return nil, err
	}
	speech.Name = name
	if err := uow.SpeechRepository().Update(ctx, speech); err != nil {
		return nil, writeError(err, "speech", id)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit rename of speech %s", id)
	}
	return dto.NewSpeechResponse(speech), nil
}

// Delete removes the speech together with every rehearsal that points at it,
// including any that slipped out of the id list.
func (s *speechService) Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteSpeechResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	speech, err := s.find(ctx, uow, id, true)
	if err != nil {
		return nil, err
	}
	if err := uow.RehearsalRepository().DeleteBySpeechID(ctx, id); err != nil {
		return nil, apperror.Persistence(err, "could not delete rehearsals of speech %s", id)
	}
	if err := uow.SpeechRepository().Delete(ctx, id); err != nil {
		return nil, apperror.Persistence(err, "could not delete speech %s", id)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit speech delete")
	}

	s.logger.Info("SpeechService", "Speech deleted", map[string]interface{}{
		"speech_id":  id,
		"rehearsals": len(speech.Rehearsals),
	})
	s.events.Publish(ctx, pkgEvents.SpeechDeleted, map[string]interface{}{
		"speech_id": id.String(),
		"user_id":   speech.UserId,
	})

	return &dto.DeleteSpeechResponse{Id: id, DeletedRehearsals: len(speech.Rehearsals)}, nil
}

func (s *speechService) Summary(ctx context.Context, id uuid.UUID) (*dto.SpeechSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	speech, err := s.find(ctx, uow, id, false)
	if err != nil {
		return nil, err
	}
	rehearsals, err := uow.RehearsalRepository().FindAllByIDs(ctx, speech.Rehearsals)
	if err != nil {
		return nil, apperror.Persistence(err, "could not load rehearsals of speech %s", id)
	}

	// Computed from the rehearsals rather than speech.PracticeTime, which is
	// refreshed asynchronously.
	var seconds float64
	res := &dto.SpeechSummaryResponse{
		Speech:         dto.NewSpeechResponse(speech),
		Rehearsals:     make([]*dto.RehearsalResponse, 0, len(rehearsals)),
		RehearsalCount: len(rehearsals),
	}
	for _, r := range rehearsals {
		seconds += r.Duration
		res.Rehearsals = append(res.Rehearsals, dto.NewRehearsalResponse(r))
	}
	res.PracticeMinutes = seconds / 60
	return res, nil
}

func (s *speechService) RefreshAggregates(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	speech, err := s.find(ctx, uow, id, true)
	if err != nil {
		return err
	}
	rehearsals, err := uow.RehearsalRepository().FindAllByIDs(ctx, speech.Rehearsals)
	if err != nil {
		return apperror.Persistence(err, "could not load rehearsals of speech %s", id)
	}

	var total float64
	thumbnail := ""
	for _, r := range rehearsals {
		total += r.Duration
		if thumbnail == "" && r.VideoUrl != "" {
			thumbnail = media.ThumbnailURL(r.VideoUrl)
		}
	}

	if total == speech.PracticeTime && thumbnail == speech.ThumbnailUrl {
		return nil
	}
	speech.PracticeTime = total
	speech.ThumbnailUrl = thumbnail
	if err := uow.SpeechRepository().Update(ctx, speech); err != nil {
		return apperror.Persistence(err, "could not update speech aggregates")
	}
	if err := uow.Commit(); err != nil {
		return apperror.Persistence(err, "could not commit speech aggregates")
	}

	s.logger.Debug("SpeechService", "Aggregates refreshed", map[string]interface{}{
		"speech_id":     id,
		"practice_time": total,
	})
	return nil
}
