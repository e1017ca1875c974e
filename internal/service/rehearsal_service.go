package service

import (
	"context"
	"errors"
	"io"
	"time"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/repository/contract"
	"speech-rehearsal-be/internal/repository/unitofwork"
	pkgEvents "speech-rehearsal-be/pkg/events"
	"speech-rehearsal-be/pkg/media"

	"github.com/google/uuid"
)

type IRehearsalService interface {
	Create(ctx context.Context, speechId uuid.UUID) (*dto.CreateRehearsalResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.RehearsalResponse, error)
	UpdateType(ctx context.Context, id uuid.UUID, analysis *[]string) (*dto.RehearsalResponse, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content *dto.ContentRequest) (*dto.RehearsalResponse, error)
	UpdateVideo(ctx context.Context, id uuid.UUID, videoUrl string, duration float64) (*dto.RehearsalResponse, error)
	UpdateDeliveryAnalysis(ctx context.Context, id uuid.UUID, analysis *entity.DeliveryAnalysis) (*dto.RehearsalResponse, error)
	UpdateContentAnalysis(ctx context.Context, id uuid.UUID, analysis *entity.ContentAnalysis) (*dto.RehearsalResponse, error)
	// Delete removes the rehearsal and unlinks it; the speech always survives.
	Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteRehearsalResponse, error)
	// DeleteCascading also deletes the speech when this was its last rehearsal.
	DeleteCascading(ctx context.Context, id uuid.UUID) (*dto.CascadeDeleteResponse, error)
	UploadVideo(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (*dto.UploadVideoResponse, error)
	Playback(ctx context.Context, id uuid.UUID) (*dto.PlaybackResponse, error)
}

type rehearsalService struct {
	uowFactory   unitofwork.RepositoryFactory
	publisher    IPublisherService
	events       IEventPublisher
	uploader     media.Uploader
	mediaTimeout time.Duration
	logger       logger.ILogger
}

func NewRehearsalService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	events IEventPublisher,
	uploader media.Uploader,
	mediaTimeout time.Duration,
	logger logger.ILogger,
) IRehearsalService {
	return &rehearsalService{
		uowFactory:   uowFactory,
		publisher:    publisher,
		events:       events,
		uploader:     uploader,
		mediaTimeout: mediaTimeout,
		logger:       logger,
	}
}

func findRehearsal(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Rehearsal, error) {
	rehearsal, err := uow.RehearsalRepository().FindByID(ctx, id)
	return checkRehearsal(rehearsal, err, id)
}

// lockRehearsal is findRehearsal with a row lock; uow must be inside a transaction.
func lockRehearsal(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Rehearsal, error) {
	rehearsal, err := uow.RehearsalRepository().FindByIDForUpdate(ctx, id)
	return checkRehearsal(rehearsal, err, id)
}

func checkRehearsal(rehearsal *entity.Rehearsal, err error, id uuid.UUID) (*entity.Rehearsal, error) {
	if err != nil {
		return nil, apperror.Persistence(err, "could not load rehearsal %s", id)
	}
	if rehearsal == nil {
		return nil, apperror.NotFound("rehearsal %s not found", id)
	}
	return rehearsal, nil
}

func (s *rehearsalService) Create(ctx context.Context, speechId uuid.UUID) (*dto.CreateRehearsalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	speech, err := uow.SpeechRepository().FindByIDForUpdate(ctx, speechId)
	if err != nil {
		return nil, apperror.Persistence(err, "could not load speech %s", speechId)
	}
	if speech == nil {
		return nil, apperror.NotFound("speech %s not found", speechId)
	}

	rehearsal := &entity.Rehearsal{
		Id:        uuid.New(),
		SpeechId:  speechId,
		Analysis:  []entity.AnalysisKind{},
		CreatedAt: time.Now(),
	}
	if err := uow.RehearsalRepository().Create(ctx, rehearsal); err != nil {
		return nil, apperror.Persistence(err, "could not create rehearsal")
	}
	speech.Rehearsals = append(speech.Rehearsals, rehearsal.Id)
	if err := uow.SpeechRepository().Update(ctx, speech); err != nil {
		return nil, apperror.Persistence(err, "could not link rehearsal to speech")
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit rehearsal")
	}

	s.events.Publish(ctx, pkgEvents.RehearsalCreated, map[string]interface{}{
		"rehearsal_id": rehearsal.Id.String(),
		"speech_id":    speechId.String(),
	})
	return &dto.CreateRehearsalResponse{Rehearsal: dto.NewRehearsalResponse(rehearsal)}, nil
}

func (s *rehearsalService) Get(ctx context.Context, id uuid.UUID) (*dto.RehearsalResponse, error) {
	rehearsal, err := findRehearsal(ctx, s.uowFactory.NewUnitOfWork(ctx), id)
	if err != nil {
		return nil, err
	}
	return dto.NewRehearsalResponse(rehearsal), nil
}

// update locks the rehearsal, applies mutate and saves it. mutate may reject
// the change with an error, in which case nothing is written. The row lock
// keeps a concurrent delete from being undone by the write.
func (s *rehearsalService) update(ctx context.Context, id uuid.UUID, mutate func(r *entity.Rehearsal) error) (*entity.Rehearsal, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	rehearsal, err := lockRehearsal(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(rehearsal); err != nil {
		return nil, err
	}
	if err := uow.RehearsalRepository().Update(ctx, rehearsal); err != nil {
		return nil, writeError(err, "rehearsal", id)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit rehearsal %s", id)
	}
	return rehearsal, nil
}

// writeError reports a row deleted underneath an update as NotFound.
func writeError(err error, collection string, id uuid.UUID) error {
	if errors.Is(err, contract.ErrRowMissing) {
		return apperror.NotFound("%s %s not found", collection, id)
	}
	return apperror.Persistence(err, "could not update %s %s", collection, id)
}

func ParseAnalysisKinds(raw []string) ([]entity.AnalysisKind, error) {
	kinds := make([]entity.AnalysisKind, 0, len(raw))
	seen := make(map[entity.AnalysisKind]bool, len(raw))
	for _, k := range raw {
		kind := entity.AnalysisKind(k)
		if kind != entity.AnalysisContent && kind != entity.AnalysisDelivery {
			return nil, apperror.Validation("unknown analysis kind %q", k)
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

func (s *rehearsalService) UpdateType(ctx context.Context, id uuid.UUID, analysis *[]string) (*dto.RehearsalResponse, error) {
	if analysis == nil {
		return nil, apperror.Validation("analysis is required")
	}
	kinds, err := ParseAnalysisKinds(*analysis)
	if err != nil {
		return nil, err
	}

	rehearsal, err := s.update(ctx, id, func(r *entity.Rehearsal) error {
		r.SetAnalysis(kinds)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRehearsalResponse(rehearsal), nil
}

func (s *rehearsalService) UpdateContent(ctx context.Context, id uuid.UUID, content *dto.ContentRequest) (*dto.RehearsalResponse, error) {
	if content == nil {
		return nil, apperror.Validation("content is required")
	}
	contentType := entity.ContentType(content.Type)
	if contentType != entity.ContentScript && contentType != entity.ContentOutline {
		return nil, apperror.Validation("content type must be script or outline")
	}

	rehearsal, err := s.update(ctx, id, func(r *entity.Rehearsal) error {
		r.Content = &entity.Content{Type: contentType, Text: content.Text}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRehearsalResponse(rehearsal), nil
}

func (s *rehearsalService) UpdateVideo(ctx context.Context, id uuid.UUID, videoUrl string, duration float64) (*dto.RehearsalResponse, error) {
	if videoUrl == "" {
		return nil, apperror.Validation("videoUrl is required")
	}
	if duration < 0 {
		return nil, apperror.Validation("duration must not be negative")
	}

	rehearsal, err := s.update(ctx, id, func(r *entity.Rehearsal) error {
		r.VideoUrl = videoUrl
		r.Duration = duration
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, rehearsal.SpeechId)
	return dto.NewRehearsalResponse(rehearsal), nil
}

func (s *rehearsalService) UpdateDeliveryAnalysis(ctx context.Context, id uuid.UUID, analysis *entity.DeliveryAnalysis) (*dto.RehearsalResponse, error) {
	if analysis == nil {
		return nil, apperror.Validation("deliveryAnalysis is required")
	}
	rehearsal, err := s.update(ctx, id, func(r *entity.Rehearsal) error {
		if !r.Requests(entity.AnalysisDelivery) {
			return apperror.Validation("delivery analysis was not requested for rehearsal %s", id)
		}
		r.DeliveryAnalysis = analysis
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRehearsalResponse(rehearsal), nil
}

func (s *rehearsalService) UpdateContentAnalysis(ctx context.Context, id uuid.UUID, analysis *entity.ContentAnalysis) (*dto.RehearsalResponse, error) {
	if analysis == nil {
		return nil, apperror.Validation("contentAnalysis is required")
	}
	rehearsal, err := s.update(ctx, id, func(r *entity.Rehearsal) error {
		if !r.Requests(entity.AnalysisContent) {
			return apperror.Validation("content analysis was not requested for rehearsal %s", id)
		}
		r.ContentAnalysis = analysis
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRehearsalResponse(rehearsal), nil
}

// unlink removes the rehearsal inside uow's transaction and reports the
// speech it belonged to and whether that speech is now empty. The speech row
// is locked so the emptiness check cannot race another delete.
func unlink(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Rehearsal, *entity.Speech, error) {
	rehearsal, err := lockRehearsal(ctx, uow, id)
	if err != nil {
		return nil, nil, err
	}

	speech, err := uow.SpeechRepository().FindByIDForUpdate(ctx, rehearsal.SpeechId)
	if err != nil {
		return nil, nil, apperror.Persistence(err, "could not load speech %s", rehearsal.SpeechId)
	}
	if speech != nil && speech.RemoveRehearsal(id) {
		if err := uow.SpeechRepository().Update(ctx, speech); err != nil {
			return nil, nil, apperror.Persistence(err, "could not unlink rehearsal %s", id)
		}
	}
	if err := uow.RehearsalRepository().Delete(ctx, id); err != nil {
		return nil, nil, apperror.Persistence(err, "could not delete rehearsal %s", id)
	}
	return rehearsal, speech, nil
}

func (s *rehearsalService) Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteRehearsalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	rehearsal, _, err := unlink(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit rehearsal delete")
	}

	s.events.Publish(ctx, pkgEvents.RehearsalDeleted, map[string]interface{}{
		"rehearsal_id":   id.String(),
		"speech_id":      rehearsal.SpeechId.String(),
		"speech_deleted": false,
	})
	s.recompute(ctx, rehearsal.SpeechId)
	return &dto.DeleteRehearsalResponse{Id: id}, nil
}

func (s *rehearsalService) DeleteCascading(ctx context.Context, id uuid.UUID) (*dto.CascadeDeleteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence(err, "could not start transaction")
	}
	defer uow.Rollback()

	rehearsal, speech, err := unlink(ctx, uow, id)
	if err != nil {
		return nil, err
	}

	speechDeleted := false
	if speech != nil && len(speech.Rehearsals) == 0 {
		// Catch rows whose id never made it into the list.
		if err := uow.RehearsalRepository().DeleteBySpeechID(ctx, speech.Id); err != nil {
			return nil, apperror.Persistence(err, "could not delete rehearsals of speech %s", speech.Id)
		}
		if err := uow.SpeechRepository().Delete(ctx, speech.Id); err != nil {
			return nil, apperror.Persistence(err, "could not delete speech %s", speech.Id)
		}
		speechDeleted = true
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence(err, "could not commit rehearsal delete")
	}

	s.logger.Info("RehearsalService", "Rehearsal deleted", map[string]interface{}{
		"rehearsal_id":   id,
		"speech_id":      rehearsal.SpeechId,
		"speech_deleted": speechDeleted,
	})
	s.events.Publish(ctx, pkgEvents.RehearsalDeleted, map[string]interface{}{
		"rehearsal_id":   id.String(),
		"speech_id":      rehearsal.SpeechId.String(),
		"speech_deleted": speechDeleted,
	})
	if speechDeleted {
		s.events.Publish(ctx, pkgEvents.SpeechDeleted, map[string]interface{}{
			"speech_id": rehearsal.SpeechId.String(),
			"user_id":   speech.UserId,
		})
	} else {
		s.recompute(ctx, rehearsal.SpeechId)
	}

	return &dto.CascadeDeleteResponse{
		Id:            id,
		SpeechId:      rehearsal.SpeechId,
		SpeechDeleted: speechDeleted,
	}, nil
}

// UploadVideo streams the file to the media service and stores the resulting
// URL and duration exactly like UpdateVideo.
func (s *rehearsalService) UploadVideo(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (*dto.UploadVideoResponse, error) {
	if _, err := findRehearsal(ctx, s.uowFactory.NewUnitOfWork(ctx), id); err != nil {
		return nil, err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.mediaTimeout)
	defer cancel()

	res, err := s.uploader.UploadVideo(uploadCtx, filename, file)
	if err != nil {
		s.logger.Error("RehearsalService", "Video upload failed", map[string]interface{}{
			"rehearsal_id": id,
			"error":        err.Error(),
		})
		return nil, apperror.Upstream(err, "media service upload failed")
	}

	rehearsal, err := s.UpdateVideo(ctx, id, res.SecureURL, res.Duration)
	if err != nil {
		return nil, err
	}
	return &dto.UploadVideoResponse{Rehearsal: rehearsal, PublicId: res.PublicID}, nil
}

func (s *rehearsalService) Playback(ctx context.Context, id uuid.UUID) (*dto.PlaybackResponse, error) {
	rehearsal, err := findRehearsal(ctx, s.uowFactory.NewUnitOfWork(ctx), id)
	if err != nil {
		return nil, err
	}
	if rehearsal.VideoUrl == "" {
		return nil, apperror.Validation("rehearsal %s has no video yet", id)
	}
	publicId, err := media.ParsePublicID(rehearsal.VideoUrl)
	if err != nil {
		return nil, apperror.Validation("stored video url is not a media service url: %v", err)
	}
	return &dto.PlaybackResponse{
		PublicId:     publicId,
		SecureUrl:    rehearsal.VideoUrl,
		ThumbnailUrl: media.ThumbnailURL(rehearsal.VideoUrl),
	}, nil
}

func (s *rehearsalService) recompute(ctx context.Context, speechId uuid.UUID) {
	if err := s.publisher.RecomputeSpeech(ctx, speechId); err != nil {
		s.logger.Warn("RehearsalService", "Could not queue practice time refresh", map[string]interface{}{
			"speech_id": speechId,
			"error":     err.Error(),
		})
	}
}
