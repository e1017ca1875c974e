package service

import (
	"context"
	"errors"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/repository/unitofwork"
	"speech-rehearsal-be/internal/session"
	"speech-rehearsal-be/internal/wizard"

	"github.com/google/uuid"
)

// IWizardService drives the rehearsal wizard for one session. Every method
// that changes the current speech or rehearsal saves the session.
type IWizardService interface {
	Start(ctx context.Context, sess *session.Session, name string) (*dto.WizardStateResponse, error)
	Rehearse(ctx context.Context, sess *session.Session, speechId uuid.UUID) (*dto.WizardStateResponse, error)
	Next(ctx context.Context, sess *session.Session, rehearsalId uuid.UUID, from string) (*dto.WizardStateResponse, error)
	Back(ctx context.Context, sess *session.Session, rehearsalId uuid.UUID, from string) (*dto.WizardStateResponse, error)
	Exit(ctx context.Context, sess *session.Session, confirm bool) (*dto.WizardExitResponse, error)
	OpenSaved(ctx context.Context, sess *session.Session, rehearsalId uuid.UUID) (*dto.WizardStateResponse, error)
	DeleteSpeech(ctx context.Context, sess *session.Session, speechId uuid.UUID) (*dto.DeleteSpeechResponse, error)
	Guard(sess *session.Session, path string) *dto.GuardResponse
}

type wizardService struct {
	uowFactory       unitofwork.RepositoryFactory
	speechService    ISpeechService
	rehearsalService IRehearsalService
	sessionStore     session.Store
	logger           logger.ILogger
}

func NewWizardService(
	uowFactory unitofwork.RepositoryFactory,
	speechService ISpeechService,
	rehearsalService IRehearsalService,
	sessionStore session.Store,
	logger logger.ILogger,
) IWizardService {
	return &wizardService{
		uowFactory:       uowFactory,
		speechService:    speechService,
		rehearsalService: rehearsalService,
		sessionStore:     sessionStore,
		logger:           logger,
	}
}

func (s *wizardService) save(ctx context.Context, sess *session.Session) error {
	if err := s.sessionStore.Save(ctx, sess); err != nil {
		return apperror.Persistence(err, "could not save session")
	}
	return nil
}

func state(step wizard.Step, rehearsalId, speechId string) *dto.WizardStateResponse {
	return &dto.WizardStateResponse{
		Step:        string(step),
		Path:        wizard.Path(step, rehearsalId, speechId),
		SpeechId:    speechId,
		RehearsalId: rehearsalId,
	}
}

// Start creates a speech with its first rehearsal for the session's user and
// opens the type step.
func (s *wizardService) Start(ctx context.Context, sess *session.Session, name string) (*dto.WizardStateResponse, error) {
	created, err := s.speechService.Create(ctx, sess.UserID, name)
	if err != nil {
		return nil, err
	}

	speechId, rehearsalId := created.Speech.Id.String(), created.Rehearsal.Id.String()
	sess.StartSpeech(speechId, rehearsalId)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return state(wizard.StepType, rehearsalId, speechId), nil
}

// Rehearse adds a rehearsal to an existing speech, as "rehearse again" on the
// summary page does.
func (s *wizardService) Rehearse(ctx context.Context, sess *session.Session, speechId uuid.UUID) (*dto.WizardStateResponse, error) {
	created, err := s.rehearsalService.Create(ctx, speechId)
	if err != nil {
		return nil, err
	}

	rehearsalId := created.Rehearsal.Id.String()
	sess.StartRehearsal(speechId.String(), rehearsalId)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return state(wizard.StepType, rehearsalId, speechId.String()), nil
}

func (s *wizardService) Next(ctx context.Context, sess *session.Session, rehearsalId uuid.UUID, from string) (*dto.WizardStateResponse, error) {
	return s.move(ctx, sess, rehearsalId, from, wizard.Next)
}

func (s *wizardService) Back(ctx context.Context, sess *session.Session, rehearsalId uuid.UUID, from string) (*dto.WizardStateResponse, error) {
	return s.move(ctx, sess, rehearsalId, from, wizard.Back)
}

func (s *wizardService) move(
	ctx context.Context,
	sess *session.Session,
	rehearsalId uuid.UUID,
	from string,
	transition func(wizard.Step, *entity.Rehearsal) (wizard.Step, error),
) (*dto.WizardStateResponse, error) {
	step, err := wizard.ParseStep(from)
	if err != nil {
		return nil, apperror.Validation("%v", err)
	}

	rid := rehearsalId.String()
	if allowed, _ := wizard.Guard(wizard.Path(step, rid, sess.CurrentSpeech), sess); !allowed {
		return state(wizard.StepHome, "", ""), nil
	}

	// Decided from the stored rehearsal so a reload lands on the same step.
	rehearsal, err := findRehearsal(ctx, s.uowFactory.NewUnitOfWork(ctx), rehearsalId)
	if err != nil {
		return nil, err
	}

	to, err := transition(step, rehearsal)
	if err != nil {
		if errors.Is(err, wizard.ErrTransitionDisabled) {
			return nil, apperror.Validation("cannot leave %s step yet", step)
		}
		return nil, apperror.Validation("%v", err)
	}

	speechId := rehearsal.SpeechId.String()
	if to == wizard.StepSummary && (sess.CurrentRehearsal == rid || sess.ViewedRehearsal != "") {
		// The rehearsal is finished; exiting from here must not delete it.
		sess.CurrentSpeech = speechId
		if sess.CurrentRehearsal == rid {
			sess.CurrentRehearsal = ""
		}
		sess.ViewedRehearsal = ""
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	return state(to, rid, speechId), nil
}

// OpenSaved shows the stored results of a finished rehearsal of the current
// speech, as picked from the summary list.
func (s *wizardService) OpenSaved(ctx context.Context, sess *session.Session, rehearsalId uuid.UUID) (*dto.WizardStateResponse, error) {
	if sess.CurrentSpeech == "" {
		return nil, apperror.Validation("no speech is open")
	}
	rid := rehearsalId.String()
	if rid == sess.CurrentRehearsal {
		return nil, apperror.Validation("rehearsal %s is still in progress", rid)
	}

	rehearsal, err := findRehearsal(ctx, s.uowFactory.NewUnitOfWork(ctx), rehearsalId)
	if err != nil {
		return nil, err
	}
	if rehearsal.SpeechId.String() != sess.CurrentSpeech {
		return nil, apperror.Validation("rehearsal %s does not belong to speech %s", rid, sess.CurrentSpeech)
	}

	sess.View(rid)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return state(wizard.StepSaved, rid, sess.CurrentSpeech), nil
}

// DeleteSpeech deletes a speech with its rehearsals and drops it from the
// session so nothing keeps pointing at it.
func (s *wizardService) DeleteSpeech(ctx context.Context, sess *session.Session, speechId uuid.UUID) (*dto.DeleteSpeechResponse, error) {
	res, err := s.speechService.Delete(ctx, speechId)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	sess.Forget(speechId.String())
	if saveErr := s.save(ctx, sess); saveErr != nil {
		return nil, saveErr
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Exit abandons the in-progress rehearsal. It is deleted, and its speech too
// when nothing else is left in it.
func (s *wizardService) Exit(ctx context.Context, sess *session.Session, confirm bool) (*dto.WizardExitResponse, error) {
	if !confirm {
		return nil, apperror.Validation("exit must be confirmed")
	}

	res := &dto.WizardExitResponse{Path: "/"}
	if sess.CurrentRehearsal == "" {
		sess.Clear(false)
		return res, s.save(ctx, sess)
	}

	rehearsalId, err := uuid.Parse(sess.CurrentRehearsal)
	if err != nil {
		sess.Clear(false)
		return res, s.save(ctx, sess)
	}

	deleted, err := s.rehearsalService.DeleteCascading(ctx, rehearsalId)
	switch {
	case err == nil:
		res.SpeechDeleted = deleted.SpeechDeleted
	case errors.Is(err, apperror.ErrNotFound):
		// Already gone; find out whether the speech went with it.
		res.SpeechDeleted = s.speechGone(ctx, sess.CurrentSpeech)
	default:
		return nil, err
	}

	s.logger.Info("WizardService", "Wizard exited", map[string]interface{}{
		"session_id":     sess.ID,
		"rehearsal_id":   rehearsalId,
		"speech_deleted": res.SpeechDeleted,
	})
	sess.Clear(res.SpeechDeleted)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *wizardService) speechGone(ctx context.Context, speechId string) bool {
	id, err := uuid.Parse(speechId)
	if err != nil {
		return true
	}
	_, err = s.speechService.Get(ctx, id)
	return errors.Is(err, apperror.ErrNotFound)
}

func (s *wizardService) Guard(sess *session.Session, path string) *dto.GuardResponse {
	allowed, redirect := wizard.Guard(path, sess)
	return &dto.GuardResponse{Allowed: allowed, Redirect: redirect}
}
