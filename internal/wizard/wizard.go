// Package wizard is the rehearsal flow as a state machine:
// home → type → content → video → analysis → summary, with content skipped
// when only delivery analysis was requested. Transitions are computed from
// the stored rehearsal so a reloaded page lands on the same step.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/session"
)

type Step string

const (
	StepHome     Step = "home"
	StepType     Step = "type"
	StepContent  Step = "content"
	StepVideo    Step = "video"
	StepAnalysis Step = "analysis"
	StepSummary  Step = "summary"
	// StepSaved shows the stored results of a finished rehearsal.
	StepSaved Step = "saved"
)

var (
	ErrTransitionDisabled = errors.New("transition not available from this step yet")
	ErrUnknownStep        = errors.New("unknown wizard step")
)

func ParseStep(raw string) (Step, error) {
	switch s := Step(raw); s {
	case StepHome, StepType, StepContent, StepVideo, StepAnalysis, StepSummary, StepSaved:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, raw)
}

// Next returns the step after from, or ErrTransitionDisabled when the
// rehearsal does not yet carry what the current step collects.
func Next(from Step, r *entity.Rehearsal) (Step, error) {
	switch from {
	case StepType:
		if r.Requests(entity.AnalysisContent) {
			return StepContent, nil
		}
		if r.Requests(entity.AnalysisDelivery) {
			return StepVideo, nil
		}
		return "", ErrTransitionDisabled
	case StepContent:
		if !r.HasContent() {
			return "", ErrTransitionDisabled
		}
		return StepVideo, nil
	case StepVideo:
		if r.VideoUrl == "" {
			return "", ErrTransitionDisabled
		}
		return StepAnalysis, nil
	case StepAnalysis:
		return StepSummary, nil
	case StepHome, StepSummary, StepSaved:
		// Saved is opened from the summary list, not reached by Next.
		return "", ErrTransitionDisabled
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, from)
}

// Back mirrors Next. Content is skipped unless "content" is in the stored analysis.
func Back(from Step, r *entity.Rehearsal) (Step, error) {
	switch from {
	case StepType:
		return StepHome, nil
	case StepContent:
		return StepType, nil
	case StepVideo:
		if r.Requests(entity.AnalysisContent) {
			return StepContent, nil
		}
		return StepType, nil
	case StepAnalysis:
		return StepVideo, nil
	case StepSummary:
		return StepHome, nil
	case StepSaved:
		return StepSummary, nil
	case StepHome:
		return "", ErrTransitionDisabled
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, from)
}

// Path is the client route for a step.
func Path(step Step, rehearsalId, speechId string) string {
	switch step {
	case StepType, StepContent, StepVideo, StepAnalysis, StepSaved:
		return fmt.Sprintf("/rehearsal/%s/%s", rehearsalId, step)
	case StepSummary:
		return fmt.Sprintf("/speech/%s/summary", speechId)
	}
	return "/"
}

// Guard reports whether path may render for the session, and where to go
// instead when it may not.
//
// A saved page is only reachable for the rehearsal opened from the summary;
// otherwise it falls back to the summary when a speech is current.
func Guard(path string, s *session.Session) (bool, string) {
	switch {
	case strings.HasPrefix(path, "/rehearsal/") && strings.HasSuffix(path, "/"+string(StepSaved)):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/rehearsal/"), "/"+string(StepSaved))
		if s == nil || s.CurrentSpeech == "" {
			return false, "/"
		}
		if s.ViewedRehearsal == "" || s.ViewedRehearsal != id {
			return false, Path(StepSummary, "", s.CurrentSpeech)
		}
	case strings.HasPrefix(path, "/rehearsal/"):
		if s == nil || s.CurrentRehearsal == "" {
			return false, "/"
		}
	case strings.HasPrefix(path, "/speech/"):
		if s == nil || s.CurrentSpeech == "" {
			return false, "/"
		}
	}
	return true, path
}
