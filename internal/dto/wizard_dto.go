package dto

import "speech-rehearsal-be/internal/session"

type WizardStartRequest struct {
	Name string `json:"name"`
}

type WizardStepRequest struct {
	Step string `json:"step" validate:"required"`
}

type WizardExitRequest struct {
	Confirm bool `json:"confirm"`
}

// WizardStateResponse tells the client where to navigate next.
type WizardStateResponse struct {
	Step        string `json:"step"`
	Path        string `json:"path"`
	SpeechId    string `json:"speechId,omitempty"`
	RehearsalId string `json:"rehearsalId,omitempty"`
}

type WizardExitResponse struct {
	Path          string `json:"path"`
	SpeechDeleted bool   `json:"speechDeleted"`
}

type GuardResponse struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect"`
}

type SessionResponse struct {
	UserId           string   `json:"userId"`
	Speeches         []string `json:"speeches"`
	CurrentSpeech    string   `json:"currentSpeech"`
	CurrentRehearsal string   `json:"currentRehearsal"`
	ViewedRehearsal  string   `json:"viewedRehearsal,omitempty"`
}

func NewSessionResponse(s *session.Session) *SessionResponse {
	return &SessionResponse{
		UserId:           s.UserID,
		Speeches:         s.Speeches,
		CurrentSpeech:    s.CurrentSpeech,
		CurrentRehearsal: s.CurrentRehearsal,
		ViewedRehearsal:  s.ViewedRehearsal,
	}
}
