// Package session holds the per-browser wizard state: the pseudo-user id, the
// speeches this browser created and the speech/rehearsal currently in progress.
package session

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

type Session struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId"`
	Speeches         []string `json:"speeches"`
	CurrentSpeech    string   `json:"currentSpeech"`
	CurrentRehearsal string   `json:"currentRehearsal"`
	// ViewedRehearsal is a finished rehearsal of CurrentSpeech opened read-only.
	ViewedRehearsal  string   `json:"viewedRehearsal,omitempty"`
}

// Store persists sessions without expiry. Get returns (nil, nil) for an unknown id.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

const userIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewUserID returns "user_" followed by nine base-36 characters.
func NewUserID() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = userIDAlphabet[rand.IntN(len(userIDAlphabet))]
	}
	return "user_" + string(b)
}

func New() *Session {
	return &Session{
		ID:       uuid.New().String(),
		UserID:   NewUserID(),
		Speeches: []string{},
	}
}

// StartSpeech records a freshly created speech and makes it current together
// with its first rehearsal.
func (s *Session) StartSpeech(speechId, rehearsalId string) {
	if !slices.Contains(s.Speeches, speechId) {
		s.Speeches = append(s.Speeches, speechId)
	}
	s.CurrentSpeech = speechId
	s.CurrentRehearsal = rehearsalId
	s.ViewedRehearsal = ""
}

func (s *Session) StartRehearsal(speechId, rehearsalId string) {
	s.CurrentSpeech = speechId
	s.CurrentRehearsal = rehearsalId
	s.ViewedRehearsal = ""
}

// View opens a finished rehearsal of the current speech. It never becomes
// CurrentRehearsal, so exiting cannot delete it.
func (s *Session) View(rehearsalId string) {
	s.ViewedRehearsal = rehearsalId
}

// Clear drops the in-progress ids. When the speech itself was deleted it is
// also removed from Speeches so the list never points at a missing record.
func (s *Session) Clear(speechDeleted bool) {
	if speechDeleted && s.CurrentSpeech != "" {
		s.Speeches = slices.DeleteFunc(s.Speeches, func(id string) bool {
			return id == s.CurrentSpeech
		})
	}
	s.CurrentSpeech = ""
	s.CurrentRehearsal = ""
	s.ViewedRehearsal = ""
}

// Forget removes a speech deleted outside the wizard, e.g. from the summary view.
func (s *Session) Forget(speechId string) {
	s.Speeches = slices.DeleteFunc(s.Speeches, func(id string) bool { return id == speechId })
	if s.CurrentSpeech == speechId {
		s.CurrentSpeech = ""
		s.CurrentRehearsal = ""
		s.ViewedRehearsal = ""
	}
}
