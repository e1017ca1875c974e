package memory

import (
	"context"

	"speech-rehearsal-be/internal/session"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for the life of the process; the browser
// state it replaces never expired either.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	c := *s
	c.Speeches = append([]string{}, s.Speeches...)
	r.cache.Set(s.ID, &c, cache.NoExpiration)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, nil
	}
	stored := x.(*session.Session)
	c := *stored
	c.Speeches = append([]string{}, stored.Speeches...)
	return &c, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}
