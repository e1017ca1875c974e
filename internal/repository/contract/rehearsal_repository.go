package contract

import (
	"context"
	"errors"

	"speech-rehearsal-be/internal/entity"

	"github.com/google/uuid"
)

// ErrRowMissing is returned by Update when the record was deleted underneath it.
var ErrRowMissing = errors.New("record no longer exists")

type RehearsalRepository interface {
	Create(ctx context.Context, rehearsal *entity.Rehearsal) error
	// Update never inserts; it returns ErrRowMissing when the rehearsal is gone.
	Update(ctx context.Context, rehearsal *entity.Rehearsal) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySpeechID(ctx context.Context, speechId uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Rehearsal, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Rehearsal, error)
	// FindAllByIDs returns the rehearsals in the order of ids, skipping missing ones.
	FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Rehearsal, error)
}
