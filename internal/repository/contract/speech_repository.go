package contract

import (
	"context"

	"speech-rehearsal-be/internal/entity"

	"github.com/google/uuid"
)

// Find methods return (nil, nil) when the record does not exist.
type SpeechRepository interface {
	Create(ctx context.Context, speech *entity.Speech) error
	// Update never inserts; it returns ErrRowMissing when the speech is gone.
	Update(ctx context.Context, speech *entity.Speech) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Speech, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Speech, error)
	FindAllByUserID(ctx context.Context, userId string) ([]*entity.Speech, error)
}
