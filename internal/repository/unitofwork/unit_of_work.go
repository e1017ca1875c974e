package unitofwork

import (
	"context"

	"speech-rehearsal-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SpeechRepository() contract.SpeechRepository
	RehearsalRepository() contract.RehearsalRepository
}
