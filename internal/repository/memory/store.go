// Package memory holds process-local implementations of the repository and
// session contracts. The store is selected with STORE_DRIVER=memory and backs
// the service and controller tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/repository/contract"
	"speech-rehearsal-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store keeps speeches and rehearsals in insertion order. A transaction holds
// the store lock from Begin until Commit or Rollback, which serializes
// writers the same way a row lock on the speech would.
type Store struct {
	mu              sync.Mutex
	speeches        map[uuid.UUID]*entity.Speech
	speechOrder     []uuid.UUID
	rehearsals      map[uuid.UUID]*entity.Rehearsal
	failNextWriteOn string
}

func NewStore() *Store {
	return &Store{
		speeches:   make(map[uuid.UUID]*entity.Speech),
		rehearsals: make(map[uuid.UUID]*entity.Rehearsal),
	}
}

type snapshot struct {
	speeches    map[uuid.UUID]*entity.Speech
	speechOrder []uuid.UUID
	rehearsals  map[uuid.UUID]*entity.Rehearsal
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		speeches:    make(map[uuid.UUID]*entity.Speech, len(s.speeches)),
		speechOrder: append([]uuid.UUID(nil), s.speechOrder...),
		rehearsals:  make(map[uuid.UUID]*entity.Rehearsal, len(s.rehearsals)),
	}
	for k, v := range s.speeches {
		snap.speeches[k] = v
	}
	for k, v := range s.rehearsals {
		snap.rehearsals[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.speeches = snap.speeches
	s.speechOrder = snap.speechOrder
	s.rehearsals = snap.rehearsals
}

// FailNextWrite makes the next write to "speech" or "rehearsal" return an error.
func (s *Store) FailNextWrite(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextWriteOn = collection
}

func (s *Store) failWrite(collection string) error {
	if s.failNextWriteOn == collection {
		s.failNextWriteOn = ""
		return fmt.Errorf("memory store: write to %s failed", collection)
	}
	return nil
}

type repositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &repositoryFactory{store: store}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

type unitOfWork struct {
	store *Store
	inTx  bool
	snap  snapshot
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.store.mu.Lock()
	u.inTx = true
	u.snap = u.store.snapshot()
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.snap = snapshot{}
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.restore(u.snap)
	u.inTx = false
	u.snap = snapshot{}
	u.store.mu.Unlock()
	return nil
}

// run executes fn under the store lock unless the unit of work already holds it.
func (u *unitOfWork) run(fn func(s *Store) error) error {
	if !u.inTx {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
	}
	return fn(u.store)
}

func (u *unitOfWork) SpeechRepository() contract.SpeechRepository {
	return &speechRepository{uow: u}
}

func (u *unitOfWork) RehearsalRepository() contract.RehearsalRepository {
	return &rehearsalRepository{uow: u}
}

type speechRepository struct {
	uow *unitOfWork
}

func (r *speechRepository) Create(ctx context.Context, speech *entity.Speech) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("speech"); err != nil {
			return err
		}
		if speech.Id == uuid.Nil {
			speech.Id = uuid.New()
		}
		if _, exists := s.speeches[speech.Id]; exists {
			return fmt.Errorf("memory store: duplicate speech id %s", speech.Id)
		}
		if speech.CreatedAt.IsZero() {
			speech.CreatedAt = time.Now()
		}
		s.speeches[speech.Id] = cloneSpeech(speech)
		s.speechOrder = append(s.speechOrder, speech.Id)
		return nil
	})
}

func (r *speechRepository) Update(ctx context.Context, speech *entity.Speech) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("speech"); err != nil {
			return err
		}
		if _, exists := s.speeches[speech.Id]; !exists {
			return contract.ErrRowMissing
		}
		now := time.Now()
		speech.UpdatedAt = &now
		s.speeches[speech.Id] = cloneSpeech(speech)
		return nil
	})
}

func (r *speechRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("speech"); err != nil {
			return err
		}
		if _, exists := s.speeches[id]; !exists {
			return nil
		}
		delete(s.speeches, id)
		order := make([]uuid.UUID, 0, len(s.speechOrder))
		for _, sid := range s.speechOrder {
			if sid != id {
				order = append(order, sid)
			}
		}
		s.speechOrder = order
		return nil
	})
}

func (r *speechRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Speech, error) {
	var found *entity.Speech
	err := r.uow.run(func(s *Store) error {
		if sp, ok := s.speeches[id]; ok {
			found = cloneSpeech(sp)
		}
		return nil
	})
	return found, err
}

func (r *speechRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Speech, error) {
	return r.FindByID(ctx, id)
}

func (r *speechRepository) FindAllByUserID(ctx context.Context, userId string) ([]*entity.Speech, error) {
	result := []*entity.Speech{}
	err := r.uow.run(func(s *Store) error {
		for _, id := range s.speechOrder {
			if sp := s.speeches[id]; sp.UserId == userId {
				result = append(result, cloneSpeech(sp))
			}
		}
		return nil
	})
	return result, err
}

type rehearsalRepository struct {
	uow *unitOfWork
}

func (r *rehearsalRepository) Create(ctx context.Context, rehearsal *entity.Rehearsal) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("rehearsal"); err != nil {
			return err
		}
		if rehearsal.Id == uuid.Nil {
			rehearsal.Id = uuid.New()
		}
		if _, exists := s.rehearsals[rehearsal.Id]; exists {
			return fmt.Errorf("memory store: duplicate rehearsal id %s", rehearsal.Id)
		}
		if rehearsal.CreatedAt.IsZero() {
			rehearsal.CreatedAt = time.Now()
		}
		s.rehearsals[rehearsal.Id] = cloneRehearsal(rehearsal)
		return nil
	})
}

func (r *rehearsalRepository) Update(ctx context.Context, rehearsal *entity.Rehearsal) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("rehearsal"); err != nil {
			return err
		}
		if _, exists := s.rehearsals[rehearsal.Id]; !exists {
			return contract.ErrRowMissing
		}
		now := time.Now()
		rehearsal.UpdatedAt = &now
		s.rehearsals[rehearsal.Id] = cloneRehearsal(rehearsal)
		return nil
	})
}

func (r *rehearsalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("rehearsal"); err != nil {
			return err
		}
		delete(s.rehearsals, id)
		return nil
	})
}

func (r *rehearsalRepository) DeleteBySpeechID(ctx context.Context, speechId uuid.UUID) error {
	return r.uow.run(func(s *Store) error {
		if err := s.failWrite("rehearsal"); err != nil {
			return err
		}
		for id, reh := range s.rehearsals {
			if reh.SpeechId == speechId {
				delete(s.rehearsals, id)
			}
		}
		return nil
	})
}

func (r *rehearsalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Rehearsal, error) {
	var found *entity.Rehearsal
	err := r.uow.run(func(s *Store) error {
		if reh, ok := s.rehearsals[id]; ok {
			found = cloneRehearsal(reh)
		}
		return nil
	})
	return found, err
}

func (r *rehearsalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Rehearsal, error) {
	return r.FindByID(ctx, id)
}

func (r *rehearsalRepository) FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Rehearsal, error) {
	result := make([]*entity.Rehearsal, 0, len(ids))
	err := r.uow.run(func(s *Store) error {
		for _, id := range ids {
			if reh, ok := s.rehearsals[id]; ok {
				result = append(result, cloneRehearsal(reh))
			}
		}
		return nil
	})
	return result, err
}

func cloneSpeech(s *entity.Speech) *entity.Speech {
	c := *s
	c.Rehearsals = append([]uuid.UUID{}, s.Rehearsals...)
	return &c
}

// Analysis payloads are replaced, never mutated in place, so sharing the
// pointers between copies is safe.
func cloneRehearsal(r *entity.Rehearsal) *entity.Rehearsal {
	c := *r
	c.Analysis = append([]entity.AnalysisKind{}, r.Analysis...)
	return &c
}
