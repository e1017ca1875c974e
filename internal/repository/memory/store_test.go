package memory

import (
	"context"
	"testing"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollbackRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	factory := NewRepositoryFactory(store)

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	sp := &entity.Speech{UserId: "u1", Name: "Draft"}
	require.NoError(t, uow.SpeechRepository().Create(ctx, sp))
	require.NoError(t, uow.Rollback())

	got, err := factory.NewUnitOfWork(ctx).SpeechRepository().FindByID(ctx, sp.Id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindAllByUserIDKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).SpeechRepository()

	var ids []uuid.UUID
	for _, name := range []string{"a", "b", "c"} {
		sp := &entity.Speech{UserId: "u1", Name: name}
		require.NoError(t, repo.Create(ctx, sp))
		ids = append(ids, sp.Id)
	}
	require.NoError(t, repo.Create(ctx, &entity.Speech{UserId: "u2", Name: "other"}))

	speeches, err := repo.FindAllByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, speeches, 3)
	for i, sp := range speeches {
		assert.Equal(t, ids[i], sp.Id)
	}

	none, err := repo.FindAllByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).SpeechRepository()

	sp := &entity.Speech{UserId: "u1", Rehearsals: []uuid.UUID{uuid.New()}}
	require.NoError(t, repo.Create(ctx, sp))

	got, err := repo.FindByID(ctx, sp.Id)
	require.NoError(t, err)
	got.Rehearsals[0] = uuid.Nil

	again, err := repo.FindByID(ctx, sp.Id)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, again.Rehearsals[0])
}

func TestFailNextWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewRepositoryFactory(store).NewUnitOfWork(ctx).RehearsalRepository()

	store.FailNextWrite("rehearsal")
	assert.Error(t, repo.Create(ctx, &entity.Rehearsal{}))
	assert.NoError(t, repo.Create(ctx, &entity.Rehearsal{}))
}

func TestFindAllByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).RehearsalRepository()

	a := &entity.Rehearsal{SpeechId: uuid.New()}
	b := &entity.Rehearsal{SpeechId: a.SpeechId}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.FindAllByIDs(ctx, []uuid.UUID{b.Id, uuid.New(), a.Id})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.Id, got[0].Id)
	assert.Equal(t, a.Id, got[1].Id)

	require.NoError(t, repo.DeleteBySpeechID(ctx, a.SpeechId))
	got, err = repo.FindAllByIDs(ctx, []uuid.UUID{a.Id, b.Id})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateRefusesMissingRecord(t *testing.T) {
	ctx := context.Background()
	uow := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx)

	sp := &entity.Speech{UserId: "u1", Name: "Draft"}
	require.NoError(t, uow.SpeechRepository().Create(ctx, sp))
	reh := &entity.Rehearsal{SpeechId: sp.Id}
	require.NoError(t, uow.RehearsalRepository().Create(ctx, reh))

	require.NoError(t, uow.RehearsalRepository().Delete(ctx, reh.Id))
	assert.ErrorIs(t, uow.RehearsalRepository().Update(ctx, reh), contract.ErrRowMissing)
	got, err := uow.RehearsalRepository().FindByID(ctx, reh.Id)
	require.NoError(t, err)
	assert.Nil(t, got, "a failed update must not bring the rehearsal back")

	require.NoError(t, uow.SpeechRepository().Delete(ctx, sp.Id))
	assert.ErrorIs(t, uow.SpeechRepository().Update(ctx, sp), contract.ErrRowMissing)
	speeches, err := uow.SpeechRepository().FindAllByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, speeches)
}
