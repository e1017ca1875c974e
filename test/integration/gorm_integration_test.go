package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/model"
	"speech-rehearsal-be/internal/repository/unitofwork"
	"speech-rehearsal-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSpeechRehearsalRoundTrip(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.Speech{}, &model.Rehearsal{}))

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	userId := "user_it" + uuid.NewString()[:6]

	speech := &entity.Speech{Id: uuid.New(), UserId: userId, Name: "Integration", Rehearsals: []uuid.UUID{}}
	rehearsal := &entity.Rehearsal{
		Id:       uuid.New(),
		SpeechId: speech.Id,
		Analysis: []entity.AnalysisKind{entity.AnalysisDelivery},
		Content:  &entity.Content{Type: entity.ContentOutline, Text: "Intro"},
	}

	t.Run("create in one transaction", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		require.NoError(t, uow.SpeechRepository().Create(ctx, speech))
		require.NoError(t, uow.RehearsalRepository().Create(ctx, rehearsal))
		speech.Rehearsals = append(speech.Rehearsals, rehearsal.Id)
		require.NoError(t, uow.SpeechRepository().Update(ctx, speech))
		require.NoError(t, uow.Commit())
	})

	t.Run("read back", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)

		list, err := uow.SpeechRepository().FindAllByUserID(ctx, userId)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, []uuid.UUID{rehearsal.Id}, list[0].Rehearsals)

		got, err := uow.RehearsalRepository().FindByID(ctx, rehearsal.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, speech.Id, got.SpeechId)
		assert.Equal(t, rehearsal.Content, got.Content)
		assert.Nil(t, got.DeliveryAnalysis)
	})

	t.Run("store analysis payload", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		got, err := uow.RehearsalRepository().FindByID(ctx, rehearsal.Id)
		require.NoError(t, err)

		got.DeliveryAnalysis = &entity.DeliveryAnalysis{SpeechRateWpm: 131, FillerWords: map[string]int{"um": 2}}
		require.NoError(t, uow.RehearsalRepository().Update(ctx, got))

		reloaded, err := uow.RehearsalRepository().FindByID(ctx, rehearsal.Id)
		require.NoError(t, err)
		assert.Equal(t, got.DeliveryAnalysis, reloaded.DeliveryAnalysis)
	})

	t.Run("cleanup", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		require.NoError(t, uow.RehearsalRepository().DeleteBySpeechID(ctx, speech.Id))
		require.NoError(t, uow.SpeechRepository().Delete(ctx, speech.Id))
		require.NoError(t, uow.Commit())

		missing, err := uowFactory.NewUnitOfWork(ctx).SpeechRepository().FindByID(ctx, speech.Id)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}
