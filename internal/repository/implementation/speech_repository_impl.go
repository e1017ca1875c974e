package implementation

import (
	"context"
	"errors"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/mapper"
	"speech-rehearsal-be/internal/model"
	"speech-rehearsal-be/internal/repository/contract"
	"speech-rehearsal-be/internal/repository/scope"
	"speech-rehearsal-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SpeechRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SpeechMapper
}

func NewSpeechRepository(db *gorm.DB) contract.SpeechRepository {
	return &SpeechRepositoryImpl{
		db:     db,
		mapper: mapper.NewSpeechMapper(),
	}
}

func (r *SpeechRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SpeechRepositoryImpl) Create(ctx context.Context, speech *entity.Speech) error {
	m := r.mapper.ToModel(speech)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*speech = *r.mapper.ToEntity(m)
	return nil
}

func (r *SpeechRepositoryImpl) Update(ctx context.Context, speech *entity.Speech) error {
	m := r.mapper.ToModel(speech)
	// Select("*") writes every column, so an emptied rehearsal list or a zero
	// practice time is persisted, without Save's insert on a missing row.
	res := r.db.WithContext(ctx).Model(m).Select("*").Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrRowMissing
	}
	*speech = *r.mapper.ToEntity(m)
	return nil
}

func (r *SpeechRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Speech{}, "id = ?", id).Error
}

func (r *SpeechRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Speech, error) {
	var m model.Speech
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SpeechRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Speech, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *SpeechRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Speech, error) {
	return r.findOne(ctx, specification.ByID{ID: id}, specification.ForUpdate{})
}

func (r *SpeechRepositoryImpl) FindAllByUserID(ctx context.Context, userId string) ([]*entity.Speech, error) {
	var models []*model.Speech
	query := r.applySpecifications(r.db.WithContext(ctx), specification.OwnedByUser{UserID: userId}).
		Scopes(scope.OrderByCreatedAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
