package implementation

import (
	"context"
	"errors"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/mapper"
	"speech-rehearsal-be/internal/model"
	"speech-rehearsal-be/internal/repository/contract"
	"speech-rehearsal-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RehearsalRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RehearsalMapper
}

func NewRehearsalRepository(db *gorm.DB) contract.RehearsalRepository {
	return &RehearsalRepositoryImpl{
		db:     db,
		mapper: mapper.NewRehearsalMapper(),
	}
}

func (r *RehearsalRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RehearsalRepositoryImpl) Create(ctx context.Context, rehearsal *entity.Rehearsal) error {
	m := r.mapper.ToModel(rehearsal)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*rehearsal = *r.mapper.ToEntity(m)
	return nil
}

func (r *RehearsalRepositoryImpl) Update(ctx context.Context, rehearsal *entity.Rehearsal) error {
	m := r.mapper.ToModel(rehearsal)
	// Select("*") writes zero values too; unlike Save it never inserts.
	res := r.db.WithContext(ctx).Model(m).Select("*").Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrRowMissing
	}
	*rehearsal = *r.mapper.ToEntity(m)
	return nil
}

func (r *RehearsalRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Rehearsal{}, "id = ?", id).Error
}

func (r *RehearsalRepositoryImpl) DeleteBySpeechID(ctx context.Context, speechId uuid.UUID) error {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.BySpeechID{SpeechID: speechId})
	return query.Delete(&model.Rehearsal{}).Error
}

func (r *RehearsalRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Rehearsal, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *RehearsalRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Rehearsal, error) {
	return r.findOne(ctx, specification.ByID{ID: id}, specification.ForUpdate{})
}

func (r *RehearsalRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Rehearsal, error) {
	var m model.Rehearsal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RehearsalRepositoryImpl) FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Rehearsal, error) {
	if len(ids) == 0 {
		return []*entity.Rehearsal{}, nil
	}

	var models []*model.Rehearsal
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByIDs{IDs: ids})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	byId := make(map[uuid.UUID]*entity.Rehearsal, len(models))
	for _, e := range r.mapper.ToEntities(models) {
		byId[e.Id] = e
	}
	result := make([]*entity.Rehearsal, 0, len(ids))
	for _, id := range ids {
		if e, ok := byId[id]; ok {
			result = append(result, e)
		}
	}
	return result, nil
}
