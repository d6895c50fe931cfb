package repository

import (
	"context"
	"errors"

	"gcxportal/internal/cache"
	"gcxportal/internal/models"

	"gorm.io/gorm"
)

// ReferenceRepository serves the static lookup entities. Reads go through
// the cache; the data changes rarely.
type ReferenceRepository interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	ListCommodities(ctx context.Context) ([]models.Commodity, error)
	ListSchools(ctx context.Context) ([]models.School, error)
	GetCommoditiesByIDs(ctx context.Context, ids []uint) ([]models.Commodity, error)
	GetSchoolByID(ctx context.Context, id uint) (*models.School, error)
}

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository returns a new ReferenceRepository implementation.
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	err := cache.Aside(ctx, cache.KeyRegions, &regions, cache.TTLReferenceData, func() error {
		if err := r.db.WithContext(ctx).Order("name").Find(&regions).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return regions, nil
}

func (r *referenceRepository) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	var commodities []models.Commodity
	err := cache.Aside(ctx, cache.KeyCommodities, &commodities, cache.TTLReferenceData, func() error {
		if err := r.db.WithContext(ctx).Order("name").Find(&commodities).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commodities, nil
}

func (r *referenceRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	err := cache.Aside(ctx, cache.KeySchools, &schools, cache.TTLReferenceData, func() error {
		if err := r.db.WithContext(ctx).Preload("Region").Order("name").Find(&schools).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schools, nil
}

func (r *referenceRepository) GetCommoditiesByIDs(ctx context.Context, ids []uint) ([]models.Commodity, error) {
	if len(ids) == 0 {
		return []models.Commodity{}, nil
	}
	var commodities []models.Commodity
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&commodities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return commodities, nil
}

func (r *referenceRepository) GetSchoolByID(ctx context.Context, id uint) (*models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).First(&school, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("School", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &school, nil
}
