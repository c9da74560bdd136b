package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormChargeTypeRepository implements ChargeTypeRepository using GORM
type GormChargeTypeRepository struct {
	db *gorm.DB
}

// NewGormChargeTypeRepository creates a new GormChargeTypeRepository
func NewGormChargeTypeRepository(db *gorm.DB) *GormChargeTypeRepository {
	return &GormChargeTypeRepository{db: db}
}

// FindByID finds a charge type by its ID
func (r *GormChargeTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ChargeType, error) {
	var model models.ChargeTypeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByName finds a charge type by its unique name
func (r *GormChargeTypeRepository) FindByName(ctx context.Context, name string) (*finance.ChargeType, error) {
	var model models.ChargeTypeModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists the catalog by name
func (r *GormChargeTypeRepository) FindAll(ctx context.Context, activeOnly bool) ([]finance.ChargeType, error) {
	query := r.db.WithContext(ctx).Model(&models.ChargeTypeModel{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.ChargeTypeModel
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	types := make([]finance.ChargeType, len(rows))
	for i := range rows {
		types[i] = *rows[i].ToDomain()
	}
	return types, nil
}

// Create inserts a charge type inside its own savepoint, so losing a race on the
// unique name leaves any enclosing transaction usable.
func (r *GormChargeTypeRepository) Create(ctx context.Context, chargeType *finance.ChargeType) error {
	model := &models.ChargeTypeModel{}
	model.FromDomain(chargeType)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	return translateError(err)
}

// Save updates a charge type
func (r *GormChargeTypeRepository) Save(ctx context.Context, chargeType *finance.ChargeType) error {
	model := &models.ChargeTypeModel{}
	model.FromDomain(chargeType)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

var _ finance.ChargeTypeRepository = (*GormChargeTypeRepository)(nil)
