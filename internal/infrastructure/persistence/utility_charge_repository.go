package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUtilityChargeRepository implements UtilityChargeRepository using GORM
type GormUtilityChargeRepository struct {
	db *gorm.DB
}

// NewGormUtilityChargeRepository creates a new GormUtilityChargeRepository
func NewGormUtilityChargeRepository(db *gorm.DB) *GormUtilityChargeRepository {
	return &GormUtilityChargeRepository{db: db}
}

// FindByID finds a utility charge by its ID
func (r *GormUtilityChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.UtilityCharge, error) {
	var model models.UtilityChargeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds utility charges by ID; missing IDs are simply absent from the result
func (r *GormUtilityChargeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.UtilityCharge, error) {
	if len(ids) == 0 {
		return []finance.UtilityCharge{}, nil
	}
	var rows []models.UtilityChargeModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toUtilityCharges(rows), nil
}

// FindUnbilled finds the tenant's charges for the period that are not on an invoice yet
func (r *GormUtilityChargeRepository) FindUnbilled(ctx context.Context, tenantID, periodID uuid.UUID) ([]finance.UtilityCharge, error) {
	var rows []models.UtilityChargeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND billing_period_id = ? AND is_billed = ?", tenantID, periodID, false).
		Order("created_at ASC").Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toUtilityCharges(rows), nil
}

// FindAll lists utility charges
func (r *GormUtilityChargeRepository) FindAll(ctx context.Context, filter finance.UtilityChargeFilter) ([]finance.UtilityCharge, error) {
	var rows []models.UtilityChargeModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.UtilityChargeModel{}), filter), filter.Filter, utilitySorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toUtilityCharges(rows), nil
}

// Count counts utility charges matching the filter
func (r *GormUtilityChargeRepository) Count(ctx context.Context, filter finance.UtilityChargeFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.UtilityChargeModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormUtilityChargeRepository) applyFilter(query *gorm.DB, filter finance.UtilityChargeFilter) *gorm.DB {
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.BillingPeriodID != nil {
		query = query.Where("billing_period_id = ?", *filter.BillingPeriodID)
	}
	if filter.UtilityType != nil {
		query = query.Where("utility_type = ?", *filter.UtilityType)
	}
	if filter.IsBilled != nil {
		query = query.Where("is_billed = ?", *filter.IsBilled)
	}
	return query
}

// ExistsFor reports whether the tenant already has a charge of this type in the period
func (r *GormUtilityChargeRepository) ExistsFor(ctx context.Context, tenantID uuid.UUID, utilityType finance.UtilityType, periodID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UtilityChargeModel{}).
		Where("tenant_id = ? AND utility_type = ? AND billing_period_id = ?", tenantID, utilityType, periodID).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a utility charge
func (r *GormUtilityChargeRepository) Save(ctx context.Context, charge *finance.UtilityCharge) error {
	model := &models.UtilityChargeModel{}
	model.FromDomain(charge)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

func toUtilityCharges(rows []models.UtilityChargeModel) []finance.UtilityCharge {
	charges := make([]finance.UtilityCharge, len(rows))
	for i := range rows {
		charges[i] = *rows[i].ToDomain()
	}
	return charges
}

var _ finance.UtilityChargeRepository = (*GormUtilityChargeRepository)(nil)
