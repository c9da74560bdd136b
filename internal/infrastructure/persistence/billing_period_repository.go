package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBillingPeriodRepository implements BillingPeriodRepository using GORM
type GormBillingPeriodRepository struct {
	db *gorm.DB
}

// NewGormBillingPeriodRepository creates a new GormBillingPeriodRepository
func NewGormBillingPeriodRepository(db *gorm.DB) *GormBillingPeriodRepository {
	return &GormBillingPeriodRepository{db: db}
}

// FindByID finds a billing period by its ID
func (r *GormBillingPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.BillingPeriod, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a billing period and locks its row
func (r *GormBillingPeriodRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.BillingPeriod, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByStartDate finds the period starting on the given day
func (r *GormBillingPeriodRepository) FindByStartDate(ctx context.Context, start time.Time) (*finance.BillingPeriod, error) {
	return r.first(r.db.WithContext(ctx).Where("start_date = ?", asDate(start)))
}

// FindCurrent finds the active period containing the given date, preferring the latest start
func (r *GormBillingPeriodRepository) FindCurrent(ctx context.Context, on time.Time) (*finance.BillingPeriod, error) {
	day := asDate(on)
	return r.first(r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, day, day).
		Order("start_date DESC"))
}

func (r *GormBillingPeriodRepository) first(query *gorm.DB) (*finance.BillingPeriod, error) {
	var model models.BillingPeriodModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists billing periods, most recent start first by default
func (r *GormBillingPeriodRepository) FindAll(ctx context.Context, filter finance.BillingPeriodFilter) ([]finance.BillingPeriod, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "start_date"
	}
	var rows []models.BillingPeriodModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.BillingPeriodModel{}), filter), filter.Filter, billingPeriodSorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	periods := make([]finance.BillingPeriod, len(rows))
	for i := range rows {
		periods[i] = *rows[i].ToDomain()
	}
	return periods, nil
}

// Count counts billing periods matching the filter
func (r *GormBillingPeriodRepository) Count(ctx context.Context, filter finance.BillingPeriodFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BillingPeriodModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormBillingPeriodRepository) applyFilter(query *gorm.DB, filter finance.BillingPeriodFilter) *gorm.DB {
	if filter.IsClosed != nil {
		query = query.Where("is_closed = ?", *filter.IsClosed)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Save creates or updates a billing period. A second period on the same start date is ALREADY_EXISTS.
func (r *GormBillingPeriodRepository) Save(ctx context.Context, period *finance.BillingPeriod) error {
	model := &models.BillingPeriodModel{}
	model.FromDomain(period)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

func asDate(t time.Time) datatypes.Date {
	return datatypes.Date(finance.DateOnly(t))
}

var _ finance.BillingPeriodRepository = (*GormBillingPeriodRepository)(nil)
