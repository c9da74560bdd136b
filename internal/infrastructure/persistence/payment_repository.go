package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a payment and locks its row
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPaymentRepository) first(query *gorm.DB, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists payments
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter finance.PaymentFilter) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter), filter.Filter, paymentSorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]finance.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter finance.PaymentFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter finance.PaymentFilter) *gorm.DB {
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("reference_number LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *finance.Payment) error {
	model := &models.PaymentModel{}
	model.FromDomain(payment)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// GormRentPaymentRepository implements RentPaymentRepository using GORM
type GormRentPaymentRepository struct {
	db *gorm.DB
}

// NewGormRentPaymentRepository creates a new GormRentPaymentRepository
func NewGormRentPaymentRepository(db *gorm.DB) *GormRentPaymentRepository {
	return &GormRentPaymentRepository{db: db}
}

// FindByID finds a rent payment by its ID
func (r *GormRentPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.RentPayment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a rent payment and locks its row
func (r *GormRentPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.RentPayment, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByTenantAndPeriod finds the tenant's rent payment for a period
func (r *GormRentPaymentRepository) FindByTenantAndPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*finance.RentPayment, error) {
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND billing_period_id = ?", tenantID, periodID))
}

func (r *GormRentPaymentRepository) first(query *gorm.DB) (*finance.RentPayment, error) {
	var model models.RentPaymentModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists rent payments
func (r *GormRentPaymentRepository) FindAll(ctx context.Context, filter finance.RentPaymentFilter) ([]finance.RentPayment, error) {
	var rows []models.RentPaymentModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.RentPaymentModel{}), filter), filter.Filter, paymentSorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]finance.RentPayment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// Count counts rent payments matching the filter
func (r *GormRentPaymentRepository) Count(ctx context.Context, filter finance.RentPaymentFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.RentPaymentModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormRentPaymentRepository) applyFilter(query *gorm.DB, filter finance.RentPaymentFilter) *gorm.DB {
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.BillingPeriodID != nil {
		query = query.Where("billing_period_id = ?", *filter.BillingPeriodID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", asDate(*filter.DueBefore))
	}
	return query
}

// Save creates or updates a rent payment. A second one for the same tenant and period is ALREADY_EXISTS.
func (r *GormRentPaymentRepository) Save(ctx context.Context, payment *finance.RentPayment) error {
	model := &models.RentPaymentModel{}
	model.FromDomain(payment)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

var (
	_ finance.PaymentRepository     = (*GormPaymentRepository)(nil)
	_ finance.RentPaymentRepository = (*GormRentPaymentRepository)(nil)
)
