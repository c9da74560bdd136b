package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM. Receipts are insert-only.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Receipt, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByNumber finds a receipt by its RCP number
func (r *GormReceiptRepository) FindByNumber(ctx context.Context, receiptNumber string) (*finance.Receipt, error) {
	return r.first(ctx, "receipt_number = ?", receiptNumber)
}

// FindByTransactionID finds the receipt issued for a transaction
func (r *GormReceiptRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*finance.Receipt, error) {
	return r.first(ctx, "transaction_id = ?", transactionID)
}

func (r *GormReceiptRepository) first(ctx context.Context, cond string, arg any) (*finance.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists receipts
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter finance.ReceiptFilter) ([]finance.Receipt, error) {
	var rows []models.ReceiptModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.ReceiptModel{}), filter), filter.Filter, receiptSorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	receipts := make([]finance.Receipt, len(rows))
	for i := range rows {
		receipts[i] = *rows[i].ToDomain()
	}
	return receipts, nil
}

// Count counts receipts matching the filter
func (r *GormReceiptRepository) Count(ctx context.Context, filter finance.ReceiptFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ReceiptModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormReceiptRepository) applyFilter(query *gorm.DB, filter finance.ReceiptFilter) *gorm.DB {
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Search != "" {
		query = query.Where("receipt_number LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Create inserts a receipt. A second receipt for the same transaction is ALREADY_EXISTS.
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *finance.Receipt) error {
	model := &models.ReceiptModel{}
	model.FromDomain(receipt)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

var _ finance.ReceiptRepository = (*GormReceiptRepository)(nil)
