package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransactionRepository implements TransactionRepository using GORM.
// Rows are only ever inserted, apart from the reversed flag.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its row ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds a transaction and locks its row
func (r *GormTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByTransactionID finds a transaction by its public transaction_id
func (r *GormTransactionRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*finance.Transaction, error) {
	return r.first(r.db.WithContext(ctx), "transaction_id = ?", transactionID)
}

func (r *GormTransactionRepository) first(query *gorm.DB, cond string, arg any) (*finance.Transaction, error) {
	var model models.TransactionModel
	if err := query.Where(cond, arg).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists transactions, newest first unless the filter says otherwise
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter finance.TransactionFilter) ([]finance.Transaction, error) {
	var rows []models.TransactionModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter), filter.Filter, transactionSorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter finance.TransactionFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter finance.TransactionFilter) *gorm.DB {
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("reference_number LIKE ? OR description LIKE ?", pattern, pattern)
	}
	return query
}

// FindInRange returns the account's transactions created in [from, to), oldest first
func (r *GormTransactionRepository) FindInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]finance.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND created_at >= ? AND created_at < ?", accountID, from, to).
		Order("created_at ASC").Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// NetEffectBefore sums the signed effect of live transactions created before the cutoff
func (r *GormTransactionRepository) NetEffectBefore(ctx context.Context, accountID uuid.UUID, before time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(CASE WHEN transaction_type IN ? THEN amount ELSE -amount END), 0)", finance.BalanceIncreasingTypes()).
		Where("account_id = ? AND created_at < ?", accountID, before).
		Where("is_reversed = ? AND reversed_transaction_id IS NULL", false).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Create inserts a new transaction
func (r *GormTransactionRepository) Create(ctx context.Context, tx *finance.Transaction) error {
	model := &models.TransactionModel{}
	model.FromDomain(tx)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Save updates a transaction. Only the reversed flag ever changes after insert.
func (r *GormTransactionRepository) Save(ctx context.Context, tx *finance.Transaction) error {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ?", tx.ID).
		Updates(map[string]any{
			"is_reversed": tx.IsReversed,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

func toTransactions(rows []models.TransactionModel) []finance.Transaction {
	txs := make([]finance.Transaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs
}

var _ finance.TransactionRepository = (*GormTransactionRepository)(nil)
