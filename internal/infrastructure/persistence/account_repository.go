package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Account, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByUserID finds the account owned by a user
func (r *GormAccountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*finance.Account, error) {
	return r.first(r.db.WithContext(ctx), "user_id = ?", userID)
}

// FindByIDForUpdate loads the account and holds a row lock until the transaction ends
func (r *GormAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Account, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *GormAccountRepository) first(query *gorm.DB, cond string, arg any) (*finance.Account, error) {
	var model models.AccountModel
	if err := query.Where(cond, arg).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists accounts
func (r *GormAccountRepository) FindAll(ctx context.Context, filter finance.AccountFilter) ([]finance.Account, error) {
	var rows []models.AccountModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter), filter.Filter, accountSorts)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]finance.Account, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts, nil
}

// Count counts accounts matching the filter
func (r *GormAccountRepository) Count(ctx context.Context, filter finance.AccountFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter finance.AccountFilter) *gorm.DB {
	if filter.InDebt != nil {
		if *filter.InDebt {
			query = query.Where("balance < 0")
		} else {
			query = query.Where("balance >= 0")
		}
	}
	return query
}

// Save creates or updates an account without a version check
func (r *GormAccountRepository) Save(ctx context.Context, account *finance.Account) error {
	model := &models.AccountModel{}
	model.FromDomain(account)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock writes the balance only if the stored version is the one the account was loaded at.
// The domain has already incremented Version, so the row must still hold Version-1.
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *finance.Account) error {
	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]any{
			"balance":      account.Balance,
			"credit_limit": account.CreditLimit,
			"version":      account.Version,
			"updated_at":   account.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return concurrencyConflict("Account")
	}
	return nil
}

var _ finance.AccountRepository = (*GormAccountRepository)(nil)
