package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceAllocator keeps one counter row per scope.
// Inside a unit of work the UPDATE holds the row lock until commit, so concurrent
// allocators queue up and a rolled-back number is handed out again.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// WithTx returns an allocator whose counters commit or roll back with tx
func (a *GormSequenceAllocator) WithTx(tx *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: tx}
}

// Next increments and returns the counter for scope, starting at 1
func (a *GormSequenceAllocator) Next(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		seed := models.DocumentSequenceModel{Scope: scope, LastValue: 0, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DocumentSequenceModel{}).
			Where("scope = ?", scope).
			Updates(map[string]any{
				"last_value": gorm.Expr("last_value + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.DocumentSequenceModel{}).
			Select("last_value").
			Where("scope = ?", scope).
			Scan(&value).Error
	})
	if err != nil {
		return 0, fmt.Errorf("next value for %s: %w", scope, err)
	}
	return value, nil
}

// Current returns the last value handed out for scope, or 0 if none has been
func (a *GormSequenceAllocator) Current(ctx context.Context, scope string) (int64, error) {
	var row models.DocumentSequenceModel
	err := a.db.WithContext(ctx).Where("scope = ?", scope).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.LastValue, nil
}

var _ finance.SequenceAllocator = (*GormSequenceAllocator)(nil)
