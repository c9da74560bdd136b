package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM.
// Invoices always travel with their items.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) withItems(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id") }).
		Preload("Items.ChargeType")
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds an invoice and locks its row
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByNumber finds an invoice by its INV number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*finance.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Where("invoice_number = ?", invoiceNumber))
}

// FindByTenantAndPeriod finds the tenant's invoice for a billing period
func (r *GormInvoiceRepository) FindByTenantAndPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*finance.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND billing_period_id = ?", tenantID, periodID))
}

func (r *GormInvoiceRepository) first(query *gorm.DB) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withItems(query).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter finance.InvoiceFilter) ([]finance.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)
	query = r.withItems(paginate(query, filter.Filter, invoiceSorts))
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]finance.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter finance.InvoiceFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter finance.InvoiceFilter) *gorm.DB {
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
	if filter.Search != "" {
		query = query.Where("invoice_number LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

type invoiceStatusRow struct {
	Status      finance.InvoiceStatus
	Count       int64
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
}

// SummarizeByStatus aggregates counts and amounts per status for a billing period
func (r *GormInvoiceRepository) SummarizeByStatus(ctx context.Context, periodID uuid.UUID) ([]finance.InvoiceStatusTotal, error) {
	var rows []invoiceStatusRow
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount, COALESCE(SUM(amount_paid), 0) AS amount_paid").
		Where("billing_period_id = ?", periodID).
		Group("status").
		Order("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make([]finance.InvoiceStatusTotal, len(rows))
	for i, row := range rows {
		totals[i] = finance.InvoiceStatusTotal{
			Status:      row.Status,
			Count:       row.Count,
			TotalAmount: row.TotalAmount,
			AmountPaid:  row.AmountPaid,
		}
	}
	return totals, nil
}

// Save upserts the invoice header and its items, then deletes rows for removed items.
// A second invoice for the same tenant and period is ALREADY_EXISTS.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	model := &models.InvoiceModel{}
	model.FromDomain(invoice)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(model.Items))
		for i := range model.Items {
			item := &model.Items[i]
			if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
				return err
			}
			keep = append(keep, item.ID)
		}

		stale := tx.Where("invoice_id = ?", model.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&models.InvoiceItemModel{}).Error
	})
	return translateError(err)
}

var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
