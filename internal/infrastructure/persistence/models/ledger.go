package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func toDate(t time.Time) datatypes.Date {
	return datatypes.Date(finance.DateOnly(t))
}

func fromDate(d datatypes.Date) time.Time {
	return finance.DateOnly(time.Time(d))
}

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	AggregateModel
	UserID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *AccountModel) ToDomain() *finance.Account {
	return &finance.Account{
		BaseAggregateRoot: m.aggregate(),
		UserID:            m.UserID,
		Balance:           m.Balance,
		CreditLimit:       m.CreditLimit,
	}
}

// FromDomain populates the persistence model from a domain Account.
func (m *AccountModel) FromDomain(a *finance.Account) {
	m.setAggregate(a.BaseAggregateRoot)
	m.UserID = a.UserID
	m.Balance = a.Balance
	m.CreditLimit = a.CreditLimit
}

// TransactionModel is the persistence model for an immutable ledger entry.
type TransactionModel struct {
	BaseModel
	TransactionID         uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex"`
	AccountID             uuid.UUID               `gorm:"type:uuid;not null;index:idx_transaction_account_created,priority:1"`
	TransactionType       finance.TransactionType `gorm:"type:varchar(20);not null;index"`
	Amount                decimal.Decimal         `gorm:"type:decimal(12,2);not null"`
	PaymentMethod         finance.PaymentMethod   `gorm:"type:varchar(20)"`
	InvoiceID             *uuid.UUID              `gorm:"type:uuid;index"`
	ReferenceNumber       string                  `gorm:"type:varchar(100);index"`
	Description           string                  `gorm:"type:text"`
	ProcessedBy           *uuid.UUID              `gorm:"type:uuid"`
	IsReversed            bool                    `gorm:"not null;default:false"`
	ReversedTransactionID *uuid.UUID              `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *finance.Transaction {
	return &finance.Transaction{
		BaseEntity:            m.entity(),
		TransactionID:         m.TransactionID,
		AccountID:             m.AccountID,
		TransactionType:       m.TransactionType,
		Amount:                m.Amount,
		PaymentMethod:         m.PaymentMethod,
		InvoiceID:             m.InvoiceID,
		ReferenceNumber:       m.ReferenceNumber,
		Description:           m.Description,
		ProcessedBy:           m.ProcessedBy,
		IsReversed:            m.IsReversed,
		ReversedTransactionID: m.ReversedTransactionID,
	}
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(t *finance.Transaction) {
	m.setEntity(t.BaseEntity)
	m.TransactionID = t.TransactionID
	m.AccountID = t.AccountID
	m.TransactionType = t.TransactionType
	m.Amount = t.Amount
	m.PaymentMethod = t.PaymentMethod
	m.InvoiceID = t.InvoiceID
	m.ReferenceNumber = t.ReferenceNumber
	m.Description = t.Description
	m.ProcessedBy = t.ProcessedBy
	m.IsReversed = t.IsReversed
	m.ReversedTransactionID = t.ReversedTransactionID
}

// BillingPeriodModel is the persistence model for the BillingPeriod aggregate root.
type BillingPeriodModel struct {
	AggregateModel
	Name       string             `gorm:"type:varchar(100);not null"`
	PeriodType finance.PeriodType `gorm:"type:varchar(20);not null;default:'monthly'"`
	StartDate  datatypes.Date     `gorm:"not null;uniqueIndex"`
	EndDate    datatypes.Date     `gorm:"not null"`
	DueDate    datatypes.Date     `gorm:"not null"`
	IsActive   bool               `gorm:"not null;default:true"`
	IsClosed   bool               `gorm:"not null;default:false;index"`
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BillingPeriodModel) TableName() string {
	return "billing_periods"
}

// ToDomain converts the persistence model to a domain BillingPeriod.
func (m *BillingPeriodModel) ToDomain() *finance.BillingPeriod {
	return &finance.BillingPeriod{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		PeriodType:        m.PeriodType,
		StartDate:         fromDate(m.StartDate),
		EndDate:           fromDate(m.EndDate),
		DueDate:           fromDate(m.DueDate),
		IsActive:          m.IsActive,
		IsClosed:          m.IsClosed,
		ClosedAt:          m.ClosedAt,
		ClosedBy:          m.ClosedBy,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain BillingPeriod.
func (m *BillingPeriodModel) FromDomain(p *finance.BillingPeriod) {
	m.setAggregate(p.BaseAggregateRoot)
	m.Name = p.Name
	m.PeriodType = p.PeriodType
	m.StartDate = toDate(p.StartDate)
	m.EndDate = toDate(p.EndDate)
	m.DueDate = toDate(p.DueDate)
	m.IsActive = p.IsActive
	m.IsClosed = p.IsClosed
	m.ClosedAt = p.ClosedAt
	m.ClosedBy = p.ClosedBy
	m.CreatedBy = p.CreatedBy
}

// ChargeTypeModel is the persistence model for the charge type catalog.
type ChargeTypeModel struct {
	BaseModel
	Name           string                  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description    string                  `gorm:"type:text"`
	Frequency      finance.ChargeFrequency `gorm:"type:varchar(20);not null;default:'one_time'"`
	IsSystemCharge bool                    `gorm:"not null;default:false"`
	IsActive       bool                    `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ChargeTypeModel) TableName() string {
	return "charge_types"
}

// ToDomain converts the persistence model to a domain ChargeType.
func (m *ChargeTypeModel) ToDomain() *finance.ChargeType {
	return &finance.ChargeType{
		BaseEntity:     m.entity(),
		Name:           m.Name,
		Description:    m.Description,
		Frequency:      m.Frequency,
		IsSystemCharge: m.IsSystemCharge,
		IsActive:       m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain ChargeType.
func (m *ChargeTypeModel) FromDomain(c *finance.ChargeType) {
	m.setEntity(c.BaseEntity)
	m.Name = c.Name
	m.Description = c.Description
	m.Frequency = c.Frequency
	m.IsSystemCharge = c.IsSystemCharge
	m.IsActive = c.IsActive
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Items are loaded with their charge type so item names can be shown.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	TenantID        uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_tenant_period,priority:1"`
	BillingPeriodID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_tenant_period,priority:2;index"`
	Status          finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Subtotal        decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount       decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	AmountPaid      decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	IssueDate       datatypes.Date        `gorm:"not null"`
	DueDate         datatypes.Date        `gorm:"not null;index"`
	Notes           string                `gorm:"type:text"`
	CreatedBy       *uuid.UUID            `gorm:"type:uuid"`
	Items           []InvoiceItemModel    `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		BaseAggregateRoot: m.aggregate(),
		InvoiceNumber:     m.InvoiceNumber,
		TenantID:          m.TenantID,
		BillingPeriodID:   m.BillingPeriodID,
		Status:            m.Status,
		Subtotal:          m.Subtotal,
		TaxAmount:         m.TaxAmount,
		TotalAmount:       m.TotalAmount,
		AmountPaid:        m.AmountPaid,
		IssueDate:         fromDate(m.IssueDate),
		DueDate:           fromDate(m.DueDate),
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		Items:             make([]finance.InvoiceItem, len(m.Items)),
	}
	for i := range m.Items {
		inv.Items[i] = *m.Items[i].ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice, items included.
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.setAggregate(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.TenantID = inv.TenantID
	m.BillingPeriodID = inv.BillingPeriodID
	m.Status = inv.Status
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.AmountPaid = inv.AmountPaid
	m.IssueDate = toDate(inv.IssueDate)
	m.DueDate = toDate(inv.DueDate)
	m.Notes = inv.Notes
	m.CreatedBy = inv.CreatedBy
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i].FromDomain(&inv.Items[i])
	}
}

// InvoiceItemModel is the persistence model for an invoice line
type InvoiceItemModel struct {
	BaseModel
	InvoiceID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	ChargeTypeID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	UtilityChargeID *uuid.UUID       `gorm:"type:uuid;uniqueIndex"`
	Description     string           `gorm:"type:varchar(255);not null"`
	Quantity        decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:1"`
	UnitPrice       decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	LineTotal       decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ChargeType      *ChargeTypeModel `gorm:"foreignKey:ChargeTypeID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() *finance.InvoiceItem {
	item := &finance.InvoiceItem{
		BaseEntity:      m.entity(),
		InvoiceID:       m.InvoiceID,
		ChargeTypeID:    m.ChargeTypeID,
		UtilityChargeID: m.UtilityChargeID,
		Description:     m.Description,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		LineTotal:       m.LineTotal,
	}
	if m.ChargeType != nil {
		item.ChargeTypeName = m.ChargeType.Name
	}
	return item
}

// FromDomain populates the persistence model from a domain InvoiceItem
func (m *InvoiceItemModel) FromDomain(item *finance.InvoiceItem) {
	m.setEntity(item.BaseEntity)
	m.InvoiceID = item.InvoiceID
	m.ChargeTypeID = item.ChargeTypeID
	m.UtilityChargeID = item.UtilityChargeID
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.LineTotal = item.LineTotal
}

// UtilityChargeModel is the persistence model for a recorded utility bill
type UtilityChargeModel struct {
	AggregateModel
	TenantID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_utility_tenant_type_period,priority:1"`
	UtilityType     finance.UtilityType `gorm:"type:varchar(50);not null;uniqueIndex:idx_utility_tenant_type_period,priority:2"`
	BillingPeriodID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_utility_tenant_type_period,priority:3;index"`
	Amount          decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Description     string              `gorm:"type:text"`
	ReferenceNumber string              `gorm:"type:varchar(100)"`
	RecordedBy      *uuid.UUID          `gorm:"type:uuid"`
	IsBilled        bool                `gorm:"not null;default:false;index"`
	InvoiceItemID   *uuid.UUID          `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (UtilityChargeModel) TableName() string {
	return "utility_charges"
}

// ToDomain converts the persistence model to a domain UtilityCharge
func (m *UtilityChargeModel) ToDomain() *finance.UtilityCharge {
	return &finance.UtilityCharge{
		BaseAggregateRoot: m.aggregate(),
		TenantID:          m.TenantID,
		UtilityType:       m.UtilityType,
		BillingPeriodID:   m.BillingPeriodID,
		Amount:            m.Amount,
		Description:       m.Description,
		ReferenceNumber:   m.ReferenceNumber,
		RecordedBy:        m.RecordedBy,
		IsBilled:          m.IsBilled,
		InvoiceItemID:     m.InvoiceItemID,
	}
}

// FromDomain populates the persistence model from a domain UtilityCharge
func (m *UtilityChargeModel) FromDomain(c *finance.UtilityCharge) {
	m.setAggregate(c.BaseAggregateRoot)
	m.TenantID = c.TenantID
	m.UtilityType = c.UtilityType
	m.BillingPeriodID = c.BillingPeriodID
	m.Amount = c.Amount
	m.Description = c.Description
	m.ReferenceNumber = c.ReferenceNumber
	m.RecordedBy = c.RecordedBy
	m.IsBilled = c.IsBilled
	m.InvoiceItemID = c.InvoiceItemID
}

// PaymentModel is the persistence model for a payment against an invoice or the account
type PaymentModel struct {
	AggregateModel
	TenantID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceID       *uuid.UUID            `gorm:"type:uuid;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	PaymentDate     time.Time             `gorm:"not null"`
	PaymentMethod   finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNumber string                `gorm:"type:varchar(100);index"`
	Status          finance.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TransactionID   *uuid.UUID            `gorm:"type:uuid"`
	ReceiptID       *uuid.UUID            `gorm:"type:uuid"`
	ProcessedBy     *uuid.UUID            `gorm:"type:uuid"`
	ProcessedAt     *time.Time
	Notes           string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseAggregateRoot: m.aggregate(),
		TenantID:          m.TenantID,
		InvoiceID:         m.InvoiceID,
		Amount:            m.Amount,
		PaymentDate:       m.PaymentDate,
		PaymentMethod:     m.PaymentMethod,
		ReferenceNumber:   m.ReferenceNumber,
		Status:            m.Status,
		TransactionID:     m.TransactionID,
		ReceiptID:         m.ReceiptID,
		ProcessedBy:       m.ProcessedBy,
		ProcessedAt:       m.ProcessedAt,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.setAggregate(p.BaseAggregateRoot)
	m.TenantID = p.TenantID
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.PaymentMethod = p.PaymentMethod
	m.ReferenceNumber = p.ReferenceNumber
	m.Status = p.Status
	m.TransactionID = p.TransactionID
	m.ReceiptID = p.ReceiptID
	m.ProcessedBy = p.ProcessedBy
	m.ProcessedAt = p.ProcessedAt
	m.Notes = p.Notes
}

// RentPaymentModel is the persistence model for a tenant's rent obligation in a period
type RentPaymentModel struct {
	AggregateModel
	TenantID          uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_rent_tenant_period,priority:1"`
	BillingPeriodID   uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_rent_tenant_period,priority:2;index"`
	InvoiceID         *uuid.UUID            `gorm:"type:uuid;index"`
	Amount            decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	AmountPaid        decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	OutstandingAmount decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	DueDate           datatypes.Date        `gorm:"not null;index"`
	PaymentDate       time.Time             `gorm:"not null"`
	PaymentMethod     finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNumber   string                `gorm:"type:varchar(100)"`
	Status            finance.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	IsPartial         bool                  `gorm:"not null;default:false"`
	TransactionID     *uuid.UUID            `gorm:"type:uuid"`
	ProcessedBy       *uuid.UUID            `gorm:"type:uuid"`
	Notes             string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RentPaymentModel) TableName() string {
	return "rent_payments"
}

// ToDomain converts the persistence model to a domain RentPayment
func (m *RentPaymentModel) ToDomain() *finance.RentPayment {
	return &finance.RentPayment{
		BaseAggregateRoot: m.aggregate(),
		TenantID:          m.TenantID,
		BillingPeriodID:   m.BillingPeriodID,
		InvoiceID:         m.InvoiceID,
		Amount:            m.Amount,
		AmountPaid:        m.AmountPaid,
		OutstandingAmount: m.OutstandingAmount,
		DueDate:           fromDate(m.DueDate),
		PaymentDate:       m.PaymentDate,
		PaymentMethod:     m.PaymentMethod,
		ReferenceNumber:   m.ReferenceNumber,
		Status:            m.Status,
		IsPartial:         m.IsPartial,
		TransactionID:     m.TransactionID,
		ProcessedBy:       m.ProcessedBy,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain RentPayment
func (m *RentPaymentModel) FromDomain(r *finance.RentPayment) {
	m.setAggregate(r.BaseAggregateRoot)
	m.TenantID = r.TenantID
	m.BillingPeriodID = r.BillingPeriodID
	m.InvoiceID = r.InvoiceID
	m.Amount = r.Amount
	m.AmountPaid = r.AmountPaid
	m.OutstandingAmount = r.OutstandingAmount
	m.DueDate = toDate(r.DueDate)
	m.PaymentDate = r.PaymentDate
	m.PaymentMethod = r.PaymentMethod
	m.ReferenceNumber = r.ReferenceNumber
	m.Status = r.Status
	m.IsPartial = r.IsPartial
	m.TransactionID = r.TransactionID
	m.ProcessedBy = r.ProcessedBy
	m.Notes = r.Notes
}

// ReceiptModel is the persistence model for an issued receipt. Rows are insert-only.
type ReceiptModel struct {
	BaseModel
	ReceiptNumber            string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	TransactionID            uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	TenantID                 uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceID                *uuid.UUID            `gorm:"type:uuid;index"`
	Amount                   decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	AmountAllocatedToInvoice decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	AmountToAccount          decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentDate              time.Time             `gorm:"not null"`
	PaymentMethod            finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	Notes                    string                `gorm:"type:text"`
	IssuedBy                 *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt
func (m *ReceiptModel) ToDomain() *finance.Receipt {
	return &finance.Receipt{
		BaseEntity:               m.entity(),
		ReceiptNumber:            m.ReceiptNumber,
		TransactionID:            m.TransactionID,
		TenantID:                 m.TenantID,
		InvoiceID:                m.InvoiceID,
		Amount:                   m.Amount,
		AmountAllocatedToInvoice: m.AmountAllocatedToInvoice,
		AmountToAccount:          m.AmountToAccount,
		PaymentDate:              m.PaymentDate,
		PaymentMethod:            m.PaymentMethod,
		Notes:                    m.Notes,
		IssuedBy:                 m.IssuedBy,
	}
}

// FromDomain populates the persistence model from a domain Receipt
func (m *ReceiptModel) FromDomain(r *finance.Receipt) {
	m.setEntity(r.BaseEntity)
	m.ReceiptNumber = r.ReceiptNumber
	m.TransactionID = r.TransactionID
	m.TenantID = r.TenantID
	m.InvoiceID = r.InvoiceID
	m.Amount = r.Amount
	m.AmountAllocatedToInvoice = r.AmountAllocatedToInvoice
	m.AmountToAccount = r.AmountToAccount
	m.PaymentDate = r.PaymentDate
	m.PaymentMethod = r.PaymentMethod
	m.Notes = r.Notes
	m.IssuedBy = r.IssuedBy
}
