package dto

import (
	"time"

	"github.com/google/uuid"
	financeapp "github.com/propledger/backend/internal/application/finance"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// Amounts are bound as decimals without range tags; the ledger rejects
// non-positive values with INVALID_AMOUNT.

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Username    string                `json:"username" binding:"required,min=3,max=100"`
	Password    string                `json:"password" binding:"required,min=8,max=128"`
	Role        string                `json:"role" binding:"required"`
	Email       string                `json:"email" binding:"omitempty,email"`
	FirstName   string                `json:"first_name" binding:"omitempty,max=100"`
	LastName    string                `json:"last_name" binding:"omitempty,max=100"`
	Phone       string                `json:"phone" binding:"omitempty,max=20"`
	CreditLimit decimal.Decimal       `json:"credit_limit"`
	Tenant      *TenantProfileRequest `json:"tenant"`
}

// TenantProfileRequest opens a tenancy alongside a tenant user
type TenantProfileRequest struct {
	UnitID              *uuid.UUID       `json:"unit_id"`
	MonthlyRentOverride *decimal.Decimal `json:"monthly_rent_override"`
	LeaseStartDate      *time.Time       `json:"lease_start_date"`
	LeaseEndDate        *time.Time       `json:"lease_end_date"`
	Activate            bool             `json:"activate"`
}

// ToApp converts to the application request
func (r CreateUserRequest) ToApp() identityapp.CreateUserRequest {
	out := identityapp.CreateUserRequest{
		Username:    r.Username,
		Password:    r.Password,
		Role:        identity.Role(r.Role),
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		CreditLimit: r.CreditLimit,
	}
	if r.Tenant != nil {
		out.Tenant = &identityapp.TenantProfile{
			UnitID:              r.Tenant.UnitID,
			MonthlyRentOverride: r.Tenant.MonthlyRentOverride,
			LeaseStartDate:      r.Tenant.LeaseStartDate,
			LeaseEndDate:        r.Tenant.LeaseEndDate,
			Activate:            r.Tenant.Activate,
		}
	}
	return out
}

// CreateBillingPeriodRequest is the body of POST /billing-periods
type CreateBillingPeriodRequest struct {
	Name       string    `json:"name" binding:"required,max=100"`
	PeriodType string    `json:"period_type" binding:"omitempty,oneof=monthly quarterly semi_annual annual custom"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	DueDate    time.Time `json:"due_date" binding:"required"`
}

// ToApp converts to the application request
func (r CreateBillingPeriodRequest) ToApp() financeapp.CreateBillingPeriodRequest {
	periodType := finance.PeriodType(r.PeriodType)
	if periodType == "" {
		periodType = finance.PeriodTypeMonthly
	}
	return financeapp.CreateBillingPeriodRequest{
		Name:       r.Name,
		PeriodType: periodType,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		DueDate:    r.DueDate,
	}
}

// ClosePeriodRequest is the body of POST /billing-periods/:id/close
type ClosePeriodRequest struct {
	Force bool `json:"force"`
}

// GenerateInvoicesRequest is the body of POST /billing-periods/:id/generate-invoices
type GenerateInvoicesRequest struct {
	TenantIDs []uuid.UUID `json:"tenant_ids"`
	AutoSend  bool        `json:"auto_send"`
}

// EnsureUpcomingRequest is the body of POST /billing-periods/ensure-upcoming
type EnsureUpcomingRequest struct {
	Months int `json:"months" binding:"omitempty,min=1,max=24"`
}

// UtilityChargeEntryRequest is one row of a bulk add to a period
type UtilityChargeEntryRequest struct {
	TenantID        uuid.UUID       `json:"tenant_id" binding:"required"`
	UtilityType     string          `json:"utility_type" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" binding:"omitempty,max=500"`
	ReferenceNumber string          `json:"reference_number" binding:"omitempty,max=100"`
}

// BulkPeriodChargesRequest is the body of POST /billing-periods/:id/utility-charges
type BulkPeriodChargesRequest struct {
	Charges []UtilityChargeEntryRequest `json:"charges" binding:"required,min=1,dive"`
}

// ToApp converts to the application entries
func (r BulkPeriodChargesRequest) ToApp() []financeapp.UtilityChargeEntry {
	out := make([]financeapp.UtilityChargeEntry, len(r.Charges))
	for i, c := range r.Charges {
		out[i] = financeapp.UtilityChargeEntry{
			TenantID:        c.TenantID,
			UtilityType:     finance.UtilityType(c.UtilityType),
			Amount:          c.Amount,
			Description:     c.Description,
			ReferenceNumber: c.ReferenceNumber,
		}
	}
	return out
}

// BillUtilitiesRequest is the body of POST /billing-periods/:id/bill-utilities
type BillUtilitiesRequest struct {
	TenantID uuid.UUID `json:"tenant_id" binding:"required"`
}

// CreateChargeTypeRequest is the body of POST /charge-types
type CreateChargeTypeRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	Frequency   string `json:"frequency" binding:"omitempty,oneof=one_time recurring usage_based"`
}

// ToApp converts to the application request
func (r CreateChargeTypeRequest) ToApp() financeapp.CreateChargeTypeRequest {
	frequency := finance.ChargeFrequency(r.Frequency)
	if frequency == "" {
		frequency = finance.ChargeFrequencyOneTime
	}
	return financeapp.CreateChargeTypeRequest{
		Name:        r.Name,
		Description: r.Description,
		Frequency:   frequency,
	}
}

// GenerateInvoiceRequest is the body of POST /invoices/generate
type GenerateInvoiceRequest struct {
	TenantID        uuid.UUID `json:"tenant_id" binding:"required"`
	BillingPeriodID uuid.UUID `json:"billing_period_id" binding:"required"`
}

// AddChargeRequest is the body of POST /invoices/:id/charges
type AddChargeRequest struct {
	ChargeTypeID   *uuid.UUID       `json:"charge_type_id"`
	ChargeTypeName string           `json:"charge_type_name" binding:"required_without=ChargeTypeID,omitempty,max=100"`
	Description    string           `json:"description" binding:"required,max=500"`
	Quantity       *decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
}

// ToApp converts to the application request; quantity defaults to 1
func (r AddChargeRequest) ToApp() financeapp.AddChargeRequest {
	quantity := decimal.NewFromInt(1)
	if r.Quantity != nil {
		quantity = *r.Quantity
	}
	return financeapp.AddChargeRequest{
		ChargeTypeID:   r.ChargeTypeID,
		ChargeTypeName: r.ChargeTypeName,
		Description:    r.Description,
		Quantity:       quantity,
		UnitPrice:      r.UnitPrice,
	}
}

// AddUtilityChargesRequest is the body of POST /invoices/:id/utility-charges
type AddUtilityChargesRequest struct {
	ChargeIDs []uuid.UUID `json:"charge_ids" binding:"required,min=1"`
}

// ApplyPaymentRequest is the body of POST /invoices/:id/apply-payment.
// A missing amount pays the balance due.
type ApplyPaymentRequest struct {
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	ReferenceNumber string           `json:"reference_number" binding:"omitempty,max=100"`
	Notes           string           `json:"notes" binding:"omitempty,max=500"`
}

// ToApp converts to the application request
func (r ApplyPaymentRequest) ToApp() financeapp.ApplyPaymentRequest {
	return financeapp.ApplyPaymentRequest{
		Amount:          r.Amount,
		PaymentMethod:   finance.PaymentMethod(r.PaymentMethod),
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
	}
}

// RecordUtilityChargeRequest is the body of POST /utility-charges
type RecordUtilityChargeRequest struct {
	TenantID        uuid.UUID       `json:"tenant_id" binding:"required"`
	UtilityType     string          `json:"utility_type" binding:"required"`
	BillingPeriodID uuid.UUID       `json:"billing_period_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" binding:"omitempty,max=500"`
	ReferenceNumber string          `json:"reference_number" binding:"omitempty,max=100"`
}

// ToApp converts to the application request
func (r RecordUtilityChargeRequest) ToApp() financeapp.RecordUtilityChargeRequest {
	return financeapp.RecordUtilityChargeRequest{
		TenantID:        r.TenantID,
		UtilityType:     finance.UtilityType(r.UtilityType),
		BillingPeriodID: r.BillingPeriodID,
		Amount:          r.Amount,
		Description:     r.Description,
		ReferenceNumber: r.ReferenceNumber,
	}
}

// BulkUtilityChargesRequest is the body of POST /utility-charges/bulk
type BulkUtilityChargesRequest struct {
	Charges []RecordUtilityChargeRequest `json:"charges" binding:"required,min=1,dive"`
}

// ToApp converts to the application requests
func (r BulkUtilityChargesRequest) ToApp() []financeapp.RecordUtilityChargeRequest {
	out := make([]financeapp.RecordUtilityChargeRequest, len(r.Charges))
	for i, c := range r.Charges {
		out[i] = c.ToApp()
	}
	return out
}

// AddToInvoiceRequest is the body of POST /utility-charges/:id/add-to-invoice
type AddToInvoiceRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

// PostTransactionRequest is the body of POST /transactions
type PostTransactionRequest struct {
	AccountID       uuid.UUID       `json:"account_id" binding:"required"`
	TransactionType string          `json:"transaction_type" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	InvoiceID       *uuid.UUID      `json:"invoice_id"`
	ReferenceNumber string          `json:"reference_number" binding:"omitempty,max=100"`
	Description     string          `json:"description" binding:"omitempty,max=500"`
}

// ToApp converts to the application request
func (r PostTransactionRequest) ToApp() financeapp.PostTransactionRequest {
	return financeapp.PostTransactionRequest{
		AccountID:       r.AccountID,
		TransactionType: finance.TransactionType(r.TransactionType),
		Amount:          r.Amount,
		PaymentMethod:   finance.PaymentMethod(r.PaymentMethod),
		InvoiceID:       r.InvoiceID,
		ReferenceNumber: r.ReferenceNumber,
		Description:     r.Description,
	}
}

// ReverseTransactionRequest is the body of POST /transactions/:id/reverse
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CreatePaymentRequest is the body of POST /payments and POST /payments/quick
type CreatePaymentRequest struct {
	TenantID        uuid.UUID        `json:"tenant_id" binding:"required"`
	InvoiceID       *uuid.UUID       `json:"invoice_id"`
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	ReferenceNumber string           `json:"reference_number" binding:"omitempty,max=100"`
	Notes           string           `json:"notes" binding:"omitempty,max=500"`
}

// ToApp converts to the application request
func (r CreatePaymentRequest) ToApp() financeapp.CreatePaymentRequest {
	return financeapp.CreatePaymentRequest{
		TenantID:        r.TenantID,
		InvoiceID:       r.InvoiceID,
		Amount:          r.Amount,
		PaymentMethod:   finance.PaymentMethod(r.PaymentMethod),
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
	}
}

// ProcessPaymentRequest is the body of POST /payments/:id/process
type ProcessPaymentRequest struct {
	SkipReceipt bool `json:"skip_receipt"`
}

// CreateRentPaymentRequest is the body of POST /rent-payments
type CreateRentPaymentRequest struct {
	TenantID        uuid.UUID        `json:"tenant_id" binding:"required"`
	BillingPeriodID uuid.UUID        `json:"billing_period_id" binding:"required"`
	InvoiceID       *uuid.UUID       `json:"invoice_id"`
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	ReferenceNumber string           `json:"reference_number" binding:"omitempty,max=100"`
	Notes           string           `json:"notes" binding:"omitempty,max=500"`
}

// ToApp converts to the application request
func (r CreateRentPaymentRequest) ToApp() financeapp.CreateRentPaymentRequest {
	return financeapp.CreateRentPaymentRequest{
		TenantID:        r.TenantID,
		BillingPeriodID: r.BillingPeriodID,
		InvoiceID:       r.InvoiceID,
		Amount:          r.Amount,
		PaymentMethod:   finance.PaymentMethod(r.PaymentMethod),
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
	}
}

// ProcessRentPaymentRequest is the body of POST /rent-payments/:id/process.
// A missing amount settles the outstanding rent.
type ProcessRentPaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	CreateReceipt *bool            `json:"create_receipt"`
}

// WantsReceipt defaults create_receipt to true
func (r ProcessRentPaymentRequest) WantsReceipt() bool {
	return r.CreateReceipt == nil || *r.CreateReceipt
}
