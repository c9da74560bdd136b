package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountResponse represents an account with its derived values
type AccountResponse struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	Balance         shared.Amount `json:"balance"`
	CreditLimit     shared.Amount `json:"credit_limit"`
	DebtAmount      shared.Amount `json:"debt_amount"`
	AvailableCredit shared.Amount `json:"available_credit"`
	IsInDebt        bool          `json:"is_in_debt"`
	Version         int           `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ToAccountResponse converts a domain Account
func ToAccountResponse(a *finance.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Balance:         shared.AmountOf(a.Balance),
		CreditLimit:     shared.AmountOf(a.CreditLimit),
		DebtAmount:      shared.AmountOf(a.DebtAmount()),
		AvailableCredit: shared.AmountOf(a.AvailableCredit()),
		IsInDebt:        a.IsInDebt(),
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// TransactionResponse represents a ledger transaction
type TransactionResponse struct {
	ID                    uuid.UUID     `json:"id"`
	TransactionID         uuid.UUID     `json:"transaction_id"`
	AccountID             uuid.UUID     `json:"account_id"`
	TransactionType       string        `json:"transaction_type"`
	Amount                shared.Amount `json:"amount"`
	BalanceEffect         shared.Amount `json:"balance_effect"`
	PaymentMethod         string        `json:"payment_method,omitempty"`
	InvoiceID             *uuid.UUID    `json:"invoice_id,omitempty"`
	ReferenceNumber       string        `json:"reference_number,omitempty"`
	Description           string        `json:"description"`
	ProcessedBy           *uuid.UUID    `json:"processed_by,omitempty"`
	IsReversed            bool          `json:"is_reversed"`
	IsReversal            bool          `json:"is_reversal"`
	ReversedTransactionID *uuid.UUID    `json:"reversed_transaction_id,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
}

// ToTransactionResponse converts a domain Transaction
func ToTransactionResponse(t *finance.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.ID,
		TransactionID:         t.TransactionID,
		AccountID:             t.AccountID,
		TransactionType:       t.TransactionType.String(),
		Amount:                shared.AmountOf(t.Amount),
		BalanceEffect:         shared.AmountOf(t.BalanceEffect()),
		PaymentMethod:         t.PaymentMethod.String(),
		InvoiceID:             t.InvoiceID,
		ReferenceNumber:       t.ReferenceNumber,
		Description:           t.Description,
		ProcessedBy:           t.ProcessedBy,
		IsReversed:            t.IsReversed,
		IsReversal:            t.IsReversal(),
		ReversedTransactionID: t.ReversedTransactionID,
		CreatedAt:             t.CreatedAt,
	}
}

func toTransactionResponses(txs []finance.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i := range txs {
		out[i] = ToTransactionResponse(&txs[i])
	}
	return out
}

// BillingPeriodResponse represents a billing period
type BillingPeriodResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	PeriodType    string     `json:"period_type"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	DueDate       time.Time  `json:"due_date"`
	IsActive      bool       `json:"is_active"`
	IsClosed      bool       `json:"is_closed"`
	IsCurrent     bool       `json:"is_current"`
	CanAddCharges bool       `json:"can_add_charges"`
	DaysUntilDue  int        `json:"days_until_due"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	ClosedBy      *uuid.UUID `json:"closed_by,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToBillingPeriodResponse converts a domain BillingPeriod as seen at now
func ToBillingPeriodResponse(p *finance.BillingPeriod, now time.Time) BillingPeriodResponse {
	return BillingPeriodResponse{
		ID:            p.ID,
		Name:          p.Name,
		PeriodType:    string(p.PeriodType),
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		DueDate:       p.DueDate,
		IsActive:      p.IsActive,
		IsClosed:      p.IsClosed,
		IsCurrent:     p.IsCurrent(now),
		CanAddCharges: p.CanAddCharges(),
		DaysUntilDue:  p.DaysUntilDue(now),
		ClosedAt:      p.ClosedAt,
		ClosedBy:      p.ClosedBy,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// ChargeTypeResponse represents a charge type
type ChargeTypeResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Frequency      string    `json:"frequency"`
	IsSystemCharge bool      `json:"is_system_charge"`
	IsActive       bool      `json:"is_active"`
}

// ToChargeTypeResponse converts a domain ChargeType
func ToChargeTypeResponse(c *finance.ChargeType) ChargeTypeResponse {
	return ChargeTypeResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		Frequency:      string(c.Frequency),
		IsSystemCharge: c.IsSystemCharge,
		IsActive:       c.IsActive,
	}
}

// InvoiceItemResponse represents an invoice line
type InvoiceItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ChargeTypeID    uuid.UUID       `json:"charge_type_id"`
	ChargeTypeName  string          `json:"charge_type_name,omitempty"`
	UtilityChargeID *uuid.UUID      `json:"utility_charge_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       shared.Amount   `json:"unit_price"`
	LineTotal       shared.Amount   `json:"line_total"`
}

// InvoiceResponse represents an invoice with its items
type InvoiceResponse struct {
	ID              uuid.UUID             `json:"id"`
	InvoiceNumber   string                `json:"invoice_number"`
	TenantID        uuid.UUID             `json:"tenant_id"`
	BillingPeriodID uuid.UUID             `json:"billing_period_id"`
	Status          string                `json:"status"`
	Subtotal        shared.Amount         `json:"subtotal"`
	TaxAmount       shared.Amount         `json:"tax_amount"`
	TotalAmount     shared.Amount         `json:"total_amount"`
	AmountPaid      shared.Amount         `json:"amount_paid"`
	BalanceDue      shared.Amount         `json:"balance_due"`
	IssueDate       time.Time             `json:"issue_date"`
	DueDate         time.Time             `json:"due_date"`
	IsOverdue       bool                  `json:"is_overdue"`
	DaysOverdue     int                   `json:"days_overdue"`
	Notes           string                `json:"notes,omitempty"`
	CreatedBy       *uuid.UUID            `json:"created_by,omitempty"`
	Items           []InvoiceItemResponse `json:"items"`
	Version         int                   `json:"version"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ToInvoiceResponse converts a domain Invoice as seen at now
func ToInvoiceResponse(inv *finance.Invoice, now time.Time) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:              it.ID,
			ChargeTypeID:    it.ChargeTypeID,
			ChargeTypeName:  it.ChargeTypeName,
			UtilityChargeID: it.UtilityChargeID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       shared.AmountOf(it.UnitPrice),
			LineTotal:       shared.AmountOf(it.LineTotal),
		}
	}
	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		TenantID:        inv.TenantID,
		BillingPeriodID: inv.BillingPeriodID,
		Status:          inv.Status.String(),
		Subtotal:        shared.AmountOf(inv.Subtotal),
		TaxAmount:       shared.AmountOf(inv.TaxAmount),
		TotalAmount:     shared.AmountOf(inv.TotalAmount),
		AmountPaid:      shared.AmountOf(inv.AmountPaid),
		BalanceDue:      shared.AmountOf(inv.BalanceDue()),
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		IsOverdue:       inv.IsOverdue(now),
		DaysOverdue:     inv.DaysOverdue(now),
		Notes:           inv.Notes,
		CreatedBy:       inv.CreatedBy,
		Items:           items,
		Version:         inv.Version,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func toInvoiceResponses(invoices []finance.Invoice, now time.Time) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i], now)
	}
	return out
}

// UtilityChargeResponse represents a utility charge
type UtilityChargeResponse struct {
	ID              uuid.UUID     `json:"id"`
	TenantID        uuid.UUID     `json:"tenant_id"`
	UtilityType     string        `json:"utility_type"`
	BillingPeriodID uuid.UUID     `json:"billing_period_id"`
	Amount          shared.Amount `json:"amount"`
	Description     string        `json:"description,omitempty"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	RecordedBy      *uuid.UUID    `json:"recorded_by,omitempty"`
	IsBilled        bool          `json:"is_billed"`
	InvoiceItemID   *uuid.UUID    `json:"invoice_item_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ToUtilityChargeResponse converts a domain UtilityCharge
func ToUtilityChargeResponse(c *finance.UtilityCharge) UtilityChargeResponse {
	return UtilityChargeResponse{
		ID:              c.ID,
		TenantID:        c.TenantID,
		UtilityType:     string(c.UtilityType),
		BillingPeriodID: c.BillingPeriodID,
		Amount:          shared.AmountOf(c.Amount),
		Description:     c.Description,
		ReferenceNumber: c.ReferenceNumber,
		RecordedBy:      c.RecordedBy,
		IsBilled:        c.IsBilled,
		InvoiceItemID:   c.InvoiceItemID,
		CreatedAt:       c.CreatedAt,
	}
}

func toUtilityChargeResponses(charges []finance.UtilityCharge) []UtilityChargeResponse {
	out := make([]UtilityChargeResponse, len(charges))
	for i := range charges {
		out[i] = ToUtilityChargeResponse(&charges[i])
	}
	return out
}

// PaymentResponse represents a payment
type PaymentResponse struct {
	ID              uuid.UUID     `json:"id"`
	TenantID        uuid.UUID     `json:"tenant_id"`
	InvoiceID       *uuid.UUID    `json:"invoice_id,omitempty"`
	Amount          shared.Amount `json:"amount"`
	PaymentDate     time.Time     `json:"payment_date"`
	PaymentMethod   string        `json:"payment_method"`
	ReferenceNumber string        `json:"reference_number"`
	Status          string        `json:"status"`
	TransactionID   *uuid.UUID    `json:"transaction_id,omitempty"`
	ReceiptID       *uuid.UUID    `json:"receipt_id,omitempty"`
	ProcessedBy     *uuid.UUID    `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ToPaymentResponse converts a domain Payment
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		TenantID:        p.TenantID,
		InvoiceID:       p.InvoiceID,
		Amount:          shared.AmountOf(p.Amount),
		PaymentDate:     p.PaymentDate,
		PaymentMethod:   p.PaymentMethod.String(),
		ReferenceNumber: p.ReferenceNumber,
		Status:          p.Status.String(),
		TransactionID:   p.TransactionID,
		ReceiptID:       p.ReceiptID,
		ProcessedBy:     p.ProcessedBy,
		ProcessedAt:     p.ProcessedAt,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
}

// RentPaymentResponse represents a rent payment
type RentPaymentResponse struct {
	ID                uuid.UUID     `json:"id"`
	TenantID          uuid.UUID     `json:"tenant_id"`
	BillingPeriodID   uuid.UUID     `json:"billing_period_id"`
	InvoiceID         *uuid.UUID    `json:"invoice_id,omitempty"`
	Amount            shared.Amount `json:"amount"`
	AmountPaid        shared.Amount `json:"amount_paid"`
	OutstandingAmount shared.Amount `json:"outstanding_amount"`
	TotalAmountDue    shared.Amount `json:"total_amount_due"`
	DueDate           time.Time     `json:"due_date"`
	PaymentDate       time.Time     `json:"payment_date"`
	PaymentMethod     string        `json:"payment_method"`
	ReferenceNumber   string        `json:"reference_number,omitempty"`
	Status            string        `json:"status"`
	IsPartial         bool          `json:"is_partial"`
	IsOverdue         bool          `json:"is_overdue"`
	DaysLate          int           `json:"days_late"`
	TransactionID     *uuid.UUID    `json:"transaction_id,omitempty"`
	ProcessedBy       *uuid.UUID    `json:"processed_by,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// ToRentPaymentResponse converts a domain RentPayment as seen at now
func ToRentPaymentResponse(r *finance.RentPayment, now time.Time) RentPaymentResponse {
	return RentPaymentResponse{
		ID:                r.ID,
		TenantID:          r.TenantID,
		BillingPeriodID:   r.BillingPeriodID,
		InvoiceID:         r.InvoiceID,
		Amount:            shared.AmountOf(r.Amount),
		AmountPaid:        shared.AmountOf(r.AmountPaid),
		OutstandingAmount: shared.AmountOf(r.OutstandingAmount),
		TotalAmountDue:    shared.AmountOf(r.TotalAmountDue()),
		DueDate:           r.DueDate,
		PaymentDate:       r.PaymentDate,
		PaymentMethod:     r.PaymentMethod.String(),
		ReferenceNumber:   r.ReferenceNumber,
		Status:            r.Status.String(),
		IsPartial:         r.IsPartial,
		IsOverdue:         r.IsOverdue(now),
		DaysLate:          r.DaysLate(),
		TransactionID:     r.TransactionID,
		ProcessedBy:       r.ProcessedBy,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
	}
}

func toRentPaymentResponses(payments []finance.RentPayment, now time.Time) []RentPaymentResponse {
	out := make([]RentPaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToRentPaymentResponse(&payments[i], now)
	}
	return out
}

// ReceiptResponse represents a receipt
type ReceiptResponse struct {
	ID                       uuid.UUID     `json:"id"`
	ReceiptNumber            string        `json:"receipt_number"`
	TransactionID            uuid.UUID     `json:"transaction_id"`
	TenantID                 uuid.UUID     `json:"tenant_id"`
	InvoiceID                *uuid.UUID    `json:"invoice_id,omitempty"`
	Amount                   shared.Amount `json:"amount"`
	AmountAllocatedToInvoice shared.Amount `json:"amount_allocated_to_invoice"`
	AmountToAccount          shared.Amount `json:"amount_to_account"`
	PaymentDate              time.Time     `json:"payment_date"`
	PaymentMethod            string        `json:"payment_method"`
	Notes                    string        `json:"notes,omitempty"`
	IssuedBy                 *uuid.UUID    `json:"issued_by,omitempty"`
	CreatedAt                time.Time     `json:"created_at"`
}

// ToReceiptResponse converts a domain Receipt
func ToReceiptResponse(r *finance.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:                       r.ID,
		ReceiptNumber:            r.ReceiptNumber,
		TransactionID:            r.TransactionID,
		TenantID:                 r.TenantID,
		InvoiceID:                r.InvoiceID,
		Amount:                   shared.AmountOf(r.Amount),
		AmountAllocatedToInvoice: shared.AmountOf(r.AmountAllocatedToInvoice),
		AmountToAccount:          shared.AmountOf(r.AmountToAccount),
		PaymentDate:              r.PaymentDate,
		PaymentMethod:            r.PaymentMethod.String(),
		Notes:                    r.Notes,
		IssuedBy:                 r.IssuedBy,
		CreatedAt:                r.CreatedAt,
	}
}

func toReceiptResponses(receipts []finance.Receipt) []ReceiptResponse {
	out := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = ToReceiptResponse(&receipts[i])
	}
	return out
}

// PaymentResult is what a processed payment produced
type PaymentResult struct {
	Payment     *PaymentResponse     `json:"payment,omitempty"`
	RentPayment *RentPaymentResponse `json:"rent_payment,omitempty"`
	Transaction TransactionResponse  `json:"transaction"`
	Receipt     *ReceiptResponse     `json:"receipt,omitempty"`
	Invoice     *InvoiceResponse     `json:"invoice,omitempty"`
	Account     AccountResponse      `json:"account"`
}
