package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

// PeriodType is the cadence of a billing period
type PeriodType string

const (
	PeriodTypeMonthly    PeriodType = "monthly"
	PeriodTypeQuarterly  PeriodType = "quarterly"
	PeriodTypeSemiAnnual PeriodType = "semi_annual"
	PeriodTypeAnnual     PeriodType = "annual"
	PeriodTypeCustom     PeriodType = "custom"
)

// IsValid checks if the period type is valid
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodTypeMonthly, PeriodTypeQuarterly, PeriodTypeSemiAnnual, PeriodTypeAnnual, PeriodTypeCustom:
		return true
	}
	return false
}

// DefaultDueDays is how many days after the period start a monthly period falls due
const DefaultDueDays = 5

// BillingPeriod is the window that gates charges and invoices.
// It starts open and closing it is one-way.
type BillingPeriod struct {
	shared.BaseAggregateRoot
	Name       string
	PeriodType PeriodType
	StartDate  time.Time
	EndDate    time.Time
	DueDate    time.Time
	IsActive   bool
	IsClosed   bool
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID
	CreatedBy  *uuid.UUID
}

// NewBillingPeriod creates an open billing period
func NewBillingPeriod(name string, periodType PeriodType, start, end, due time.Time) (*BillingPeriod, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Billing period name cannot be empty")
	}
	if periodType == "" {
		periodType = PeriodTypeMonthly
	}
	if !periodType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIOD_TYPE", fmt.Sprintf("Unknown period type %q", periodType))
	}

	start, end, due = DateOnly(start), DateOnly(end), DateOnly(due)
	if !end.After(start) {
		return nil, shared.NewDomainError(CodeInvalidDateRange, "End date must be after start date")
	}
	if due.Before(start) {
		return nil, shared.NewDomainError(CodeInvalidDateRange, "Due date cannot be before start date")
	}

	return &BillingPeriod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		PeriodType:        periodType,
		StartDate:         start,
		EndDate:           end,
		DueDate:           due,
		IsActive:          true,
	}, nil
}

// NewMonthlyBillingPeriod builds the calendar-month period named like "January 2025",
// due DefaultDueDays after the first of the month.
func NewMonthlyBillingPeriod(year int, month time.Month) *BillingPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	due := start.AddDate(0, 0, DefaultDueDays)

	return &BillingPeriod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              start.Format("January 2006"),
		PeriodType:        PeriodTypeMonthly,
		StartDate:         start,
		EndDate:           end,
		DueDate:           due,
		IsActive:          true,
	}
}

// Close closes the period. Closing is terminal.
func (p *BillingPeriod) Close(actor uuid.UUID) error {
	if p.IsClosed {
		return shared.NewDomainError(CodeAlreadyClosed, fmt.Sprintf("Billing period %s is already closed", p.Name))
	}

	now := time.Now()
	p.IsClosed = true
	p.IsActive = false
	p.ClosedAt = &now
	p.ClosedBy = &actor
	p.UpdatedAt = now
	return nil
}

// CanAddCharges reports whether invoices and charges may target this period
func (p *BillingPeriod) CanAddCharges() bool {
	return !p.IsClosed && p.IsActive
}

// EnsureCanAddCharges returns PERIOD_CLOSED when the period no longer accepts charges
func (p *BillingPeriod) EnsureCanAddCharges() error {
	if !p.CanAddCharges() {
		return shared.NewDomainError(CodePeriodClosed, fmt.Sprintf("Billing period %s is closed for new charges", p.Name))
	}
	return nil
}

// Contains reports whether the date falls inside the period, inclusive
func (p *BillingPeriod) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// IsCurrent reports whether now falls inside the period
func (p *BillingPeriod) IsCurrent(now time.Time) bool {
	return p.Contains(now)
}

// DaysUntilDue returns the whole days from now to the due date; negative once past due
func (p *BillingPeriod) DaysUntilDue(now time.Time) int {
	return daysBetween(DateOnly(now), p.DueDate)
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
