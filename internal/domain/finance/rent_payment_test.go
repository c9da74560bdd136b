package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentPayment_PartialThenComplete(t *testing.T) {
	period := NewMonthlyBillingPeriod(2025, time.January)
	rent, err := NewRentPayment(uuid.New(), period, dec("1000"), "")
	require.NoError(t, err)
	assert.Equal(t, period.DueDate, rent.DueDate)
	assert.Equal(t, "1000.00", rent.TotalAmountDue().StringFixed(2))

	first := dec("600")
	amount, err := rent.ResolveAmount(&first)
	require.NoError(t, err)
	require.NoError(t, rent.RecordPayment(amount, uuid.New(), uuid.New()))

	assert.Equal(t, PaymentStatusPartial, rent.Status)
	assert.True(t, rent.IsPartial)
	assert.Equal(t, "400.00", rent.OutstandingAmount.StringFixed(2))
	assert.Equal(t, "400.00", rent.TotalAmountDue().StringFixed(2))

	t.Run("second partial is validated against what remains", func(t *testing.T) {
		tooMuch := dec("600")
		_, err := rent.ResolveAmount(&tooMuch)
		assert.True(t, shared.HasCode(err, CodeAmountExceedsBalance))
	})

	amount, err = rent.ResolveAmount(nil)
	require.NoError(t, err)
	assert.Equal(t, "400.00", amount.StringFixed(2))
	require.NoError(t, rent.RecordPayment(amount, uuid.New(), uuid.New()))

	assert.Equal(t, PaymentStatusCompleted, rent.Status)
	assert.False(t, rent.IsPartial)
	assert.True(t, rent.OutstandingAmount.IsZero())
	assert.False(t, rent.CanProcess())

	_, err = rent.ResolveAmount(nil)
	assert.True(t, shared.HasCode(err, "INVALID_STATE"))
	assert.True(t, shared.HasCode(rent.RecordPayment(dec("1"), uuid.New(), uuid.New()), "INVALID_STATE"))
}

func TestRentPayment_Validation(t *testing.T) {
	period := NewMonthlyBillingPeriod(2025, time.January)

	_, err := NewRentPayment(uuid.New(), period, dec("0"), "")
	assert.True(t, shared.HasCode(err, CodeInvalidAmount))

	rent, err := NewRentPayment(uuid.New(), period, dec("500"), PaymentMethodCash)
	require.NoError(t, err)
	zero := dec("0")
	_, err = rent.ResolveAmount(&zero)
	assert.True(t, shared.HasCode(err, CodeInvalidAmount))
}

func TestRentPayment_Overdue(t *testing.T) {
	period := NewMonthlyBillingPeriod(2025, time.January)
	rent, err := NewRentPayment(uuid.New(), period, dec("500"), "")
	require.NoError(t, err)

	assert.False(t, rent.IsOverdue(date(2025, 1, 6)))
	assert.True(t, rent.IsOverdue(date(2025, 1, 7)))

	rent.PaymentDate = date(2025, 1, 9)
	assert.Equal(t, 3, rent.DaysLate())
	assert.Equal(t, "Rent payment for January 2025", rent.TransactionDescription(period.Name))
}
