package persistence

import (
	"strings"

	"github.com/propledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns whitelists the columns a list query may order by.
// Anything else falls back to created_at, so user input never reaches ORDER BY raw.
type sortColumns map[string]struct{}

func columns(names ...string) sortColumns {
	cols := sortColumns{"id": {}, "created_at": {}, "updated_at": {}}
	for _, n := range names {
		cols[n] = struct{}{}
	}
	return cols
}

func (c sortColumns) pick(field string) string {
	field = strings.TrimSpace(field)
	if _, ok := c[field]; ok {
		return field
	}
	return "created_at"
}

func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

var (
	accountSorts       = columns("balance", "credit_limit")
	transactionSorts   = columns("amount", "transaction_type")
	billingPeriodSorts = columns("start_date", "end_date", "due_date", "name")
	invoiceSorts       = columns("invoice_number", "due_date", "issue_date", "total_amount", "status")
	utilitySorts       = columns("amount", "utility_type")
	paymentSorts       = columns("amount", "payment_date", "status", "due_date")
	receiptSorts       = columns("receipt_number", "amount", "payment_date")
)

// paginate orders by a whitelisted column, breaking ties on id so pages stay
// stable, and applies the page window.
func paginate(query *gorm.DB, filter shared.Filter, allowed sortColumns) *gorm.DB {
	filter = filter.Normalized()
	return query.
		Order(allowed.pick(filter.OrderBy) + " " + sortDirection(filter.OrderDir)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}
