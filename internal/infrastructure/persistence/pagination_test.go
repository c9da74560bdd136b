package persistence

import (
	"testing"

	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSortColumns_Pick(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"", "created_at"},
		{"due_date", "due_date"},
		{"  total_amount ", "total_amount"},
		{"id", "id"},
		{"DUE_DATE", "created_at"},
		{"due_date; DROP TABLE invoices;--", "created_at"},
		{"due_date desc", "created_at"},
		{"balance", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, invoiceSorts.pick(tt.field))
		})
	}
}

func TestSortDirection(t *testing.T) {
	assert.Equal(t, "ASC", sortDirection("asc"))
	assert.Equal(t, "ASC", sortDirection("  ASC "))
	assert.Equal(t, "DESC", sortDirection(""))
	assert.Equal(t, "DESC", sortDirection("desc"))
	assert.Equal(t, "DESC", sortDirection("ASC; DROP TABLE receipts"))
}

func TestPaginate_SQL(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	render := func(filter shared.Filter) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var rows []models.InvoiceModel
			return paginate(tx.Model(&models.InvoiceModel{}), filter, invoiceSorts).Find(&rows)
		})
	}

	sql := render(shared.Filter{Page: 3, PageSize: 10, OrderBy: "due_date", OrderDir: "asc"})
	assert.Contains(t, sql, "ORDER BY due_date ASC,id")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 20")

	sql = render(shared.Filter{Page: 0, PageSize: 5000, OrderBy: "password"})
	assert.Contains(t, sql, "ORDER BY created_at DESC,id")
	assert.Contains(t, sql, "LIMIT 200")
	assert.NotContains(t, sql, "OFFSET")
}
