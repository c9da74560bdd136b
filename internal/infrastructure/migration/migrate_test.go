package migration

import (
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable_ListsEmbeddedSchema(t *testing.T) {
	files, err := Available()
	require.NoError(t, err)
	assert.Contains(t, files, "000001_ledger_schema.up.sql")
}

func TestNewWithSource_DriverFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT CURRENT_DATABASE\(\)`).WillReturnError(assert.AnError)

	src := fstest.MapFS{"000001_x.up.sql": {Data: []byte("SELECT 1;")}}
	_, err = NewWithSource(db, src, ".", nil)
	assert.ErrorContains(t, err, "failed to create postgres driver")
}
