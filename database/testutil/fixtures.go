package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is one fixture row keyed by column name.
type Row = map[string]interface{}

// Fixture is a set of rows for one table.
type Fixture struct {
	Table string
	Rows  []Row
}

// LoadFixture inserts rows into table inside one transaction, so a bad row
// leaves the table untouched.
func LoadFixture(db *gorm.DB, table string, rows []Row) error {
	return LoadFixtures(db, Fixture{Table: table, Rows: rows})
}

// LoadFixtures inserts every fixture, in order, inside one transaction.
func LoadFixtures(db *gorm.DB, fixtures ...Fixture) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, f := range fixtures {
			for i, row := range f.Rows {
				if err := tx.Table(f.Table).Create(row).Error; err != nil {
					return fmt.Errorf("fixture %s row %d: %w", f.Table, i, err)
				}
			}
		}
		return nil
	})
}

// MustLoadFixture is LoadFixture failing the test on error.
func MustLoadFixture(t testing.TB, db *gorm.DB, table string, rows []Row) {
	t.Helper()
	require.NoError(t, LoadFixture(db, table, rows))
}

// Seed inserts typed entities and fails the test on error. The entities get
// their generated keys back.
func Seed[T any](t testing.TB, db *gorm.DB, entities ...*T) {
	t.Helper()
	for _, e := range entities {
		require.NoError(t, db.Create(e).Error)
	}
}

// TruncateTables deletes every row of the given tables.
func TruncateTables(db *gorm.DB, tables ...string) error {
	for _, table := range tables {
		if err := db.Exec("DELETE FROM ?", clause.Table{Name: table}).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// CountRows returns the number of rows in table.
func CountRows(db *gorm.DB, table string) (int64, error) {
	var n int64
	err := db.Table(table).Count(&n).Error
	return n, err
}

// AssertRowCount fails the test unless table holds want rows.
func AssertRowCount(t testing.TB, db *gorm.DB, table string, want int64) {
	t.Helper()
	n, err := CountRows(db, table)
	require.NoError(t, err, "count rows in %s", table)
	require.Equal(t, want, n, "rows in %s", table)
}
