package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customer struct {
	ID    int `gorm:"primaryKey"`
	Email string
}

type address struct {
	ID         int `gorm:"primaryKey"`
	CustomerID int
	City       string
}

func TestNewDB_MigratesModels(t *testing.T) {
	db := NewDB(t, &customer{})
	assert.True(t, db.GormDB.Migrator().HasTable(&customer{}))
}

func TestFixtures(t *testing.T) {
	db := NewDB(t, &customer{}, &address{})

	require.NoError(t, LoadFixtures(db.GormDB,
		Fixture{Table: "customers", Rows: []Row{
			{"id": 1, "email": "ada@example.com"},
			{"id": 2, "email": "alan@example.com"},
		}},
		Fixture{Table: "addresses", Rows: []Row{{"id": 1, "customer_id": 1, "city": "London"}}},
	))
	AssertRowCount(t, db.GormDB, "customers", 2)
	AssertRowCount(t, db.GormDB, "addresses", 1)

	require.NoError(t, TruncateTables(db.GormDB, "addresses", "customers"))
	AssertRowCount(t, db.GormDB, "customers", 0)
	AssertRowCount(t, db.GormDB, "addresses", 0)
}

func TestLoadFixture_RollsBackOnError(t *testing.T) {
	db := NewDB(t, &customer{})

	err := LoadFixture(db.GormDB, "customers", []Row{
		{"id": 1, "email": "ada@example.com"},
		{"id": 1, "email": "duplicate@example.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customers row 1")
	AssertRowCount(t, db.GormDB, "customers", 0)
}

func TestLoadFixture_UnknownTable(t *testing.T) {
	db := NewDB(t)
	err := LoadFixture(db.GormDB, "missing", []Row{{"id": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestSeed(t *testing.T) {
	db := NewDB(t, &customer{})
	c := &customer{Email: "grace@example.com"}
	Seed(t, db.GormDB, c)

	assert.NotZero(t, c.ID)
	MustLoadFixture(t, db.GormDB, "customers", []Row{{"id": 10, "email": "linus@example.com"}})
	AssertRowCount(t, db.GormDB, "customers", 2)
}
