package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// Supported drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// DialectorFunc builds a GORM dialector from a connection string.
type DialectorFunc func(dsn string) gorm.Dialector

var dialectors = map[string]DialectorFunc{
	DriverSQLServer: sqlserver.Open,
	DriverPostgres:  postgres.Open,
	DriverSQLite:    sqlite.Open,
}

// Dialector returns the GORM dialector for driver and dsn.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	open, ok := dialectors[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("database driver %q is not supported", driver)
	}
	return open(dsn), nil
}

func isSupportedDriver(driver string) bool {
	_, ok := dialectors[strings.ToLower(driver)]
	return ok
}
