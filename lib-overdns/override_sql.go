package overdns

import (
	"database/sql"
	"fmt"

	// drivers for the override database
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// SQLOverrides is the OverrideSource backed by a relational table.
//
// The table is administered outside of the proxy and read here only:
//
//	CREATE TABLE `dns-override` (address TEXT, type TEXT, value TEXT)
type SQLOverrides struct {
	driver string
	dsn    string
	db     *sql.DB
}

// NewSQLOverrides is constructor of SQLOverrides.
//
// driver is "sqlite3" or "mysql". The connection is verified lazily;
// an unreachable database shows up as lookup errors, not here.
func NewSQLOverrides(driver, dsn string) (*SQLOverrides, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, NewError(TypeStoreUnavailable, err, "failed to open override database")
	}

	return &SQLOverrides{driver: driver, dsn: dsn, db: db}, nil
}

func (so *SQLOverrides) String() string {
	return fmt.Sprintf("SQLOverrides[%s]", so.driver)
}

// Lookup reads the override row for the domain.
//
// No row is (nil, nil). Every database failure is a StoreUnavailable
// error; the caller decides that this means "no override".
func (so *SQLOverrides) Lookup(domain Domain) (Record, error) {
	var qtype, value string

	err := so.db.QueryRow(
		"SELECT `type`, `value` FROM `dns-override` WHERE `address` = ?",
		domain.Unqualified(),
	).Scan(&qtype, &value)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewError(TypeStoreUnavailable, err, "override query failed")
	}

	record, err := NewRecord(domain, QtypeFromString(qtype), OverrideTTL, value)
	if err != nil {
		return nil, NewError(TypeStoreUnavailable, err, "broken override row for %s", domain)
	}

	return record, nil
}

func (so *SQLOverrides) Close() error {
	return so.db.Close()
}
