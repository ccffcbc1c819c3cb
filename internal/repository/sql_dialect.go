package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/portalteam/approvalflow/internal/config"
)

// placeholder returns the correct bind variable for the given index based on DB type.
// Postgres uses $1, $2... while MySQL and SQLite use ?
func placeholder(i int) string {
	db := config.GetSystemSettingString(config.DATABASE_TYPE)
	if db == config.DATABASE_TYPE_POSTGRES {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// boolLiteral renders a boolean literal for the active dialect; SQLite and
// MySQL columns are integer-backed.
func boolLiteral(b bool) string {
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_POSTGRES {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	if b {
		return "1"
	}
	return "0"
}

func supportsReturning() bool {
	return config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_POSTGRES
}

// formatDateInDatabase renders a timestamp the way the active dialect
// stores it. SQLite keeps TEXT columns, MySQL wants no T/Z separator.
func formatDateInDatabase(t time.Time) string {
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_SQLLITE {
		return t.UTC().Format("2006-01-02 15:04:05.000")
	}
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_MYSQL {
		return t.UTC().Format("2006-01-02 15:04:05.000000")
	}
	// PostgreSQL supports RFC3339
	return t.UTC().Format(time.RFC3339Nano)
}

func formatDateInDatabaseNull(t sql.NullTime) interface{} {
	if !t.Valid {
		return nil
	}
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_POSTGRES {
		return t.Time
	}
	return formatDateInDatabase(t.Time)
}

// execInsert runs an insert and resolves the generated id, using RETURNING
// on Postgres and LastInsertId elsewhere.
func execInsert(db queryExecer, base string, vals ...interface{}) (int64, error) {
	if supportsReturning() {
		var id int64
		err := db.QueryRow(base+" RETURNING id", vals...).Scan(&id)
		return id, err
	}
	res, err := db.Exec(base, vals...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// queryExecer is satisfied by both *sql.DB and *sql.Tx so repositories can
// run the same statements inside or outside a transaction.
type queryExecer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}
