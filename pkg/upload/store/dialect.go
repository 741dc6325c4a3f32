package store

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func sqliteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}

// lockingClause takes a SELECT ... FOR UPDATE row lock. Only meaningful
// against PostgreSQL: SQLite has no row-level locking, relying instead on
// its single-writer transaction semantics.
func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
