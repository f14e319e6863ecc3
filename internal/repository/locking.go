package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a row-level lock on dialects that support it. SQLite (the
// embedded test database) rejects FOR UPDATE syntax and serializes writers
// on its own.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// AdvisoryLock takes a transaction-scoped advisory lock keyed by key.
// Used to keep generated document numbers gap-free under concurrency.
func AdvisoryLock(tx *gorm.DB, key string) {
	if tx.Dialector.Name() == "postgres" {
		tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key)
	}
}
