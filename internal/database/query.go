package database

import "gorm.io/gorm"

// ContainsExpr returns a case-sensitive substring predicate for column with a
// single placeholder for the needle. LIKE is avoided because SQLite folds ASCII
// case and the needle would need wildcard escaping.
func ContainsExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

// Page applies LIMIT/OFFSET for a 1-based page number.
func Page(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
