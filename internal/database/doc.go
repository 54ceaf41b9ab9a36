// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup for SQLite and Postgres
//	├── migrate.go       # Embedded goose migrations
//	├── migrations/      # SQL schema, one directory per dialect
//	├── authors/         # Author CRUD
//	├── books/           # Book CRUD, filtering, copy counters
//	├── loans/           # Borrow/return transactions and loan queries
//	├── users/           # User management
//	├── audit/           # Audit trail
//	└── dbtest/          # Throwaway migrated databases for tests
//
// # Schema
//
// The schema is owned by the SQL migrations, not by gorm's AutoMigrate. The
// invariants the loan workflow depends on live there as constraints:
// CHECK (available_copies BETWEEN 0 AND total_copies) on books and a partial
// unique index allowing one BORROWED loan per (user_id, book_id).
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, logger)
//
//	booksRepo := books.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB)
//
//	page, total, err := booksRepo.List(ctx, books.ListFilter{Page: 1, Limit: 20})
//
// Repositories return gorm errors unchanged (gorm.ErrRecordNotFound,
// gorm.ErrDuplicatedKey) or their own sentinels; translating them into the
// service error taxonomy is left to internal/services.
package database
