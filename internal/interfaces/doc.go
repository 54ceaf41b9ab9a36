// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - AuthorStore, BookStore, LoanStore, UserFinder: catalog and loan
//     persistence (internal/services/interfaces.go)
//   - UserStore, LoanCounter: account persistence (internal/auth/service.go)
//   - CopyCounterStore: copy counter reconciliation (internal/tasks/reconcile_copies.go)
//
// ## Audit Interfaces
//
//   - AuditRecorder: catalog and loan events (internal/services/interfaces.go)
//   - EventRecorder: login and user administration events (internal/auth/service.go)
//   - AuditEventCleaner, MaintenanceRecorder: retention and maintenance
//     (internal/tasks/cleanup_audit.go)
//
// ## HTTP Interfaces
//
// Controllers depend on narrow interfaces declared in internal/http/stores.go:
// AuthorService, BookService, LoanService, AccountService, AuditReader,
// TaskQueue and Pinger.
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its processor in internal/tasks/
//
//     type PurgeSessionsTask struct{}
//
//     func (t PurgeSessionsTask) Config() backlite.QueueConfig {
//         return backlite.QueueConfig{Name: "purge_sessions", MaxAttempts: 1}
//     }
//
//     func NewPurgeSessionsQueue(store SessionStore, logger *zap.Logger) backlite.Queue
//
//  2. Register the queue in entrypoint.go
//
//  3. Add a Job in scheduler.JobsFromConfig and a task type in internal/http/tasks.go
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/reservations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add a goose migration under internal/database/migrations/
//
//  4. Add compile-time check:
//
//     var _ services.ReservationStore = (*reservations.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
