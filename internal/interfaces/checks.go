package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/services"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.AuthorStore = (*authors.Repository)(nil)
var _ services.BookStore = (*books.Repository)(nil)
var _ services.LoanStore = (*loans.Repository)(nil)
var _ services.UserFinder = (*users.Repository)(nil)

var _ auth.UserStore = (*users.Repository)(nil)
var _ auth.LoanCounter = (*loans.Repository)(nil)

var _ tasks.CopyCounterStore = (*books.Repository)(nil)

var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.AuditRecorder = (*audit.Service)(nil)
var _ auth.EventRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.MaintenanceRecorder = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)

// =============================================================================
// Services
// =============================================================================

var _ http.AuthorService = (*services.CatalogService)(nil)
var _ http.BookService = (*services.CatalogService)(nil)
var _ http.LoanService = (*services.LoanService)(nil)
var _ http.AccountService = (*auth.Service)(nil)
var _ auth.TokenValidator = (*auth.Service)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
