package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/dbtest"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db := dbtest.Open(t).DB
	svc := NewService(auditRepo.NewRepository(db), zap.NewNop())
	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:      "user-1",
		EventType:   entities.AuditEventCatalog,
		Action:      "author_create",
		Description: "Created author",
		Status:      entities.AuditStatusSuccess,
	}

	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "author_create", saved.Action)
}

func TestService_LogCatalog_UsesRequestInfo(t *testing.T) {
	svc, db := setupTestService(t)

	ctx := WithRequestInfo(context.Background(), RequestInfo{
		UserID:    "admin-1",
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8.0",
	})
	svc.LogCatalog(ctx, "book_create", "book", "book-1", "Created book 1984")
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "book_create").First(&event).Error)
	assert.Equal(t, entities.AuditEventCatalog, event.EventType)
	assert.Equal(t, "admin-1", event.UserID)
	assert.Equal(t, "10.0.0.1", event.IPAddress)
	assert.Equal(t, "curl/8.0", event.UserAgent)
	assert.Equal(t, "book-1", event.EntityID)
}

func TestService_LogLoan(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogLoan(context.Background(), "loan_borrow", "loan-1", "Borrowed 1984", map[string]any{"book_id": "book-1"})
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "loan_borrow").First(&event).Error)
	assert.Equal(t, "loan", event.EntityType)
	assert.Contains(t, event.Metadata, "book_id")
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := WithRequestInfo(context.Background(), RequestInfo{IPAddress: "192.168.1.1", UserAgent: "Mozilla/5.0"})

	t.Run("successful login", func(t *testing.T) {
		svc.LogAuth(ctx, "user-1", "login", true)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "login").First(&event).Error)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "user-1", event.UserID)
		assert.Equal(t, "192.168.1.1", event.IPAddress)
	})

	t.Run("failed login", func(t *testing.T) {
		svc.LogAuth(ctx, "", "login_failed", false)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "login_failed").First(&event).Error)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
	})
}

func TestService_LogMaintenance(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogMaintenance(context.Background(), "reconcile_copies", "Reconciled copies", nil, errors.New("database locked"))
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "reconcile_copies").First(&event).Error)
	assert.Equal(t, entities.AuditEventMaintenance, event.EventType)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Contains(t, event.ErrorMsg, "database locked")
	assert.Empty(t, event.Metadata)
}

func TestService_GetEvents(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.LogCatalog(ctx, "author_update", "author", "author-1", "Updated author")
	}
	svc.LogUsers(ctx, "user_delete", "user-9", "Deleted user")
	svc.Wait()

	events, total, err := svc.GetEvents(ctx, auditRepo.Filter{EventType: entities.AuditEventCatalog})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, events, 3)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventCatalog,
		Action:    "old_event",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventCatalog,
		Action:    "new_event",
		Status:    entities.AuditStatusSuccess,
	}))

	deleted, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.maxLen))
		})
	}
}
