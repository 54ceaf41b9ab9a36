package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("audit")}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.Error("Failed to log audit event",
				zap.String("action", event.Action),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// newEvent fills the caller fields from the request info carried by ctx.
func newEvent(ctx context.Context, eventType entities.AuditEventType, action string) *entities.AuditEvent {
	info := RequestInfoFrom(ctx)
	return &entities.AuditEvent{
		UserID:    info.UserID,
		EventType: eventType,
		Action:    action,
		IPAddress: info.IPAddress,
		UserAgent: truncate(info.UserAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}
}

// LogCatalog records a change to an author or a book.
func (s *Service) LogCatalog(ctx context.Context, action, entityType, entityID, description string) {
	event := newEvent(ctx, entities.AuditEventCatalog, action)
	event.EntityType = entityType
	event.EntityID = entityID
	event.Description = truncate(description, 500)
	s.LogAsync(event)
}

// LogLoan records a borrow or a return.
func (s *Service) LogLoan(ctx context.Context, action, loanID, description string, metadata map[string]any) {
	event := newEvent(ctx, entities.AuditEventLoan, action)
	event.EntityType = "loan"
	event.EntityID = loanID
	event.Description = truncate(description, 500)
	event.Metadata = encodeMetadata(metadata)
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(ctx context.Context, userID, action string, success bool) {
	event := newEvent(ctx, entities.AuditEventAuth, action)
	if userID != "" {
		event.UserID = userID
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogUsers records user administration performed by the caller.
func (s *Service) LogUsers(ctx context.Context, action, targetID, description string) {
	event := newEvent(ctx, entities.AuditEventUsers, action)
	event.EntityType = "user"
	event.EntityID = targetID
	event.Description = truncate(description, 500)
	s.LogAsync(event)
}

// LogMaintenance records the outcome of a background task.
func (s *Service) LogMaintenance(ctx context.Context, action, description string, metadata map[string]any, err error) {
	event := newEvent(ctx, entities.AuditEventMaintenance, action)
	event.Description = truncate(description, 500)
	event.Metadata = encodeMetadata(metadata)
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, f)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
