package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditController struct {
	reader AuditReader
	logger *zap.Logger
}

func NewAuditController(reader AuditReader, logger *zap.Logger) *AuditController {
	return &AuditController{reader: reader, logger: logger}
}

type auditMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type auditResponse struct {
	Data []entities.AuditEvent `json:"data"`
	Meta auditMeta             `json:"meta"`
}

// GetAuditEvents returns audit events, newest first.
// GET /audit?type=&userId=&entityId=&limit=&offset=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	filter := auditrepo.Filter{
		UserID:    c.Query("userId"),
		EventType: entities.AuditEventType(c.Query("type")),
		EntityID:  c.Query("entityId"),
		Limit:     defaultAuditLimit,
	}
	if filter.EventType != "" && !filter.EventType.Valid() {
		respondBadRequest(c, "type must be one of catalog, loan, auth, users, maintenance")
		return
	}

	limit, ok := parseIntQuery(c, "limit")
	if !ok {
		return
	}
	if limit != nil {
		if *limit < 1 {
			respondBadRequest(c, "limit must be at least 1")
			return
		}
		filter.Limit = min(*limit, maxAuditLimit)
	}

	offset, ok := parseIntQuery(c, "offset")
	if !ok {
		return
	}
	if offset != nil {
		if *offset < 0 {
			respondBadRequest(c, "offset must not be negative")
			return
		}
		filter.Offset = *offset
	}

	events, total, err := ac.reader.GetEvents(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, ac.logger, err, "get audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, auditResponse{
		Data: events,
		Meta: auditMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}
