// internal/handlers/audit/audit.go
package audit

import (
	"net/http"
	"strconv"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/pkg/response"
	service "kunden-service/internal/service/audit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService *service.AuditService
	logger       *zap.Logger
}

func NewAuditHandler(auditService *service.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

type auditListResponse struct {
	Entries  []audit.Entry `json:"entries"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ListEntries returns the change log newest first, optionally for one customer.
func (h *AuditHandler) ListEntries(c *gin.Context) {
	var customerID int64
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
			return
		}
		customerID = id
	}

	entries, warnings, err := h.auditService.List(c.Request.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to list audit entries", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list audit entries", err)
		return
	}

	response.Success(c, http.StatusOK, "audit entries retrieved", auditListResponse{
		Entries:  entries,
		Warnings: warnings,
	})
}
