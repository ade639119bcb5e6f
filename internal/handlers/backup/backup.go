// internal/handlers/backup/backup.go
package backup

import (
	"errors"
	"net/http"
	"path/filepath"

	"kunden-service/internal/domain/backup"
	"kunden-service/internal/middleware"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/pkg/response"
	service "kunden-service/internal/service/backup"
	"kunden-service/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Uploaded tables are small; anything beyond this is not one of ours.
const maxUploadSize = 32 << 20

type BackupHandler struct {
	backupService *service.BackupService
	logger        *zap.Logger
}

func NewBackupHandler(backupService *service.BackupService, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		logger:        logger,
	}
}

// ListSnapshots lists the snapshots of one table, or of every table when
// no table is given.
func (h *BackupHandler) ListSnapshots(c *gin.Context) {
	tables := storage.Tables
	if table := c.Query("table"); table != "" {
		tables = []string{table}
	}

	result := make(map[string][]backup.Snapshot, len(tables))
	for _, table := range tables {
		list, err := h.backupService.List(c.Request.Context(), table)
		if err != nil {
			h.fail(c, "failed to list snapshots", err)
			return
		}
		result[table] = list
	}

	response.Success(c, http.StatusOK, "snapshots retrieved", result)
}

// CreateSnapshot snapshots every table now.
func (h *BackupHandler) CreateSnapshot(c *gin.Context) {
	result, err := h.backupService.SnapshotAll(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to create snapshot", err)
		return
	}

	response.Success(c, http.StatusCreated, "snapshot created", result)
}

// Restore replaces a live table with one of its snapshots.
func (h *BackupHandler) Restore(c *gin.Context) {
	var req backup.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.backupService.Restore(c.Request.Context(), middleware.Actor(c), req.Table, req.Snapshot); err != nil {
		h.fail(c, "failed to restore table", err)
		return
	}

	response.Success(c, http.StatusOK, "table restored successfully", gin.H{
		"table":    req.Table,
		"snapshot": req.Snapshot,
	})
}

// Upload replaces a live table with an uploaded CSV file (form fields: table, file).
func (h *BackupHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	table := c.PostForm("table")
	if table == "" {
		response.Error(c, http.StatusBadRequest, "table is required", nil)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required", err)
		return
	}
	f, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}
	defer f.Close()

	filename := filepath.Base(header.Filename)
	if err := h.backupService.RestoreUpload(c.Request.Context(), middleware.Actor(c), table, filename, f); err != nil {
		h.fail(c, "failed to restore table", err)
		return
	}

	response.Success(c, http.StatusOK, "table restored successfully", gin.H{
		"table": table,
		"file":  filename,
	})
}

// Export downloads a live table as CSV.
func (h *BackupHandler) Export(c *gin.Context) {
	table := c.Param("table")
	data, err := h.backupService.Export(c.Request.Context(), table)
	if err != nil {
		h.fail(c, "failed to export table", err)
		return
	}

	response.CSVAttachment(c, table+".csv", data)
}

func (h *BackupHandler) fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, xerrors.ErrSnapshotNotFound):
		response.NotFound(c, message, err)
	case errors.Is(err, xerrors.ErrUnknownTable),
		errors.Is(err, xerrors.ErrHeaderMismatch),
		errors.Is(err, xerrors.ErrInvalidInput):
		response.ValidationError(c, message, err)
	default:
		h.logger.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}
