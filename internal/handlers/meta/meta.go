// internal/handlers/meta/meta.go
package meta

import (
	"net/http"
	"time"

	"kunden-service/internal/domain/customer"
	"kunden-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type MetaHandler struct {
	backend string
	started time.Time
}

func NewMetaHandler(backend string, started time.Time) *MetaHandler {
	return &MetaHandler{backend: backend, started: started}
}

// Health is unauthenticated and only reports that the process serves requests.
func (h *MetaHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, "ok", gin.H{
		"storage": h.backend,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Vocabulary returns the products, statuses and tags the form offers.
func (h *MetaHandler) Vocabulary(c *gin.Context) {
	response.Success(c, http.StatusOK, "vocabulary retrieved", customer.DefaultVocabulary())
}
