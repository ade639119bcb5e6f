// internal/app/router.go
package app

import (
	auditHandler "kunden-service/internal/handlers/audit"
	authHandler "kunden-service/internal/handlers/auth"
	backupHandler "kunden-service/internal/handlers/backup"
	customerHandler "kunden-service/internal/handlers/customer"
	metaHandler "kunden-service/internal/handlers/meta"
	wsHandler "kunden-service/internal/handlers/websocket"
	"kunden-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	CustomerHandler *customerHandler.CustomerHandler
	AuditHandler    *auditHandler.AuditHandler
	BackupHandler   *backupHandler.BackupHandler
	MetaHandler     *metaHandler.MetaHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", h.MetaHandler.Health)

	// ==================== WebSocket ====================
	// authenticates itself from the token query parameter
	api.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	api.POST("/auth/login", h.AuthHandler.Login)

	protected := api.Group("")
	protected.Use(h.AuthMiddleware.Auth())

	// ==================== Authenticated Auth Routes ====================
	authProtected := protected.Group("/auth")
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Meta ====================
	protected.GET("/meta/vocabulary", h.MetaHandler.Vocabulary)
	protected.GET("/ws/stats", h.WSHandler.GetStats)

	// ==================== Customers ====================
	customers := protected.Group("/customers")
	{
		customers.GET("", h.CustomerHandler.ListCustomers)
		customers.POST("", h.CustomerHandler.CreateCustomer)
		customers.GET("/:id", h.CustomerHandler.GetCustomer)
		customers.PUT("/:id", h.CustomerHandler.UpdateCustomer)
		customers.DELETE("/:id", h.CustomerHandler.DeleteCustomer)

		customers.POST("/:id/tags", h.CustomerHandler.AddTag)
		customers.DELETE("/:id/tags", h.CustomerHandler.RemoveTag)

		customers.GET("/:id/comments", h.CustomerHandler.ListComments)
		customers.POST("/:id/comments", h.CustomerHandler.AddComment)
	}

	// ==================== Audit Log ====================
	protected.GET("/audit", h.AuditHandler.ListEntries)

	// ==================== Backups ====================
	backups := protected.Group("/backups")
	{
		backups.GET("", h.BackupHandler.ListSnapshots)
		backups.POST("", h.BackupHandler.CreateSnapshot)
		backups.POST("/restore", h.BackupHandler.Restore)
		backups.POST("/upload", h.BackupHandler.Upload)
	}
	protected.GET("/export/:table", h.BackupHandler.Export)
}
