// internal/handlers/customer/customer.go
package customer

import (
	"errors"
	"net/http"
	"strconv"

	"kunden-service/internal/domain/comment"
	"kunden-service/internal/domain/customer"
	"kunden-service/internal/middleware"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/pkg/response"
	commentsvc "kunden-service/internal/service/comment"
	service "kunden-service/internal/service/customer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	commentService  *commentsvc.CommentService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, commentService *commentsvc.CommentService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		commentService:  commentService,
		logger:          logger,
	}
}

// CreateCustomer creates a new customer
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.CreateCustomer(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		if errors.Is(err, xerrors.ErrDuplicateName) {
			response.Warning(c, http.StatusConflict, "customer not created", err.Error())
			return
		}
		h.fail(c, "failed to create customer", err)
		return
	}

	response.Success(c, http.StatusCreated, "customer created successfully", result)
}

// GetCustomer retrieves a customer by ID
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	result, err := h.customerService.GetCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.fail(c, "failed to get customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", result)
}

// ListCustomers retrieves customers with tag and product filters
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}
	filters.Tags = splitCSV(filters.Tags)
	filters.Products = splitCSV(filters.Products)

	result, err := h.customerService.ListCustomers(c.Request.Context(), &filters)
	if err != nil {
		h.fail(c, "failed to list customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// UpdateCustomer replaces the supplied fields of a customer
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req customer.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.UpdateCustomer(c.Request.Context(), middleware.Actor(c), customerID, &req)
	if err != nil {
		h.fail(c, "failed to update customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer updated successfully", result)
}

// DeleteCustomer removes a customer and its comments
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), middleware.Actor(c), customerID); err != nil {
		h.fail(c, "failed to delete customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer deleted successfully", nil)
}

// AddTag adds a tag to a customer
func (h *CustomerHandler) AddTag(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req customer.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.AddTag(c.Request.Context(), middleware.Actor(c), customerID, req.Tag)
	if err != nil {
		h.fail(c, "failed to add tag", err)
		return
	}

	response.Success(c, http.StatusOK, "tag added successfully", result)
}

// RemoveTag removes a tag from a customer
func (h *CustomerHandler) RemoveTag(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	tag := c.Query("tag")
	if tag == "" {
		response.Error(c, http.StatusBadRequest, "tag is required", nil)
		return
	}

	result, err := h.customerService.RemoveTag(c.Request.Context(), middleware.Actor(c), customerID, tag)
	if err != nil {
		h.fail(c, "failed to remove tag", err)
		return
	}

	response.Success(c, http.StatusOK, "tag removed successfully", result)
}

// ListComments returns the comment history of a customer, newest first
func (h *CustomerHandler) ListComments(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListFor(c.Request.Context(), customerID)
	if err != nil {
		h.fail(c, "failed to list comments", err)
		return
	}

	response.Success(c, http.StatusOK, "comments retrieved", comments)
}

// AddComment appends a comment to an existing customer
func (h *CustomerHandler) AddComment(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req comment.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.AddComment(c.Request.Context(), middleware.Actor(c), customerID, req.Text)
	if err != nil {
		h.fail(c, "failed to add comment", err)
		return
	}
	if result == nil {
		response.Error(c, http.StatusBadRequest, "comment is empty", nil)
		return
	}

	response.Success(c, http.StatusCreated, "comment added successfully", result)
}

// fail maps service errors to HTTP statuses.
func (h *CustomerHandler) fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, "customer not found", err)
	case errors.Is(err, xerrors.ErrInvalidInput):
		response.ValidationError(c, message, err)
	case errors.Is(err, xerrors.ErrDuplicateName):
		response.Warning(c, http.StatusConflict, message, err.Error())
	default:
		h.logger.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}

func customerIDParam(c *gin.Context) (int64, bool) {
	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || customerID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return 0, false
	}
	return customerID, true
}
