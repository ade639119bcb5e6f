// internal/websocket/handler/customer.go
package handler

import (
	"context"
	"fmt"

	"kunden-service/internal/domain/comment"
	"kunden-service/internal/domain/customer"
	wstypes "kunden-service/internal/domain/websocket"
	ws "kunden-service/internal/websocket"

	"go.uber.org/zap"
)

// CustomerLister is the read side of the customer service.
type CustomerLister interface {
	ListCustomers(ctx context.Context, filters *customer.ListFilters) (*customer.CustomerListResponse, error)
}

// CommentLister is the read side of the comment log.
type CommentLister interface {
	ListFor(ctx context.Context, customerID int64) ([]comment.Comment, error)
}

// CustomerHandler answers filter and comment history queries sent over the socket.
type CustomerHandler struct {
	customers CustomerLister
	comments  CommentLister
	logger    *zap.Logger
}

func NewCustomerHandler(customers CustomerLister, comments CommentLister, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		comments:  comments,
		logger:    logger,
	}
}

func (h *CustomerHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeCustomerFilter,
		wstypes.EventTypeCustomerComments,
	}
}

func (h *CustomerHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeCustomerFilter:
		return h.handleFilter(ctx, client, msg)
	case wstypes.EventTypeCustomerComments:
		return h.handleComments(ctx, client, msg)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *CustomerHandler) handleFilter(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req customer.ListFilters
	if msg.Data != nil {
		if err := ws.DecodeData(msg.Data, &req); err != nil {
			client.SendError("invalid_request", "Invalid filter request", err.Error())
			return nil
		}
	}

	result, err := h.customers.ListCustomers(ctx, &req)
	if err != nil {
		h.logger.Error("websocket filter failed", zap.String("username", client.GetUsername()), zap.Error(err))
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeCustomerFilter, result))
	return nil
}

func (h *CustomerHandler) handleComments(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req struct {
		CustomerID int64 `json:"customer_id"`
	}
	if err := ws.DecodeData(msg.Data, &req); err != nil {
		client.SendError("invalid_request", "Invalid comments request", err.Error())
		return nil
	}
	if req.CustomerID <= 0 {
		client.SendError("invalid_request", "Invalid comments request", "customer_id is required")
		return nil
	}

	comments, err := h.comments.ListFor(ctx, req.CustomerID)
	if err != nil {
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeCustomerComments, map[string]interface{}{
		"customer_id": req.CustomerID,
		"comments":    comments,
	}))
	return nil
}
