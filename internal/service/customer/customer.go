// internal/service/customer/customer.go
package customer

import (
	"context"
	"fmt"
	"strings"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/domain/backup"
	"kunden-service/internal/domain/comment"
	"kunden-service/internal/domain/customer"
	wstypes "kunden-service/internal/domain/websocket"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/repository/records"
	auditsvc "kunden-service/internal/service/audit"
	commentsvc "kunden-service/internal/service/comment"
	"kunden-service/internal/storage"

	"go.uber.org/zap"
)

// Snapshotter copies tables after a successful mutation.
type Snapshotter interface {
	SnapshotTables(ctx context.Context, tables ...string) (*backup.SnapshotResult, error)
}

type CustomerService struct {
	customerRepo *records.CustomerRepository
	sequenceRepo *records.SequenceRepository
	comments     *commentsvc.CommentService
	audit        *auditsvc.AuditService
	snapshotter  Snapshotter
	locks        *storage.TableLocks
	publisher    wstypes.Publisher
	logger       *zap.Logger
}

// NewCustomerService wires the record store. snapshotter may be nil, which
// disables snapshots on write.
func NewCustomerService(
	customerRepo *records.CustomerRepository,
	sequenceRepo *records.SequenceRepository,
	comments *commentsvc.CommentService,
	audit *auditsvc.AuditService,
	snapshotter Snapshotter,
	locks *storage.TableLocks,
	publisher wstypes.Publisher,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		sequenceRepo: sequenceRepo,
		comments:     comments,
		audit:        audit,
		snapshotter:  snapshotter,
		locks:        locks,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateCustomer validates req, assigns the next identifier and appends the row.
// A first+last name already in the table yields ErrDuplicateName and no write.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor string, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, xerrors.Invalid("%v", err)
	}

	unlock := s.locks.Lock(storage.TableCustomers)
	defer unlock()

	l, err := s.customerRepo.Load(ctx)
	if err != nil {
		return nil, err
	}

	key := customer.NameKey(req.FirstName, req.LastName)
	if nameTaken(l, key) {
		s.logger.Info("duplicate customer name rejected",
			zap.String("first_name", req.FirstName),
			zap.String("last_name", req.LastName),
			zap.String("actor", actor),
		)
		return nil, fmt.Errorf("%w: %s %s", xerrors.ErrDuplicateName, req.FirstName, req.LastName)
	}

	id, err := s.issueID(ctx, l)
	if err != nil {
		return nil, err
	}

	c := req.ToCustomer()
	c.ID = id
	l.Items = append(l.Items, c)

	if err := s.customerRepo.Save(ctx, l); err != nil {
		s.logger.Error("failed to create customer", zap.Error(err))
		return nil, err
	}

	s.logger.Info("customer created",
		zap.Int64("customer_id", c.ID),
		zap.String("name", c.FullName()),
		zap.String("actor", actor),
	)

	s.record(ctx, actor, audit.ActionCreated, c.ID, "")

	touched := []string{storage.TableCustomers, storage.TableSequences, storage.TableAudit}
	if strings.TrimSpace(req.Comment) != "" {
		if _, err := s.comments.Append(ctx, actor, c.ID, req.Comment); err != nil {
			s.logger.Warn("failed to store initial comment", zap.Int64("customer_id", c.ID), zap.Error(err))
		} else {
			touched = append(touched, storage.TableComments)
		}
	}
	s.snapshot(ctx, touched...)
	s.publish(wstypes.EventTypeCustomerCreated, actor, c.ID, c)

	return &c, nil
}

// GetCustomer returns one customer by identifier.
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*customer.Customer, error) {
	l, err := s.customerRepo.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := records.FindByID(l, id)
	if idx < 0 {
		return nil, xerrors.ErrNotFound
	}
	c := l.Items[idx]
	return &c, nil
}

// ListCustomers returns the table in file order, narrowed by filters.
func (s *CustomerService) ListCustomers(ctx context.Context, filters *customer.ListFilters) (*customer.CustomerListResponse, error) {
	l, err := s.customerRepo.Load(ctx)
	if err != nil {
		return nil, err
	}

	var tags []string
	var products []customer.Product
	if filters != nil {
		tags = filters.Tags
		for _, p := range filters.Products {
			products = append(products, customer.Product(p))
		}
	}
	filtered := Filter(l.Items, tags, products)

	return &customer.CustomerListResponse{
		Customers: filtered,
		Total:     len(l.Items),
		Filtered:  len(filtered),
		Warnings:  l.Warnings(),
	}, nil
}

// UpdateCustomer replaces the supplied fields of customer id and leaves the
// others untouched. The audit detail lists what actually changed.
func (s *CustomerService) UpdateCustomer(ctx context.Context, actor string, id int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	return s.update(ctx, actor, id, func(customer.Customer) *customer.UpdateCustomerRequest { return req })
}

// update runs one locked read-modify-write; build derives the change from the
// row as currently stored.
func (s *CustomerService) update(ctx context.Context, actor string, id int64, build func(current customer.Customer) *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	unlock := s.locks.Lock(storage.TableCustomers)
	defer unlock()

	l, err := s.customerRepo.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := records.FindByID(l, id)
	if idx < 0 {
		return nil, xerrors.ErrNotFound
	}

	before := l.Items[idx].Values()
	cols, err := build(l.Items[idx]).Apply(&l.Items[idx])
	if err != nil {
		return nil, xerrors.Invalid("%v", err)
	}
	c := l.Items[idx]

	if err := s.customerRepo.Save(ctx, l); err != nil {
		s.logger.Error("failed to update customer", zap.Int64("customer_id", id), zap.Error(err))
		return nil, err
	}

	detail := auditsvc.Diff(before, c.Values(), cols)
	s.logger.Info("customer updated",
		zap.Int64("customer_id", id),
		zap.String("changes", detail),
		zap.String("actor", actor),
	)

	s.record(ctx, actor, audit.ActionEdited, id, detail)
	s.snapshot(ctx, storage.TableCustomers, storage.TableAudit)
	s.publish(wstypes.EventTypeCustomerUpdated, actor, id, c)

	return &c, nil
}

// DeleteCustomer removes customer id and every comment it owns. Audit
// entries naming the id are kept.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor string, id int64) error {
	unlock := s.locks.Lock(storage.TableCustomers)
	defer unlock()

	l, err := s.customerRepo.Load(ctx)
	if err != nil {
		return err
	}
	idx := records.FindByID(l, id)
	if idx < 0 {
		return xerrors.ErrNotFound
	}

	removed := l.Items[idx]
	l.Remove(idx)

	if err := s.customerRepo.Save(ctx, l); err != nil {
		s.logger.Error("failed to delete customer", zap.Int64("customer_id", id), zap.Error(err))
		return err
	}

	// the customer is gone from here on; a failed cascade leaves orphaned
	// comments behind but must not hide the deletion
	touched := []string{storage.TableCustomers, storage.TableAudit}
	n, err := s.comments.DeleteForCustomer(ctx, id)
	if err != nil {
		s.logger.Warn("comments of removed customer kept",
			zap.Int64("customer_id", id),
			zap.Error(err),
		)
	} else if n > 0 {
		touched = append(touched, storage.TableComments)
	}

	s.logger.Info("customer deleted",
		zap.Int64("customer_id", id),
		zap.Int("comments_removed", n),
		zap.String("actor", actor),
	)

	s.record(ctx, actor, audit.ActionDeleted, id, removed.FullName())
	s.snapshot(ctx, touched...)
	s.publish(wstypes.EventTypeCustomerDeleted, actor, id, nil)

	return nil
}

// AddComment appends text to the comment log of customer id. The customers
// lock is held across the existence check so a concurrent delete cannot
// orphan the comment. Blank text returns nil and writes nothing.
func (s *CustomerService) AddComment(ctx context.Context, actor string, id int64, text string) (*comment.Comment, error) {
	unlock := s.locks.Lock(storage.TableCustomers)
	defer unlock()

	l, err := s.customerRepo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if records.FindByID(l, id) < 0 {
		return nil, xerrors.ErrNotFound
	}

	c, err := s.comments.Append(ctx, actor, id, text)
	if err != nil || c == nil {
		return c, err
	}
	s.snapshot(ctx, storage.TableComments)
	return c, nil
}

// AddTag adds tag to customer id; an existing tag is left in place.
func (s *CustomerService) AddTag(ctx context.Context, actor string, id int64, tag string) (*customer.Customer, error) {
	tag = strings.TrimSpace(tag)
	return s.update(ctx, actor, id, func(current customer.Customer) *customer.UpdateCustomerRequest {
		tags := append([]string{}, current.Tags...)
		if !current.HasTag(tag) {
			tags = append(tags, tag)
		}
		return &customer.UpdateCustomerRequest{Tags: &tags}
	})
}

// RemoveTag drops tag from customer id.
func (s *CustomerService) RemoveTag(ctx context.Context, actor string, id int64, tag string) (*customer.Customer, error) {
	tag = strings.TrimSpace(tag)
	return s.update(ctx, actor, id, func(current customer.Customer) *customer.UpdateCustomerRequest {
		tags := make([]string, 0, len(current.Tags))
		for _, t := range current.Tags {
			if t != tag {
				tags = append(tags, t)
			}
		}
		return &customer.UpdateCustomerRequest{Tags: &tags}
	})
}

// issueID picks the next identifier and persists it as the high-water mark
// before the row is saved, so a failed save can only burn an id. The
// sequences lock keeps a concurrent restore from overwriting the mark.
func (s *CustomerService) issueID(ctx context.Context, l *records.Loaded[customer.Customer]) (int64, error) {
	unlock := s.locks.Lock(storage.TableSequences)
	defer unlock()

	id, err := s.nextID(ctx, l)
	if err != nil {
		return 0, err
	}
	if err := s.sequenceRepo.Set(ctx, storage.TableCustomers, id); err != nil {
		return 0, err
	}
	return id, nil
}

// nextID is one past the largest identifier ever issued, counting unreadable
// rows and the persisted high-water mark.
func (s *CustomerService) nextID(ctx context.Context, l *records.Loaded[customer.Customer]) (int64, error) {
	max := l.MaxBrokenID()
	for _, c := range l.Items {
		if c.ID > max {
			max = c.ID
		}
	}
	hw, err := s.sequenceRepo.Get(ctx, storage.TableCustomers)
	if err != nil {
		return 0, err
	}
	if hw > max {
		max = hw
	}
	return max + 1, nil
}

func nameTaken(l *records.Loaded[customer.Customer], key string) bool {
	for i := range l.Items {
		if l.Items[i].NameKey() == key {
			return true
		}
	}
	for _, b := range l.Broken {
		if customer.NameKey(b.Values[customer.ColFirstName], b.Values[customer.ColLastName]) == key {
			return true
		}
	}
	return false
}

// record writes the audit entry. The mutation already happened, so a failure
// here is logged, not returned.
func (s *CustomerService) record(ctx context.Context, actor string, action audit.Action, id int64, detail string) {
	if _, err := s.audit.Record(ctx, actor, action, id, detail); err != nil {
		s.logger.Warn("audit entry lost", zap.Int64("customer_id", id), zap.Error(err))
	}
}

func (s *CustomerService) snapshot(ctx context.Context, tables ...string) {
	if s.snapshotter == nil {
		return
	}
	if _, err := s.snapshotter.SnapshotTables(ctx, tables...); err != nil {
		s.logger.Warn("snapshot after write failed", zap.Strings("tables", tables), zap.Error(err))
	}
}

func (s *CustomerService) publish(event wstypes.EventType, actor string, id int64, record interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event, &wstypes.RecordEventData{CustomerID: id, Actor: actor, Record: record})
}
