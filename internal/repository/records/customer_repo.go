// internal/repository/records/customer_repo.go
package records

import (
	"context"
	"errors"
	"fmt"

	"kunden-service/internal/domain/customer"
	"kunden-service/internal/storage"

	"go.uber.org/zap"
)

var customerCodec = codec[customer.Customer]{
	table:   storage.TableCustomers,
	columns: customer.Columns,
	parse: func(header, cells []string) (customer.Customer, string, error) {
		c, err := customer.ParseRow(header, cells)
		if err != nil {
			var fe *customer.FieldError
			if errors.As(err, &fe) {
				return customer.Customer{}, fe.Column, fe.Err
			}
			return customer.Customer{}, "", err
		}
		return c, "", nil
	},
	cells: func(c *customer.Customer) []string { return c.Cells(customer.Columns) },
	id: func(values map[string]string) int64 {
		id, _ := customer.ParseID(values[customer.ColID])
		return id
	},
}

type CustomerRepository struct {
	store  storage.TableStore
	logger *zap.Logger
}

func NewCustomerRepository(store storage.TableStore, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{store: store, logger: logger}
}

// Load reads the customers table in file order.
func (r *CustomerRepository) Load(ctx context.Context) (*Loaded[customer.Customer], error) {
	t, err := r.store.ReadAll(ctx, storage.TableCustomers)
	if err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	l := customerCodec.decode(t)
	logRowErrors(r.logger, l.Errors)
	return l, nil
}

// Save rewrites the whole customers table.
func (r *CustomerRepository) Save(ctx context.Context, l *Loaded[customer.Customer]) error {
	if err := r.store.WriteAll(ctx, customerCodec.encode(l)); err != nil {
		return fmt.Errorf("failed to write customers: %w", err)
	}
	return nil
}

// FindByID returns the position of id in l.Items, or -1.
func FindByID(l *Loaded[customer.Customer], id int64) int {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}
