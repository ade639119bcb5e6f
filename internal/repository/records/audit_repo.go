// internal/repository/records/audit_repo.go
package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/storage"

	"go.uber.org/zap"
)

var auditCodec = codec[audit.Entry]{
	table:   storage.TableAudit,
	columns: audit.Columns,
	parse:   audit.ParseRow,
	cells:   func(e *audit.Entry) []string { return e.Cells() },
	id: func(values map[string]string) int64 {
		id, _ := strconv.ParseInt(strings.TrimSpace(values[audit.ColCustomerID]), 10, 64)
		return id
	},
}

type AuditRepository struct {
	store  storage.TableStore
	logger *zap.Logger
}

func NewAuditRepository(store storage.TableStore, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{store: store, logger: logger}
}

func (r *AuditRepository) Load(ctx context.Context) (*Loaded[audit.Entry], error) {
	t, err := r.store.ReadAll(ctx, storage.TableAudit)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	l := auditCodec.decode(t)
	logRowErrors(r.logger, l.Errors)
	return l, nil
}

// Append adds e and rewrites the table.
func (r *AuditRepository) Append(ctx context.Context, e audit.Entry) error {
	l, err := r.Load(ctx)
	if err != nil {
		return err
	}
	l.Items = append(l.Items, e)
	if err := r.store.WriteAll(ctx, auditCodec.encode(l)); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
