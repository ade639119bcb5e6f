// internal/repository/records/comment_repo.go
package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kunden-service/internal/domain/comment"
	"kunden-service/internal/storage"

	"go.uber.org/zap"
)

var commentCodec = codec[comment.Comment]{
	table:   storage.TableComments,
	columns: comment.Columns,
	parse:   comment.ParseRow,
	cells:   func(c *comment.Comment) []string { return c.Cells() },
	id: func(values map[string]string) int64 {
		id, _ := strconv.ParseInt(strings.TrimSpace(values[comment.ColCustomerID]), 10, 64)
		return id
	},
}

type CommentRepository struct {
	store  storage.TableStore
	logger *zap.Logger
}

func NewCommentRepository(store storage.TableStore, logger *zap.Logger) *CommentRepository {
	return &CommentRepository{store: store, logger: logger}
}

func (r *CommentRepository) Load(ctx context.Context) (*Loaded[comment.Comment], error) {
	t, err := r.store.ReadAll(ctx, storage.TableComments)
	if err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	l := commentCodec.decode(t)
	logRowErrors(r.logger, l.Errors)
	return l, nil
}

func (r *CommentRepository) Save(ctx context.Context, l *Loaded[comment.Comment]) error {
	if err := r.store.WriteAll(ctx, commentCodec.encode(l)); err != nil {
		return fmt.Errorf("failed to write comments: %w", err)
	}
	return nil
}

// RemoveCustomer drops every comment owned by customerID, including unreadable
// rows whose id column still names it. It reports how many rows went away.
func RemoveCustomer(l *Loaded[comment.Comment], customerID int64) int {
	removed := 0
	for i := len(l.Items) - 1; i >= 0; i-- {
		if l.Items[i].CustomerID == customerID {
			l.Remove(i)
			removed++
		}
	}

	broken := l.Broken[:0]
	for _, b := range l.Broken {
		if b.ID == customerID {
			removed++
			continue
		}
		broken = append(broken, b)
	}
	l.Broken = broken
	return removed
}
