package records

import (
	xerrors "kunden-service/internal/pkg/errors"

	"go.uber.org/zap"
)

func logRowErrors(logger *zap.Logger, errs xerrors.RowErrors) {
	for _, e := range errs {
		logger.Warn("skipping unreadable row",
			zap.String("table", e.Table),
			zap.Int("row", e.Row),
			zap.String("column", e.Column),
			zap.String("value", e.Value),
			zap.Error(e.Err),
		)
	}
}
