package driven

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// QueryLogStore keeps an append-only history of answered queries.
type QueryLogStore interface {
	// AppendQueryLog records one answered query.
	AppendQueryLog(ctx context.Context, entry *domain.QueryLog) error

	// ListQueryLogs returns the most recent entries, newest first.
	ListQueryLogs(ctx context.Context, limit int) ([]domain.QueryLog, error)
}
