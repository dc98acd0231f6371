package driving

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// QueryService answers questions over indexed documents.
type QueryService interface {
	// Query runs the full pipeline: route, retrieve, re-rank, draft,
	// verify. It degrades rather than fails: missing services and
	// provider errors produce a best-effort answer, never an error
	// beyond input validation.
	Query(ctx context.Context, query string, opts domain.QueryOptions) (*domain.QueryResult, error)
}
