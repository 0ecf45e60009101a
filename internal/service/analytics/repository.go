package analytics

import (
	"context"

	"github.com/ignite/outreach-analytics/internal/domain"
)

// Repository defines the data access contract for metric rows.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns raw metric rows matching the filter, ordered by
	// (sequence_order, entity_id, date). Unknown ids yield empty results,
	// not errors.
	List(ctx context.Context, f domain.RecordFilter) ([]domain.MetricRecord, error)

	// Upsert writes one row keyed by (entity_id, date): it replaces a
	// matching row or inserts a new one. Returns the row id and whether
	// the write inserted (vs. updated).
	Upsert(ctx context.Context, rec *domain.MetricRecord) (string, bool, error)

	// Delete removes all rows within the company matching the filter and
	// returns the removed ids.
	Delete(ctx context.Context, companyID string, f domain.DeleteFilter) ([]string, error)
}

// WarmupProvider supplies the externally tracked warmup progress percentage
// (0-100) per mailbox entity. Entities with no warmup record are simply
// absent from the returned map.
type WarmupProvider interface {
	ProgressFor(ctx context.Context, companyID string, entityIDs []string) (map[string]float64, error)
}
