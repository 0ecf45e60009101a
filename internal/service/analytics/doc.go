// Package analytics implements the query surface over raw metric rows.
//
// The service layer validates filters, fetches rows through the Repository
// interface, and runs the rollup pipeline (internal/analytics) per request.
// It holds no mutable state between calls: every aggregation operates on
// freshly fetched rows and its derived values are owned by the caller.
// It depends on repository interfaces defined in this package and should
// never import from api/.
//
// Repository implementations live in repository/postgres.
package analytics
