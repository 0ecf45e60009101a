// Package analytics implements the in-memory rollup pipeline over raw metric
// rows: aggregation by entity, sequence/step composition, funnel attrition,
// and mailbox health scoring.
//
// Everything here is pure computation. Functions take fully fetched rows and
// return derived values owned by the caller; no I/O, no shared state, safe
// for concurrent use. Data access lives in service/analytics and
// repository/postgres.
package analytics
