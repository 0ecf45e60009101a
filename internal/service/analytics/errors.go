package analytics

import "errors"

// Sentinel errors for the analytics service layer.
var (
	ErrInvalidDateRange  = errors.New("invalid date range: start must be before end")
	ErrInvalidRecord     = errors.New("invalid metric record")
	ErrEmptyDeleteFilter = errors.New("delete filter must set at least one of entity_id, parent_id, date")
)
