package analytics

import (
	"github.com/ignite/outreach-analytics/internal/domain"
)

// Aggregate folds metric rows into one AggregatedMetric per distinct entity.
// Rows may arrive in any order; counters are summed field-wise and UpdatedAt
// is the max across contributing rows. The first row seen for an entity seeds
// its static attributes (step type, subject, wait duration, sequence order),
// which are stable per entity by contract.
//
// Output order is not meaningful; callers sort downstream. Empty input yields
// an empty slice. Counter values are trusted as-is — validation is the
// producer's job, not repeated here.
func Aggregate(records []domain.MetricRecord) []domain.AggregatedMetric {
	if len(records) == 0 {
		return []domain.AggregatedMetric{}
	}

	acc := make(map[string]*domain.AggregatedMetric, len(records))
	order := make([]string, 0, len(records))

	for i := range records {
		r := &records[i]
		a, ok := acc[r.EntityID]
		if !ok {
			acc[r.EntityID] = &domain.AggregatedMetric{
				EntityID:       r.EntityID,
				ParentID:       r.ParentID,
				Sent:           r.Sent,
				Delivered:      r.Delivered,
				Opened:         r.Opened,
				Clicked:        r.Clicked,
				Replied:        r.Replied,
				Bounced:        r.Bounced,
				Unsubscribed:   r.Unsubscribed,
				SpamComplaints: r.SpamComplaints,
				SequenceOrder:  r.SequenceOrder,
				StepType:       r.StepType,
				Subject:        r.Subject,
				WaitDuration:   r.WaitDuration,
				UpdatedAt:      r.UpdatedAt,
			}
			order = append(order, r.EntityID)
			continue
		}

		a.Sent += r.Sent
		a.Delivered += r.Delivered
		a.Opened += r.Opened
		a.Clicked += r.Clicked
		a.Replied += r.Replied
		a.Bounced += r.Bounced
		a.Unsubscribed += r.Unsubscribed
		a.SpamComplaints += r.SpamComplaints
		if r.UpdatedAt.After(a.UpdatedAt) {
			a.UpdatedAt = r.UpdatedAt
		}
	}

	out := make([]domain.AggregatedMetric, 0, len(acc))
	for _, id := range order {
		out = append(out, *acc[id])
	}
	return out
}
