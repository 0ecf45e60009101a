package analytics

import (
	"sort"

	"github.com/ignite/outreach-analytics/internal/domain"
)

// ComposeSteps orders one campaign's aggregates into a StepComparison
// sequence. Steps sort by sequence order ascending; ties break by entity id
// lexicographic ascending so pagination and conversion stay deterministic.
//
// Every input aggregate appears exactly once in the output.
func ComposeSteps(aggregates []domain.AggregatedMetric) []domain.StepComparison {
	if len(aggregates) == 0 {
		return []domain.StepComparison{}
	}

	ordered := make([]domain.AggregatedMetric, len(aggregates))
	copy(ordered, aggregates)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SequenceOrder != ordered[j].SequenceOrder {
			return ordered[i].SequenceOrder < ordered[j].SequenceOrder
		}
		return ordered[i].EntityID < ordered[j].EntityID
	})

	steps := make([]domain.StepComparison, len(ordered))
	for i, agg := range ordered {
		step := domain.StepComparison{
			AggregatedMetric: agg,
			IsFirstStep:      i == 0,
			IsLastStep:       i == len(ordered)-1,
		}

		if i > 0 {
			prev := ordered[i-1]
			switch agg.StepType {
			case domain.StepEmail:
				// Conversion is "scheduled the next email", so the
				// numerator is this step's sent, not its delivered.
				if prev.Delivered > 0 {
					step.ConversionFromPrevious = float64(agg.Sent) / float64(prev.Delivered)
				}
			case domain.StepWait, domain.StepAction:
				// Non-email steps have no send conversion.
			}
		}

		steps[i] = step
	}
	return steps
}
