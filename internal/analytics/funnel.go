package analytics

import (
	"github.com/ignite/outreach-analytics/internal/domain"
)

// BuildFunnel restricts an ordered step sequence to its email steps and
// computes attrition relative to the first retained step.
//
// StepIndex is the 0-based position within the filtered funnel, not the
// original sequence. DropoffFromPrevious is an absolute delta and may be
// negative when sends grow between steps; it is never clamped.
func BuildFunnel(campaignID string, steps []domain.StepComparison) domain.FunnelReport {
	report := domain.FunnelReport{
		CampaignID:  campaignID,
		FunnelSteps: []domain.FunnelStep{},
	}

	var funnel []domain.StepComparison
	for _, s := range steps {
		switch s.StepType {
		case domain.StepEmail:
			funnel = append(funnel, s)
		case domain.StepWait, domain.StepAction:
			// Excluded: wait/action steps don't send and would read as
			// total attrition.
		}
	}
	if len(funnel) == 0 {
		return report
	}

	first := funnel[0]
	report.TotalSteps = len(funnel)

	for i, s := range funnel {
		fs := domain.FunnelStep{
			AggregatedMetric: s.AggregatedMetric,
			StepIndex:        i,
		}
		if first.Sent > 0 {
			fs.RetentionFromFirst = float64(s.Sent) / float64(first.Sent)
		}
		if i > 0 {
			prev := funnel[i-1]
			fs.DropoffFromPrevious = prev.Sent - s.Sent
			if prev.Sent > 0 {
				fs.DropoffRate = float64(fs.DropoffFromPrevious) / float64(prev.Sent)
			}
		}
		report.FunnelSteps = append(report.FunnelSteps, fs)
	}

	last := funnel[len(funnel)-1]
	if first.Sent > 0 {
		report.OverallConversion = float64(last.Delivered) / float64(first.Sent)
	}
	return report
}
