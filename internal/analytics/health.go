package analytics

import (
	"math"
	"sort"

	"github.com/ignite/outreach-analytics/internal/domain"
)

// HealthWeights blends the five reputation factors into the composite score.
// Weights should sum to 1.0; Normalized() rescales them if they don't.
type HealthWeights struct {
	Deliverability float64 `yaml:"deliverability" json:"deliverability"`
	Spam           float64 `yaml:"spam" json:"spam"`
	Bounce         float64 `yaml:"bounce" json:"bounce"`
	Engagement     float64 `yaml:"engagement" json:"engagement"`
	Warmup         float64 `yaml:"warmup" json:"warmup"`
}

// DefaultHealthWeights is the production blend. Deliverability dominates
// because it is the factor ISPs weigh hardest; warmup and bounce trail since
// they already feed deliverability indirectly.
var DefaultHealthWeights = HealthWeights{
	Deliverability: 0.30,
	Spam:           0.20,
	Bounce:         0.15,
	Engagement:     0.20,
	Warmup:         0.15,
}

// spamPenaltyScale stretches the raw complaint ratio before inversion.
// Complaint rates live well below 5%, so an unscaled ratio would make the
// spam factor indistinguishable from 1.0 for every mailbox.
const spamPenaltyScale = 20.0

// Normalized returns weights rescaled to sum to 1.0. Zero or negative sums
// fall back to the defaults.
func (w HealthWeights) Normalized() HealthWeights {
	sum := w.Deliverability + w.Spam + w.Bounce + w.Engagement + w.Warmup
	if sum <= 0 {
		return DefaultHealthWeights
	}
	return HealthWeights{
		Deliverability: w.Deliverability / sum,
		Spam:           w.Spam / sum,
		Bounce:         w.Bounce / sum,
		Engagement:     w.Engagement / sum,
		Warmup:         w.Warmup / sum,
	}
}

// ScoreHealth computes reputation factors and the composite health score for
// one entity's aggregate plus its warmup progress percentage (0-100).
//
// The composite is monotone: higher deliverability, engagement, and warmup
// raise the score; higher spam and bounce ratios lower it. Output is bounded
// to [0,100] and rounded to one decimal.
func ScoreHealth(agg domain.AggregatedMetric, warmupProgress float64, w HealthWeights) domain.HealthMetrics {
	w = w.Normalized()

	h := domain.HealthMetrics{EntityID: agg.EntityID}

	if agg.Sent > 0 {
		delivered := float64(agg.Delivered) / float64(agg.Sent)
		bounced := float64(agg.Bounced) / float64(agg.Sent)
		h.DeliverabilityScore = math.Max(0, delivered-bounced)
		h.BounceScore = bounced
	}
	if agg.Delivered > 0 {
		h.SpamScore = float64(agg.SpamComplaints) / float64(agg.Delivered)
		// Replies count independently of opens, so this can exceed 1.
		// Reported as-is; only the composite clamps.
		h.EngagementScore = float64(agg.Opened+agg.Replied) / float64(agg.Delivered)
	}
	h.WarmupScore = clamp01(warmupProgress / 100)

	composite := w.Deliverability*clamp01(h.DeliverabilityScore) +
		w.Spam*(1-clamp01(h.SpamScore*spamPenaltyScale)) +
		w.Bounce*(1-clamp01(h.BounceScore)) +
		w.Engagement*clamp01(h.EngagementScore) +
		w.Warmup*h.WarmupScore

	h.HealthScore = math.Round(clamp01(composite)*1000) / 10
	return h
}

// ScoreHealthAll scores every aggregate and returns the results sorted by
// health score descending, tie-broken by entity id ascending for stable
// pagination. Entities missing from warmupProgress score 0 on the warmup
// factor.
func ScoreHealthAll(aggs []domain.AggregatedMetric, warmupProgress map[string]float64, w HealthWeights) []domain.HealthMetrics {
	out := make([]domain.HealthMetrics, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, ScoreHealth(agg, warmupProgress[agg.EntityID], w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HealthScore != out[j].HealthScore {
			return out[i].HealthScore > out[j].HealthScore
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
