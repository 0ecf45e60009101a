package domain

import "time"

// AggregatedMetric is the sum of one entity's counters across all of its
// dated rows. Derived per request, never persisted.
type AggregatedMetric struct {
	EntityID string `json:"entity_id"`
	ParentID string `json:"parent_id"`

	Sent           int `json:"sent"`
	Delivered      int `json:"delivered"`
	Opened         int `json:"opened"`
	Clicked        int `json:"clicked"`
	Replied        int `json:"replied"`
	Bounced        int `json:"bounced"`
	Unsubscribed   int `json:"unsubscribed"`
	SpamComplaints int `json:"spam_complaints"`

	SequenceOrder int      `json:"sequence_order"`
	StepType      StepType `json:"step_type"`
	Subject       string   `json:"subject,omitempty"`
	WaitDuration  int      `json:"wait_duration,omitempty"`

	// Max UpdatedAt of the contributing rows.
	UpdatedAt time.Time `json:"updated_at"`
}

// StepComparison is an AggregatedMetric placed in sequence order with its
// step-to-step conversion.
type StepComparison struct {
	AggregatedMetric

	// Fraction of contacts who received the previous email that this step
	// was scheduled for: current.sent / previous.delivered. Measured from
	// sent (not delivered) because conversion means scheduling the next
	// step, not its eventual delivery.
	ConversionFromPrevious float64 `json:"conversion_from_previous"`
	IsFirstStep            bool    `json:"is_first_step"`
	IsLastStep             bool    `json:"is_last_step"`
}

// FunnelStep is an email-type step analyzed for attrition relative to the
// first email step of its sequence.
type FunnelStep struct {
	AggregatedMetric

	StepIndex          int     `json:"step_index"` // position within the funnel, 0-based
	RetentionFromFirst float64 `json:"retention_from_first"`
	// Absolute sends lost versus the previous funnel step. Negative when
	// sends grow between steps (re-entry flows); never clamped.
	DropoffFromPrevious int     `json:"dropoff_from_previous"`
	DropoffRate         float64 `json:"dropoff_rate"`
}

// FunnelReport is the full funnel view for one campaign.
type FunnelReport struct {
	CampaignID        string       `json:"campaign_id"`
	TotalSteps        int          `json:"total_steps"`
	FunnelSteps       []FunnelStep `json:"funnel_steps"`
	OverallConversion float64      `json:"overall_conversion"`
}

// HealthMetrics holds per-mailbox reputation factors and the composite
// health score for one entity.
type HealthMetrics struct {
	EntityID string `json:"entity_id"`

	DeliverabilityScore float64 `json:"deliverability_score"`
	SpamScore           float64 `json:"spam_score"`
	BounceScore         float64 `json:"bounce_score"`
	EngagementScore     float64 `json:"engagement_score"`
	WarmupScore         float64 `json:"warmup_score"`

	// 0-100, one decimal.
	HealthScore float64 `json:"health_score"`
}
