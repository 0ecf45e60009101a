package domain

import (
	"fmt"
	"time"
)

// StepType enumerates the kinds of steps in an outreach sequence.
type StepType string

const (
	StepEmail  StepType = "email"
	StepWait   StepType = "wait"
	StepAction StepType = "action"
)

// Valid reports whether t is a known step type.
func (t StepType) Valid() bool {
	switch t {
	case StepEmail, StepWait, StepAction:
		return true
	}
	return false
}

// DateFormat is the day-granularity date layout used for metric rows.
const DateFormat = "2006-01-02"

// MetricRecord is one (entity, date) row of raw sending metrics. Exactly one
// record exists per entity per calendar date; a second write with the same
// key replaces the stored row.
//
// Counter invariants (delivered <= sent, opened <= delivered, ...) are
// enforced by the event producers. Readers trust the stored values.
type MetricRecord struct {
	ID        string `json:"id" db:"id"`
	EntityID  string `json:"entity_id" db:"entity_id"`
	ParentID  string `json:"parent_id" db:"parent_id"`
	CompanyID string `json:"company_id" db:"company_id"`
	Date      string `json:"date" db:"date"` // YYYY-MM-DD

	Sent           int `json:"sent" db:"sent"`
	Delivered      int `json:"delivered" db:"delivered"`
	Opened         int `json:"opened" db:"opened"`
	Clicked        int `json:"clicked" db:"clicked"`
	Replied        int `json:"replied" db:"replied"`
	Bounced        int `json:"bounced" db:"bounced"`
	Unsubscribed   int `json:"unsubscribed" db:"unsubscribed"`
	SpamComplaints int `json:"spam_complaints" db:"spam_complaints"`

	// Static step attributes. SequenceOrder is stable for an entity across
	// all of its dated rows.
	SequenceOrder int      `json:"sequence_order" db:"sequence_order"`
	StepType      StepType `json:"step_type" db:"step_type"`
	Subject       string   `json:"subject,omitempty" db:"subject"`
	WaitDuration  int      `json:"wait_duration,omitempty" db:"wait_duration"` // hours, wait steps only

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields a write must carry. Counter values are not
// range-checked here; that is the producer's contract.
func (m *MetricRecord) Validate() error {
	if m.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if m.ParentID == "" {
		return fmt.Errorf("parent_id is required")
	}
	if m.CompanyID == "" {
		return fmt.Errorf("company_id is required")
	}
	if _, err := time.Parse(DateFormat, m.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", m.Date)
	}
	if !m.StepType.Valid() {
		return fmt.Errorf("unknown step_type %q", m.StepType)
	}
	return nil
}

// DateRange is an inclusive day-granularity date window.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate rejects malformed or inverted ranges. Start must be strictly
// before End.
func (r DateRange) Validate() error {
	start, err := time.Parse(DateFormat, r.Start)
	if err != nil {
		return fmt.Errorf("start must be YYYY-MM-DD: %q", r.Start)
	}
	end, err := time.Parse(DateFormat, r.End)
	if err != nil {
		return fmt.Errorf("end must be YYYY-MM-DD: %q", r.End)
	}
	if !start.Before(end) {
		return fmt.Errorf("start %s must be before end %s", r.Start, r.End)
	}
	return nil
}

// RecordFilter selects metric rows for list and delete operations.
// Nil/empty fields are not applied.
type RecordFilter struct {
	CompanyID  string     `json:"company_id"`
	CampaignID string     `json:"campaign_id,omitempty"`
	StepIDs    []string   `json:"step_ids,omitempty"`
	DateRange  *DateRange `json:"date_range,omitempty"`
}

// DeleteFilter selects metric rows for deletion. At least one field must be
// set; deleting an entire company's rows by omission is not supported.
type DeleteFilter struct {
	EntityID string `json:"entity_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Empty reports whether no filter fields are set.
func (f DeleteFilter) Empty() bool {
	return f.EntityID == "" && f.ParentID == "" && f.Date == ""
}
