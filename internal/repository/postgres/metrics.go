package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/outreach-analytics/internal/domain"
)

// MetricsRepo implements analytics.Repository against PostgreSQL. Rows live
// in sequence_step_analytics, one per (entity_id, date), indexed by
// (company_id, date) and (entity_id, date).
type MetricsRepo struct{ db *sql.DB }

// NewMetricsRepo creates a Postgres-backed metrics repository.
func NewMetricsRepo(db *sql.DB) *MetricsRepo { return &MetricsRepo{db: db} }

const metricColumns = `
	id, entity_id, parent_id, company_id, to_char(date, 'YYYY-MM-DD'),
	sent, delivered, opened, clicked, replied, bounced, unsubscribed, spam_complaints,
	sequence_order, step_type, COALESCE(subject,''), COALESCE(wait_duration,0), updated_at`

func (r *MetricsRepo) List(ctx context.Context, f domain.RecordFilter) ([]domain.MetricRecord, error) {
	q := `SELECT` + metricColumns + `
		FROM sequence_step_analytics
		WHERE company_id = $1`
	args := []interface{}{f.CompanyID}
	idx := 2

	if f.CampaignID != "" {
		q += fmt.Sprintf(" AND parent_id = $%d", idx)
		args = append(args, f.CampaignID)
		idx++
	}
	if len(f.StepIDs) > 0 {
		q += fmt.Sprintf(" AND entity_id = ANY($%d)", idx)
		args = append(args, pq.Array(f.StepIDs))
		idx++
	}
	if f.DateRange != nil {
		q += fmt.Sprintf(" AND date >= $%d AND date <= $%d", idx, idx+1)
		args = append(args, f.DateRange.Start, f.DateRange.End)
		idx += 2
	}
	q += " ORDER BY sequence_order, entity_id, date"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list metric rows: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricRecord
	for rows.Next() {
		var m domain.MetricRecord
		if err := rows.Scan(
			&m.ID, &m.EntityID, &m.ParentID, &m.CompanyID, &m.Date,
			&m.Sent, &m.Delivered, &m.Opened, &m.Clicked, &m.Replied,
			&m.Bounced, &m.Unsubscribed, &m.SpamComplaints,
			&m.SequenceOrder, &m.StepType, &m.Subject, &m.WaitDuration, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Upsert writes one row keyed by (entity_id, date). The xmax = 0 check
// distinguishes a fresh insert from a conflict update.
func (r *MetricsRepo) Upsert(ctx context.Context, m *domain.MetricRecord) (string, bool, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	var id string
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sequence_step_analytics
			(id, entity_id, parent_id, company_id, date,
			 sent, delivered, opened, clicked, replied, bounced, unsubscribed, spam_complaints,
			 sequence_order, step_type, subject, wait_duration, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (entity_id, date) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			company_id = EXCLUDED.company_id,
			sent = EXCLUDED.sent,
			delivered = EXCLUDED.delivered,
			opened = EXCLUDED.opened,
			clicked = EXCLUDED.clicked,
			replied = EXCLUDED.replied,
			bounced = EXCLUDED.bounced,
			unsubscribed = EXCLUDED.unsubscribed,
			spam_complaints = EXCLUDED.spam_complaints,
			sequence_order = EXCLUDED.sequence_order,
			step_type = EXCLUDED.step_type,
			subject = EXCLUDED.subject,
			wait_duration = EXCLUDED.wait_duration,
			updated_at = NOW()
		RETURNING id, (xmax = 0)
	`, m.ID, m.EntityID, m.ParentID, m.CompanyID, m.Date,
		m.Sent, m.Delivered, m.Opened, m.Clicked, m.Replied,
		m.Bounced, m.Unsubscribed, m.SpamComplaints,
		m.SequenceOrder, string(m.StepType), nullIfEmpty(m.Subject), m.WaitDuration,
	).Scan(&id, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("upsert metric row: %w", err)
	}
	m.ID = id
	return id, inserted, nil
}

func (r *MetricsRepo) Delete(ctx context.Context, companyID string, f domain.DeleteFilter) ([]string, error) {
	q := `DELETE FROM sequence_step_analytics WHERE company_id = $1`
	args := []interface{}{companyID}
	idx := 2

	if f.EntityID != "" {
		q += fmt.Sprintf(" AND entity_id = $%d", idx)
		args = append(args, f.EntityID)
		idx++
	}
	if f.ParentID != "" {
		q += fmt.Sprintf(" AND parent_id = $%d", idx)
		args = append(args, f.ParentID)
		idx++
	}
	if f.Date != "" {
		q += fmt.Sprintf(" AND date = $%d", idx)
		args = append(args, f.Date)
		idx++
	}
	q += " RETURNING id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("delete metric rows: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
