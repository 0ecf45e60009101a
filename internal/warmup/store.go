package warmup

import (
	"context"
	"database/sql"
	"fmt"
)

// Status enumerates warmup lifecycle states for a mailbox.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// State is one mailbox's warmup position.
type State struct {
	MailboxID string `json:"mailbox_id"`
	Day       int    `json:"day"`
	Status    Status `json:"status"`
}

// Progress converts the state into the 0-100 percentage the health scorer
// consumes. Completed mailboxes report 100 regardless of day; pending ones 0.
// A paused mailbox keeps reporting its reached day rather than dropping to
// zero.
func (s State) Progress() float64 {
	switch s.Status {
	case StatusCompleted:
		return 100
	case StatusPending:
		return 0
	case StatusActive, StatusPaused:
		return ProgressForDay(s.Day)
	default:
		return 0
	}
}

// Store reads warmup state from PostgreSQL (warmup_progress table, one row
// per company mailbox).
type Store struct{ db *sql.DB }

// NewStore creates a Postgres-backed warmup store.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// StatesFor returns every mailbox warmup state for a company.
func (s *Store) StatesFor(ctx context.Context, companyID string) ([]State, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mailbox_id, warmup_day, status
		FROM warmup_progress
		WHERE company_id = $1
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query warmup progress: %w", err)
	}
	defer rows.Close()

	var out []State
	for rows.Next() {
		var st State
		if err := rows.Scan(&st.MailboxID, &st.Day, &st.Status); err != nil {
			return nil, fmt.Errorf("scan warmup row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
