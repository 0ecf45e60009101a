package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/outreach-analytics/internal/analytics"
	"github.com/ignite/outreach-analytics/internal/domain"
)

// healthWindowDays is the fixed lookback for mailbox health scoring.
const healthWindowDays = 30

// Service implements the analytics query surface. It coordinates between the
// repository layer and the rollup pipeline. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe; nothing is
// cached or shared between calls.
type Service struct {
	repo    Repository
	warmup  WarmupProvider
	weights analytics.HealthWeights

	now func() time.Time // injectable for tests
}

// NewService creates an analytics service backed by the given repository and
// warmup provider. Zero weights fall back to the default blend.
func NewService(repo Repository, warmup WarmupProvider, weights analytics.HealthWeights) *Service {
	return &Service{
		repo:    repo,
		warmup:  warmup,
		weights: weights.Normalized(),
		now:     time.Now,
	}
}

// ListRecords returns raw metric rows after filter application. No
// aggregation is performed.
func (s *Service) ListRecords(ctx context.Context, f domain.RecordFilter) ([]domain.MetricRecord, error) {
	if err := validateRange(f.DateRange); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

// AggregatedSteps aggregates one campaign's rows and orders them into a step
// comparison sequence.
func (s *Service) AggregatedSteps(ctx context.Context, companyID, campaignID string, dr *domain.DateRange) ([]domain.StepComparison, error) {
	if err := validateRange(dr); err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, domain.RecordFilter{
		CompanyID:  companyID,
		CampaignID: campaignID,
		DateRange:  dr,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch campaign rows: %w", err)
	}
	return analytics.ComposeSteps(analytics.Aggregate(records)), nil
}

// Funnel runs the full pipeline for one campaign: aggregate, compose, then
// restrict to email steps and compute attrition.
func (s *Service) Funnel(ctx context.Context, companyID, campaignID string, dr *domain.DateRange) (domain.FunnelReport, error) {
	steps, err := s.AggregatedSteps(ctx, companyID, campaignID, dr)
	if err != nil {
		return domain.FunnelReport{}, err
	}
	return analytics.BuildFunnel(campaignID, steps), nil
}

// HealthMetrics scores mailbox health over a fixed 30-day window, joining
// aggregated counters with the warmup progress signal. entityIDs narrows the
// scope; empty means every entity with rows in the window.
func (s *Service) HealthMetrics(ctx context.Context, companyID string, entityIDs []string) ([]domain.HealthMetrics, error) {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -healthWindowDays)

	records, err := s.repo.List(ctx, domain.RecordFilter{
		CompanyID: companyID,
		StepIDs:   entityIDs,
		DateRange: &domain.DateRange{
			Start: start.Format(domain.DateFormat),
			End:   end.Format(domain.DateFormat),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch health window: %w", err)
	}

	aggs := analytics.Aggregate(records)

	ids := make([]string, 0, len(aggs))
	for _, a := range aggs {
		ids = append(ids, a.EntityID)
	}
	progress, err := s.warmup.ProgressFor(ctx, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch warmup progress: %w", err)
	}

	return analytics.ScoreHealthAll(aggs, progress, s.weights), nil
}

// Upsert writes one metric row keyed by (entity_id, date). A second write
// with the same key and content leaves the stored state unchanged apart from
// updated_at.
func (s *Service) Upsert(ctx context.Context, rec *domain.MetricRecord) (UpsertResult, error) {
	if err := rec.Validate(); err != nil {
		return UpsertResult{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	id, inserted, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s/%s: %w", rec.EntityID, rec.Date, err)
	}
	return UpsertResult{ID: id, EntityID: rec.EntityID, Date: rec.Date, Inserted: inserted}, nil
}

// BatchUpsert applies Upsert per record. The batch is not atomic: failures
// partway leave prior writes committed, and every record's outcome is
// reported individually.
func (s *Service) BatchUpsert(ctx context.Context, records []domain.MetricRecord) BatchResult {
	var out BatchResult
	for i := range records {
		res, err := s.Upsert(ctx, &records[i])
		if err != nil {
			out.Failed = append(out.Failed, BatchFailure{
				EntityID: records[i].EntityID,
				Date:     records[i].Date,
				Error:    err.Error(),
			})
			continue
		}
		if res.Inserted {
			out.Inserted = append(out.Inserted, res.ID)
		} else {
			out.Updated = append(out.Updated, res.ID)
		}
	}
	if len(out.Failed) > 0 {
		log.Printf("[analytics.Service] batch upsert: %d inserted, %d updated, %d failed",
			len(out.Inserted), len(out.Updated), len(out.Failed))
	}
	return out
}

// Delete removes all rows matching the filter and returns the removed ids.
// An empty filter is rejected rather than wiping the company's rows.
func (s *Service) Delete(ctx context.Context, companyID string, f domain.DeleteFilter) ([]string, error) {
	if f.Empty() {
		return nil, ErrEmptyDeleteFilter
	}
	ids, err := s.repo.Delete(ctx, companyID, f)
	if err != nil {
		return nil, fmt.Errorf("delete rows: %w", err)
	}
	if len(ids) > 0 {
		log.Printf("[analytics.Service] deleted %d metric rows (company %s)", len(ids), companyID)
	}
	return ids, nil
}

func validateRange(dr *domain.DateRange) error {
	if dr == nil {
		return nil
	}
	if err := dr.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	return nil
}

// UpsertResult reports the outcome of a single row write.
type UpsertResult struct {
	ID       string `json:"id"`
	EntityID string `json:"entity_id"`
	Date     string `json:"date"`
	Inserted bool   `json:"inserted"`
}

// BatchFailure describes one record that could not be written.
type BatchFailure struct {
	EntityID string `json:"entity_id"`
	Date     string `json:"date"`
	Error    string `json:"error"`
}

// BatchResult lists the per-record outcomes of a batch write.
type BatchResult struct {
	Inserted []string       `json:"inserted"`
	Updated  []string       `json:"updated"`
	Failed   []BatchFailure `json:"failed,omitempty"`
}
