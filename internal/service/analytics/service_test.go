package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	coreanalytics "github.com/ignite/outreach-analytics/internal/analytics"
	"github.com/ignite/outreach-analytics/internal/domain"
	"github.com/ignite/outreach-analytics/internal/service/analytics"
)

// memRepo is an in-memory metric repository for unit testing.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.MetricRecord // keyed by entity_id|date
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*domain.MetricRecord)}
}

func key(entityID, date string) string { return entityID + "|" + date }

func (m *memRepo) List(_ context.Context, f domain.RecordFilter) ([]domain.MetricRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MetricRecord
	for _, r := range m.rows {
		if r.CompanyID != f.CompanyID {
			continue
		}
		if f.CampaignID != "" && r.ParentID != f.CampaignID {
			continue
		}
		if len(f.StepIDs) > 0 && !contains(f.StepIDs, r.EntityID) {
			continue
		}
		if f.DateRange != nil && (r.Date < f.DateRange.Start || r.Date > f.DateRange.End) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRepo) Upsert(_ context.Context, rec *domain.MetricRecord) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(rec.EntityID, rec.Date)
	if existing, ok := m.rows[k]; ok {
		id := existing.ID
		cp := *rec
		cp.ID = id
		cp.UpdatedAt = time.Now()
		m.rows[k] = &cp
		return id, false, nil
	}
	cp := *rec
	cp.ID = uuid.New().String()
	cp.UpdatedAt = time.Now()
	m.rows[k] = &cp
	return cp.ID, true, nil
}

func (m *memRepo) Delete(_ context.Context, companyID string, f domain.DeleteFilter) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for k, r := range m.rows {
		if r.CompanyID != companyID {
			continue
		}
		if f.EntityID != "" && r.EntityID != f.EntityID {
			continue
		}
		if f.ParentID != "" && r.ParentID != f.ParentID {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		removed = append(removed, r.ID)
		delete(m.rows, k)
	}
	return removed, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// stubWarmup returns fixed progress percentages.
type stubWarmup struct {
	progress map[string]float64
	err      error
}

func (s *stubWarmup) ProgressFor(_ context.Context, _ string, _ []string) (map[string]float64, error) {
	return s.progress, s.err
}

const (
	testCompany  = "co-1"
	testCampaign = "camp-1"
)

func newStepRecord(entity, date string, order int, st domain.StepType, sent, delivered, opened, clicked, replied, bounced int) domain.MetricRecord {
	return domain.MetricRecord{
		EntityID:      entity,
		ParentID:      testCampaign,
		CompanyID:     testCompany,
		Date:          date,
		Sent:          sent,
		Delivered:     delivered,
		Opened:        opened,
		Clicked:       clicked,
		Replied:       replied,
		Bounced:       bounced,
		SequenceOrder: order,
		StepType:      st,
	}
}

func newService(repo analytics.Repository, warmup analytics.WarmupProvider) *analytics.Service {
	return analytics.NewService(repo, warmup, coreanalytics.DefaultHealthWeights)
}

func TestListRecordsInvalidRange(t *testing.T) {
	svc := newService(newMemRepo(), &stubWarmup{})
	_, err := svc.ListRecords(context.Background(), domain.RecordFilter{
		CompanyID: testCompany,
		DateRange: &domain.DateRange{Start: "2026-08-10", End: "2026-08-01"},
	})
	if !errors.Is(err, analytics.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestAggregatedStepsEndToEnd(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &stubWarmup{})
	ctx := context.Background()

	// step-1 split across two dates; step-2 and a wait step on one date.
	seed := []domain.MetricRecord{
		newStepRecord("step-1", "2026-08-01", 0, domain.StepEmail, 60, 57, 25, 6, 3, 3),
		newStepRecord("step-1", "2026-08-02", 0, domain.StepEmail, 40, 38, 15, 4, 2, 2),
		newStepRecord("step-2", "2026-08-02", 1, domain.StepEmail, 50, 48, 20, 5, 2, 2),
		newStepRecord("step-3", "2026-08-02", 2, domain.StepWait, 0, 0, 0, 0, 0, 0),
	}
	for i := range seed {
		if _, err := svc.Upsert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	steps, err := svc.AggregatedSteps(ctx, testCompany, testCampaign, nil)
	if err != nil {
		t.Fatalf("aggregated steps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].EntityID != "step-1" || steps[0].Sent != 100 || steps[0].Delivered != 95 {
		t.Fatalf("step-1 aggregate wrong: %+v", steps[0].AggregatedMetric)
	}
	want := 50.0 / 95.0
	if math.Abs(steps[1].ConversionFromPrevious-want) > 1e-9 {
		t.Fatalf("step-2 conversion = %f, want %f", steps[1].ConversionFromPrevious, want)
	}
}

func TestFunnelEndToEnd(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &stubWarmup{})
	ctx := context.Background()

	seed := []domain.MetricRecord{
		newStepRecord("step-1", "2026-08-01", 0, domain.StepEmail, 100, 95, 40, 10, 5, 5),
		newStepRecord("step-2", "2026-08-01", 1, domain.StepEmail, 50, 48, 20, 5, 2, 2),
		newStepRecord("step-3", "2026-08-01", 2, domain.StepWait, 0, 0, 0, 0, 0, 0),
	}
	for i := range seed {
		if _, err := svc.Upsert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	report, err := svc.Funnel(ctx, testCompany, testCampaign, nil)
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	if report.TotalSteps != 2 {
		t.Fatalf("total steps = %d, want 2", report.TotalSteps)
	}
	if report.FunnelSteps[1].RetentionFromFirst != 0.5 {
		t.Fatalf("retention = %f, want 0.5", report.FunnelSteps[1].RetentionFromFirst)
	}
	if report.FunnelSteps[1].DropoffFromPrevious != 50 {
		t.Fatalf("dropoff = %d, want 50", report.FunnelSteps[1].DropoffFromPrevious)
	}
	if math.Abs(report.OverallConversion-0.48) > 1e-9 {
		t.Fatalf("overall conversion = %f, want 0.48", report.OverallConversion)
	}
}

func TestHealthMetricsJoinsWarmup(t *testing.T) {
	repo := newMemRepo()
	warmup := &stubWarmup{progress: map[string]float64{"mbx-1": 100, "mbx-2": 20}}
	svc := newService(repo, warmup)
	ctx := context.Background()

	// Rows inside the 30-day window.
	recent := time.Now().UTC().AddDate(0, 0, -2).Format(domain.DateFormat)
	seed := []domain.MetricRecord{
		newStepRecord("mbx-1", recent, 0, domain.StepEmail, 1000, 980, 400, 50, 60, 5),
		newStepRecord("mbx-2", recent, 0, domain.StepEmail, 1000, 700, 50, 5, 5, 250),
	}
	// And one stale row that must be excluded.
	stale := newStepRecord("mbx-1", "2020-01-01", 0, domain.StepEmail, 999999, 0, 0, 0, 0, 999999)
	seed = append(seed, stale)
	for i := range seed {
		if _, err := svc.Upsert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	out, err := svc.HealthMetrics(ctx, testCompany, nil)
	if err != nil {
		t.Fatalf("health metrics: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(out))
	}
	if out[0].EntityID != "mbx-1" {
		t.Fatalf("expected healthy mailbox first, got %s (score %f)", out[0].EntityID, out[0].HealthScore)
	}
	if out[0].HealthScore <= out[1].HealthScore {
		t.Fatalf("ordering wrong: %f <= %f", out[0].HealthScore, out[1].HealthScore)
	}
	if out[0].WarmupScore != 1.0 {
		t.Fatalf("mbx-1 warmup score = %f, want 1.0", out[0].WarmupScore)
	}
	for _, h := range out {
		if h.HealthScore < 0 || h.HealthScore > 100 {
			t.Fatalf("health score out of bounds: %f", h.HealthScore)
		}
	}
}

func TestHealthMetricsWarmupFailure(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &stubWarmup{err: fmt.Errorf("redis down")})
	ctx := context.Background()

	recent := time.Now().UTC().AddDate(0, 0, -1).Format(domain.DateFormat)
	r := newStepRecord("mbx-1", recent, 0, domain.StepEmail, 10, 10, 5, 1, 1, 0)
	if _, err := svc.Upsert(ctx, &r); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.HealthMetrics(ctx, testCompany, nil); err == nil {
		t.Fatal("expected warmup provider failure to propagate")
	}
}

func TestUpsertIdempotent(t *testing.T) {
	svc := newService(newMemRepo(), &stubWarmup{})
	ctx := context.Background()

	r := newStepRecord("step-1", "2026-08-01", 0, domain.StepEmail, 100, 95, 40, 10, 5, 5)

	first, err := svc.Upsert(ctx, &r)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !first.Inserted {
		t.Fatal("first upsert should insert")
	}

	second, err := svc.Upsert(ctx, &r)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Inserted {
		t.Fatal("second upsert should update, not insert")
	}
	if second.ID != first.ID {
		t.Fatalf("row id changed on re-upsert: %s != %s", second.ID, first.ID)
	}

	// Still a single row, with unchanged aggregate.
	steps, err := svc.AggregatedSteps(ctx, testCompany, testCampaign, nil)
	if err != nil {
		t.Fatalf("aggregated steps: %v", err)
	}
	if len(steps) != 1 || steps[0].Sent != 100 {
		t.Fatalf("aggregate not stable after re-upsert: %+v", steps)
	}
}

func TestUpsertValidation(t *testing.T) {
	svc := newService(newMemRepo(), &stubWarmup{})
	bad := newStepRecord("step-1", "not-a-date", 0, domain.StepEmail, 1, 1, 0, 0, 0, 0)
	if _, err := svc.Upsert(context.Background(), &bad); !errors.Is(err, analytics.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestBatchUpsertPartialFailure(t *testing.T) {
	svc := newService(newMemRepo(), &stubWarmup{})
	ctx := context.Background()

	batch := []domain.MetricRecord{
		newStepRecord("step-1", "2026-08-01", 0, domain.StepEmail, 10, 9, 3, 1, 0, 1),
		newStepRecord("step-2", "bogus", 1, domain.StepEmail, 5, 5, 1, 0, 0, 0),
		newStepRecord("step-1", "2026-08-02", 0, domain.StepEmail, 20, 19, 6, 2, 1, 1),
	}

	out := svc.BatchUpsert(ctx, batch)
	if len(out.Inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(out.Inserted))
	}
	if len(out.Failed) != 1 || out.Failed[0].EntityID != "step-2" {
		t.Fatalf("failed outcomes wrong: %+v", out.Failed)
	}

	// The failure must not have rolled back the committed writes.
	steps, _ := svc.AggregatedSteps(ctx, testCompany, testCampaign, nil)
	if len(steps) != 1 || steps[0].Sent != 30 {
		t.Fatalf("prior writes lost after partial failure: %+v", steps)
	}
}

func TestDeleteRequiresFilter(t *testing.T) {
	svc := newService(newMemRepo(), &stubWarmup{})
	if _, err := svc.Delete(context.Background(), testCompany, domain.DeleteFilter{}); !errors.Is(err, analytics.ErrEmptyDeleteFilter) {
		t.Fatalf("expected ErrEmptyDeleteFilter, got %v", err)
	}
}

func TestDeleteByEntity(t *testing.T) {
	svc := newService(newMemRepo(), &stubWarmup{})
	ctx := context.Background()

	r1 := newStepRecord("step-1", "2026-08-01", 0, domain.StepEmail, 10, 9, 3, 1, 0, 1)
	r2 := newStepRecord("step-2", "2026-08-01", 1, domain.StepEmail, 5, 5, 1, 0, 0, 0)
	svc.Upsert(ctx, &r1)
	svc.Upsert(ctx, &r2)

	removed, err := svc.Delete(ctx, testCompany, domain.DeleteFilter{EntityID: "step-1"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed = %d, want 1", len(removed))
	}

	left, _ := svc.ListRecords(ctx, domain.RecordFilter{CompanyID: testCompany})
	if len(left) != 1 || left[0].EntityID != "step-2" {
		t.Fatalf("unexpected rows left: %+v", left)
	}
}
