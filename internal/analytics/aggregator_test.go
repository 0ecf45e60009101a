package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-analytics/internal/domain"
)

func day(d string) time.Time {
	t, _ := time.Parse(domain.DateFormat, d)
	return t
}

func rec(entity, date string, sent, delivered, opened int) domain.MetricRecord {
	return domain.MetricRecord{
		EntityID:      entity,
		ParentID:      "camp-1",
		CompanyID:     "co-1",
		Date:          date,
		Sent:          sent,
		Delivered:     delivered,
		Opened:        opened,
		SequenceOrder: 0,
		StepType:      domain.StepEmail,
		UpdatedAt:     day(date),
	}
}

func TestAggregateEmpty(t *testing.T) {
	out := Aggregate(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAggregateSumsAcrossDates(t *testing.T) {
	records := []domain.MetricRecord{
		rec("step-1", "2026-08-01", 100, 95, 40),
		rec("step-1", "2026-08-02", 50, 48, 20),
		rec("step-1", "2026-08-03", 25, 24, 10),
	}

	out := Aggregate(records)
	require.Len(t, out, 1)

	a := out[0]
	assert.Equal(t, "step-1", a.EntityID)
	assert.Equal(t, 175, a.Sent)
	assert.Equal(t, 167, a.Delivered)
	assert.Equal(t, 70, a.Opened)
	assert.Equal(t, day("2026-08-03"), a.UpdatedAt, "UpdatedAt is the max of contributing rows")
}

func TestAggregateOrderIndependent(t *testing.T) {
	records := []domain.MetricRecord{
		rec("step-1", "2026-08-01", 100, 95, 40),
		rec("step-2", "2026-08-01", 50, 48, 20),
		rec("step-1", "2026-08-02", 30, 28, 12),
		rec("step-2", "2026-08-02", 10, 9, 4),
	}

	baseline := byEntity(Aggregate(records))

	// Every rotation of the input must produce field-wise identical sums.
	for shift := 1; shift < len(records); shift++ {
		rotated := append(append([]domain.MetricRecord{}, records[shift:]...), records[:shift]...)
		got := byEntity(Aggregate(rotated))
		assert.Equal(t, baseline, got, "rotation by %d changed the aggregate", shift)
	}
}

func TestAggregateAdditive(t *testing.T) {
	setA := []domain.MetricRecord{
		rec("step-1", "2026-08-01", 100, 95, 40),
		rec("step-1", "2026-08-02", 50, 48, 20),
	}
	setB := []domain.MetricRecord{
		rec("step-1", "2026-08-03", 30, 28, 12),
		rec("step-1", "2026-08-04", 10, 9, 4),
	}

	whole := Aggregate(append(append([]domain.MetricRecord{}, setA...), setB...))[0]
	partA := Aggregate(setA)[0]
	partB := Aggregate(setB)[0]

	assert.Equal(t, partA.Sent+partB.Sent, whole.Sent)
	assert.Equal(t, partA.Delivered+partB.Delivered, whole.Delivered)
	assert.Equal(t, partA.Opened+partB.Opened, whole.Opened)
}

func TestAggregateSeedsStaticAttributes(t *testing.T) {
	r1 := rec("step-1", "2026-08-01", 10, 10, 5)
	r1.StepType = domain.StepWait
	r1.WaitDuration = 48
	r1.Subject = ""
	r1.SequenceOrder = 3
	r2 := rec("step-1", "2026-08-02", 0, 0, 0)
	r2.StepType = domain.StepWait
	r2.WaitDuration = 48
	r2.SequenceOrder = 3

	out := Aggregate([]domain.MetricRecord{r1, r2})
	require.Len(t, out, 1)
	assert.Equal(t, domain.StepWait, out[0].StepType)
	assert.Equal(t, 48, out[0].WaitDuration)
	assert.Equal(t, 3, out[0].SequenceOrder)
}

func TestAggregateDistinctEntities(t *testing.T) {
	records := []domain.MetricRecord{
		rec("step-1", "2026-08-01", 100, 95, 40),
		rec("step-2", "2026-08-01", 50, 48, 20),
		rec("step-3", "2026-08-01", 0, 0, 0),
	}
	out := Aggregate(records)
	assert.Len(t, out, 3, "one aggregate per distinct entity")
}

func byEntity(aggs []domain.AggregatedMetric) map[string]domain.AggregatedMetric {
	m := make(map[string]domain.AggregatedMetric, len(aggs))
	for _, a := range aggs {
		m[a.EntityID] = a
	}
	return m
}
