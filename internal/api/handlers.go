package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/outreach-analytics/internal/domain"
	"github.com/ignite/outreach-analytics/internal/pkg/httputil"
	svc "github.com/ignite/outreach-analytics/internal/service/analytics"
	"github.com/ignite/outreach-analytics/internal/warmup"
)

// Exporter pushes campaign reports to object storage. Nil means exports are
// disabled for this deployment.
type Exporter interface {
	ExportFunnel(ctx context.Context, companyID string, report domain.FunnelReport) (string, error)
	ExportSteps(ctx context.Context, companyID, campaignID string, steps []domain.StepComparison) (string, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	svc      *svc.Service
	exporter Exporter
	health   *HealthChecker
}

// NewHandlers creates the handler set. exporter and health may be nil.
func NewHandlers(service *svc.Service, exporter Exporter, health *HealthChecker) *Handlers {
	return &Handlers{svc: service, exporter: exporter, health: health}
}

// HealthCheck reports service liveness and dependency status.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputil.OK(w, map[string]string{"status": "healthy"})
		return
	}
	h.health.HandleHealth(w, r)
}

// ListRecords returns raw metric rows for the company, filtered and paginated.
// Pagination happens after the repository fetch; rollup windows stay small
// enough that slicing in memory is fine.
//
//	GET /api/analytics/records?campaign_id=&step_ids=&start=&end=&page=&limit=
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	dr, ok := dateRangeFromQuery(w, r)
	if !ok {
		return
	}

	records, err := h.svc.ListRecords(r.Context(), domain.RecordFilter{
		CompanyID:  CompanyIDFromContext(r.Context()),
		CampaignID: r.URL.Query().Get("campaign_id"),
		StepIDs:    splitCSV(r.URL.Query().Get("step_ids")),
		DateRange:  dr,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	params := ParsePagination(r, 100, 1000)
	total := int64(len(records))
	lo := params.Offset
	if lo > len(records) {
		lo = len(records)
	}
	hi := lo + params.Limit
	if hi > len(records) {
		hi = len(records)
	}

	httputil.OK(w, NewPaginatedResponse(records[lo:hi], params, total))
}

// UpsertRecord writes a single metric row. The row is keyed by
// (entity_id, date); replays return 200 instead of 201.
//
//	POST /api/analytics/records
func (h *Handlers) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	var rec domain.MetricRecord
	if !httputil.Decode(w, r, &rec) {
		return
	}
	rec.CompanyID = CompanyIDFromContext(r.Context())

	res, err := h.svc.Upsert(r.Context(), &rec)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if res.Inserted {
		httputil.Created(w, res)
		return
	}
	httputil.OK(w, res)
}

// BatchUpsertRecords ingests multiple rows in one call. The batch is not
// atomic; per-record outcomes come back in the response.
//
//	POST /api/analytics/records/batch
func (h *Handlers) BatchUpsertRecords(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []domain.MetricRecord `json:"records"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Records) == 0 {
		httputil.BadRequest(w, "records array is empty")
		return
	}

	companyID := CompanyIDFromContext(r.Context())
	for i := range req.Records {
		req.Records[i].CompanyID = companyID
	}

	httputil.OK(w, h.svc.BatchUpsert(r.Context(), req.Records))
}

// DeleteRecords removes rows matching the query filter. At least one of
// entity_id, parent_id, date must be set.
//
//	DELETE /api/analytics/records?entity_id=&parent_id=&date=
func (h *Handlers) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ids, err := h.svc.Delete(r.Context(), CompanyIDFromContext(r.Context()), domain.DeleteFilter{
		EntityID: q.Get("entity_id"),
		ParentID: q.Get("parent_id"),
		Date:     q.Get("date"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	httputil.OK(w, map[string]interface{}{
		"deleted": ids,
		"count":   len(ids),
	})
}

// CampaignSteps returns the aggregated, ordered step sequence for a campaign.
//
//	GET /api/analytics/campaigns/{campaignId}/steps?start=&end=
func (h *Handlers) CampaignSteps(w http.ResponseWriter, r *http.Request) {
	dr, ok := dateRangeFromQuery(w, r)
	if !ok {
		return
	}
	campaignID := chi.URLParam(r, "campaignId")

	steps, err := h.svc.AggregatedSteps(r.Context(), CompanyIDFromContext(r.Context()), campaignID, dr)
	if err != nil {
		h.respondError(w, err)
		return
	}

	httputil.OK(w, map[string]interface{}{
		"campaign_id": campaignID,
		"steps":       steps,
	})
}

// CampaignFunnel returns email-step attrition for a campaign.
//
//	GET /api/analytics/campaigns/{campaignId}/funnel?start=&end=
func (h *Handlers) CampaignFunnel(w http.ResponseWriter, r *http.Request) {
	dr, ok := dateRangeFromQuery(w, r)
	if !ok {
		return
	}

	report, err := h.svc.Funnel(r.Context(), CompanyIDFromContext(r.Context()), chi.URLParam(r, "campaignId"), dr)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.OK(w, report)
}

// MailboxHealth scores sending health for the company's mailboxes over the
// trailing 30 days.
//
//	GET /api/analytics/health?entity_ids=
func (h *Handlers) MailboxHealth(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.svc.HealthMetrics(r.Context(),
		CompanyIDFromContext(r.Context()),
		splitCSV(r.URL.Query().Get("entity_ids")))
	if err != nil {
		h.respondError(w, err)
		return
	}

	httputil.OK(w, map[string]interface{}{
		"metrics": metrics,
		"count":   len(metrics),
	})
}

// WarmupSchedule returns the 30-day ramp table used by the warmup signal.
//
//	GET /api/warmup/schedule
func (h *Handlers) WarmupSchedule(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Day      int     `json:"day"`
		Volume   int     `json:"volume"`
		Stage    string  `json:"stage"`
		Progress float64 `json:"progress"`
	}
	entries := make([]entry, 0, len(warmup.ScheduleEntry))
	for _, e := range warmup.ScheduleEntry {
		entries = append(entries, entry{
			Day:      e.Day,
			Volume:   e.Volume,
			Stage:    warmup.StageForDay(e.Day),
			Progress: warmup.ProgressForDay(e.Day),
		})
	}

	httputil.OK(w, map[string]interface{}{
		"total_days": warmup.TotalDays,
		"entries":    entries,
	})
}

// ExportCampaign renders a campaign report as CSV and uploads it to object
// storage, returning the object key.
//
//	POST /api/analytics/campaigns/{campaignId}/export
func (h *Handlers) ExportCampaign(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	var req struct {
		Kind  string `json:"kind"`
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	var dr *domain.DateRange
	if req.Start != "" || req.End != "" {
		dr = &domain.DateRange{Start: req.Start, End: req.End}
	}

	companyID := CompanyIDFromContext(r.Context())
	campaignID := chi.URLParam(r, "campaignId")

	var key string
	var err error
	switch req.Kind {
	case "", "funnel":
		var report domain.FunnelReport
		report, err = h.svc.Funnel(r.Context(), companyID, campaignID, dr)
		if err == nil {
			key, err = h.exporter.ExportFunnel(r.Context(), companyID, report)
		}
	case "steps":
		var steps []domain.StepComparison
		steps, err = h.svc.AggregatedSteps(r.Context(), companyID, campaignID, dr)
		if err == nil {
			key, err = h.exporter.ExportSteps(r.Context(), companyID, campaignID, steps)
		}
	default:
		httputil.BadRequest(w, "kind must be funnel or steps")
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	httputil.Created(w, map[string]string{"key": key})
}

// respondError maps service errors onto HTTP status codes.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidRecord):
		httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, svc.ErrInvalidDateRange), errors.Is(err, svc.ErrEmptyDeleteFilter):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// dateRangeFromQuery parses optional start/end params. Both or neither must
// be present. Returns ok=false after writing a 400 response.
func dateRangeFromQuery(w http.ResponseWriter, r *http.Request) (*domain.DateRange, bool) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" && end == "" {
		return nil, true
	}
	if start == "" || end == "" {
		httputil.BadRequest(w, "start and end must be provided together")
		return nil, false
	}
	return &domain.DateRange{Start: start, End: end}, true
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
