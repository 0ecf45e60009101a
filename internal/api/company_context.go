package api

import (
	"context"
	"net/http"

	"github.com/ignite/outreach-analytics/internal/pkg/httputil"
)

// CompanyIDHeader carries the tenant scope for every /api request.
const CompanyIDHeader = "X-Company-ID"

type companyContextKey struct{}

// companyIDFromRequest resolves the company scope.
// Priority: 1. context (from middleware), 2. header, 3. query param.
func companyIDFromRequest(r *http.Request) string {
	if id := CompanyIDFromContext(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get(CompanyIDHeader); id != "" {
		return id
	}
	return r.URL.Query().Get("company_id")
}

// CompanyIDFromContext retrieves the company ID set by RequireCompany.
func CompanyIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(companyContextKey{}).(string); ok {
		return id
	}
	return ""
}

// RequireCompany rejects requests without a company scope and injects the
// resolved ID into the request context for handlers downstream.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := companyIDFromRequest(r)
		if id == "" {
			httputil.BadRequest(w, "company scope required: set "+CompanyIDHeader+" header or company_id query param")
			return
		}
		ctx := context.WithValue(r.Context(), companyContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
