package warmup

import (
	"context"
	"log"

	"github.com/ignite/outreach-analytics/internal/cache"
)

// StateSource abstracts the warmup state lookup so the provider can be
// tested without a database.
type StateSource interface {
	StatesFor(ctx context.Context, companyID string) ([]State, error)
}

// Provider serves warmup progress percentages per mailbox, fronted by a
// Redis TTL cache. The cached unit is the whole company's progress map: one
// store round-trip warms every health query for that company until the TTL
// (5 minutes by default, configured at construction) elapses. Warmup state
// advances at day granularity, so short staleness is harmless. Cache
// failures degrade to direct store reads.
type Provider struct {
	source StateSource
	cache  *cache.TTLCache // nil disables caching
}

// NewProvider creates a provider. cache may be nil to read through on every
// call.
func NewProvider(source StateSource, c *cache.TTLCache) *Provider {
	return &Provider{source: source, cache: c}
}

// ProgressFor returns the progress percentage (0-100) per requested entity.
// Entities with no warmup record are absent from the result. An empty
// entityIDs returns the whole company.
func (p *Provider) ProgressFor(ctx context.Context, companyID string, entityIDs []string) (map[string]float64, error) {
	all, err := p.companyProgress(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(entityIDs) == 0 {
		return all, nil
	}
	out := make(map[string]float64, len(entityIDs))
	for _, id := range entityIDs {
		if pct, ok := all[id]; ok {
			out[id] = pct
		}
	}
	return out, nil
}

func (p *Provider) companyProgress(ctx context.Context, companyID string) (map[string]float64, error) {
	if p.cache != nil {
		var cached map[string]float64
		hit, err := p.cache.GetJSON(ctx, companyID, &cached)
		if err != nil {
			log.Printf("[warmup.Provider] cache read failed, falling back to store: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	states, err := p.source.StatesFor(ctx, companyID)
	if err != nil {
		return nil, err
	}
	progress := make(map[string]float64, len(states))
	for _, st := range states {
		progress[st.MailboxID] = st.Progress()
	}

	if p.cache != nil {
		if err := p.cache.SetJSON(ctx, companyID, progress); err != nil {
			log.Printf("[warmup.Provider] cache write failed: %v", err)
		}
	}
	return progress, nil
}
