package scripted

import (
	"context"
	"fmt"
	"time"
)

// Provider serves static payloads keyed by data kind. Unknown kinds get a
// generated placeholder so demo sessions always collect something.
type Provider struct {
	payloads map[string]interface{}
	strict   bool
}

// NewProvider creates a provider serving the given payloads. When strict is
// true, kinds without a payload return an error instead of a placeholder.
func NewProvider(payloads map[string]interface{}, strict bool) *Provider {
	if payloads == nil {
		payloads = make(map[string]interface{})
	}
	return &Provider{payloads: payloads, strict: strict}
}

// Fetch implements core.DataProvider.
func (p *Provider) Fetch(ctx context.Context, subjectID, kind string) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if payload, ok := p.payloads[kind]; ok {
		return payload, nil
	}
	if p.strict {
		return nil, fmt.Errorf("no %s data for %s", kind, subjectID)
	}
	return map[string]interface{}{
		"subject":   subjectID,
		"kind":      kind,
		"generated": true,
		"as_of":     time.Now().UTC().Format(time.RFC3339),
	}, nil
}
