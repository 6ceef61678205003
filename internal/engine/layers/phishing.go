package layers

import (
	"context"
	"strings"
	"sync"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// ThreatFeed is the external threat-indicator collaborator consulted by the
// phishing layer. Match returns indicator tags for anything suspicious in
// the session origin.
type ThreatFeed interface {
	Match(ctx context.Context, origin event.SessionOrigin) ([]string, error)
}

// PhishingContextLayer matches session origin metadata and redirect-chain
// shape against the threat feed. With no feed configured the layer reports
// neutral at confidence zero, removing itself from the composite.
type PhishingContextLayer struct {
	feed ThreatFeed
}

// NewPhishingContextLayer creates the layer; feed may be nil.
func NewPhishingContextLayer(feed ThreatFeed) *PhishingContextLayer {
	return &PhishingContextLayer{feed: feed}
}

func (l *PhishingContextLayer) Name() string { return "phishing_context" }

func (l *PhishingContextLayer) Evaluate(ctx context.Context, ev *event.Event, _ *profile.Snapshot) (*engine.LayerScore, error) {
	if l.feed == nil {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0,
			Evidence:   []string{"threat_feed_absent"},
		}, nil
	}

	indicators, err := l.feed.Match(ctx, ev.Origin)
	if err != nil {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0,
			Evidence:   []string{"threat_feed_unavailable"},
		}, nil
	}

	out := &engine.LayerScore{Layer: l.Name(), Confidence: 0.8}
	if len(indicators) == 0 {
		return out, nil
	}

	out.Score = 0.6 + 0.2*float64(len(indicators))
	if out.Score > 1 {
		out.Score = 1
	}
	out.Evidence = indicators
	return out, nil
}

// maxRedirectHops is the redirect-chain depth beyond which the chain shape
// itself is an indicator, independent of host reputation.
const maxRedirectHops = 3

// StaticThreatFeed is an in-memory ThreatFeed over a fixed host blocklist.
type StaticThreatFeed struct {
	mu    sync.RWMutex
	hosts map[string]struct{}
}

var _ ThreatFeed = (*StaticThreatFeed)(nil)

// NewStaticThreatFeed creates a feed seeded with the given hosts.
func NewStaticThreatFeed(hosts []string) *StaticThreatFeed {
	f := &StaticThreatFeed{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		f.hosts[strings.ToLower(h)] = struct{}{}
	}
	return f
}

// Add inserts a host into the blocklist.
func (f *StaticThreatFeed) Add(host string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[strings.ToLower(host)] = struct{}{}
}

func (f *StaticThreatFeed) Match(_ context.Context, origin event.SessionOrigin) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var indicators []string
	if f.blocked(origin.OriginHost) {
		indicators = append(indicators, "phishing_origin_host")
	}
	if origin.Referrer != "" && f.blockedWithin(origin.Referrer) {
		indicators = append(indicators, "phishing_referrer")
	}
	if len(origin.RedirectChain) > maxRedirectHops {
		indicators = append(indicators, "redirect_chain_depth")
	}
	for _, hop := range origin.RedirectChain {
		if f.blocked(hop) {
			indicators = append(indicators, "phishing_redirect_hop")
			break
		}
	}
	return indicators, nil
}

func (f *StaticThreatFeed) blocked(host string) bool {
	_, ok := f.hosts[strings.ToLower(host)]
	return ok
}

func (f *StaticThreatFeed) blockedWithin(url string) bool {
	lower := strings.ToLower(url)
	for h := range f.hosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
