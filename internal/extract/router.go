package extract

import (
	"net/url"
	"strings"

	"github.com/prixy/backend/internal/domain"
)

// Route pairs a host substring with the extractor that handles it.
// NeedsPage tells the caller whether the extractor wants fetched HTML or
// talks to a vendor API on its own.
type Route struct {
	HostPattern string
	Extractor   domain.Extractor
	NeedsPage   bool
}

// Router picks the extractor for a product URL. Registration order is
// match order, so more specific patterns go first.
type Router struct {
	routes   []Route
	fallback domain.Extractor
}

// NewRouter creates a router that falls back to the given extractor when no
// registered host matches.
func NewRouter(fallback domain.Extractor) *Router {
	return &Router{fallback: fallback}
}

// Register appends a route. Matching is a substring test against the URL
// host, case insensitive.
func (r *Router) Register(hostPattern string, extractor domain.Extractor, needsPage bool) {
	r.routes = append(r.routes, Route{
		HostPattern: strings.ToLower(hostPattern),
		Extractor:   extractor,
		NeedsPage:   needsPage,
	})
}

// Resolve returns the route for the URL. Unparseable URLs and unknown hosts
// get the fallback extractor, which always works from fetched HTML.
func (r *Router) Resolve(rawURL string) Route {
	fallback := Route{HostPattern: "", Extractor: r.fallback, NeedsPage: true}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return fallback
	}
	host := strings.ToLower(parsed.Host)

	for _, route := range r.routes {
		if strings.Contains(host, route.HostPattern) {
			return route
		}
	}
	return fallback
}
