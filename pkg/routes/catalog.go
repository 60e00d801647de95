// Package routes holds the catalog of known city-pair distances and answers
// normalization-tolerant, bidirectional distance lookups over it.
package routes

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrRouteNotFound is returned when both matching passes are exhausted
// without a hit. Callers recover by asking for a manual distance.
var ErrRouteNotFound = errors.New("route not found")

// Route is a known, undirected city pair with a fixed travel distance.
// Labels are free text, optionally suffixed with a region code ("City, ST").
type Route struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
}

// Catalog is an immutable set of routes. Lookups never mutate state, so a
// Catalog is safe for concurrent use.
type Catalog struct {
	routes   []Route
	collator *collate.Collator
}

// NewCatalog validates the seed routes and builds a catalog. The language
// tag drives the collation used by Places so that accented place names sort
// adjacent to their base letters.
func NewCatalog(routes []Route, tag language.Tag) (*Catalog, error) {
	for i, r := range routes {
		if r.DistanceKm <= 0 {
			return nil, fmt.Errorf("routes: route %d (%s – %s) has non-positive distance %g",
				i, r.Origin, r.Destination, r.DistanceKm)
		}
		if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
			return nil, fmt.Errorf("routes: route %d has a blank label", i)
		}
	}
	seeded := make([]Route, len(routes))
	copy(seeded, routes)
	return &Catalog{
		routes:   seeded,
		collator: collate.New(tag),
	}, nil
}

// Routes returns a copy of the catalog entries in declaration order.
func (c *Catalog) Routes() []Route {
	out := make([]Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// Places returns every distinct origin/destination label, deduplicated and
// sorted with the catalog's collator. Deterministic; no error conditions.
func (c *Catalog) Places() []string {
	seen := make(map[string]bool, len(c.routes)*2)
	places := make([]string, 0, len(c.routes)*2)
	for _, r := range c.routes {
		if !seen[r.Origin] {
			seen[r.Origin] = true
			places = append(places, r.Origin)
		}
		if !seen[r.Destination] {
			seen[r.Destination] = true
			places = append(places, r.Destination)
		}
	}
	c.collator.SortStrings(places)
	return places
}

// FindDistance looks up the known distance between two places. Matching is
// case-insensitive, whitespace-trimmed and undirected, attempted in two
// passes: exact full labels first, then the bare city names (the substring
// before the first comma). Within a pass the earliest-declared route wins,
// which keeps the result deterministic when several routes could match.
func (c *Catalog) FindDistance(a, b string) (float64, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		// No stored label is blank, so there is nothing to match.
		return 0, ErrRouteNotFound
	}

	// Pass 1: exact full labels, either direction.
	for _, r := range c.routes {
		if matchPair(a, b, r.Origin, r.Destination) {
			return r.DistanceKm, nil
		}
	}

	// Pass 2: bare city names with the region suffix discarded.
	cityA := bareCity(a)
	cityB := bareCity(b)
	for _, r := range c.routes {
		if matchPair(cityA, cityB, bareCity(r.Origin), bareCity(r.Destination)) {
			return r.DistanceKm, nil
		}
	}

	return 0, ErrRouteNotFound
}

// matchPair reports whether (a, b) equals (origin, destination) in either
// direction, ignoring case.
func matchPair(a, b, origin, destination string) bool {
	return (strings.EqualFold(a, origin) && strings.EqualFold(b, destination)) ||
		(strings.EqualFold(a, destination) && strings.EqualFold(b, origin))
}

// bareCity strips the region suffix from a label: everything from the first
// comma on is discarded and the remainder trimmed.
func bareCity(label string) string {
	if i := strings.Index(label, ","); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}
