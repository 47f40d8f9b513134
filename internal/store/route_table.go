package store

import (
	"sync/atomic"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Route is one entry of the routing table: the address prefix it covers,
// the next-hop account, and (for CCP-learned routes) the signed path used
// for loop detection. Local routes (this node's own accounts) carry an
// empty Path.
type Route struct {
	Prefix  string
	NextHop ilpservice.AccountID
	Path    []ilpservice.AccountID
	// Order records insertion sequence, the final routing tie-break.
	Order int
}

// RouteTable holds one atomically-swapped routing table snapshot. Many
// goroutines read it concurrently (the router, on every Prepare); the CCP
// collaborator (or an admin API call) replaces it wholesale under
// SetRoutes, so readers never observe a torn update.
type RouteTable struct {
	snapshot atomic.Pointer[[]Route]
	nextSeq  atomic.Int64
}

// NewRouteTable returns an empty routing table.
func NewRouteTable() *RouteTable {
	t := &RouteTable{}
	empty := []Route{}
	t.snapshot.Store(&empty)
	return t
}

// SetRoutes replaces the table wholesale. The order entries appear in
// this call becomes their tie-break insertion order.
func (t *RouteTable) SetRoutes(routes []Route) {
	next := make([]Route, len(routes))
	for i, r := range routes {
		r.Order = i
		next[i] = r
	}
	t.snapshot.Store(&next)
}

// Routes returns the current immutable snapshot. Callers must not mutate
// the returned slice.
func (t *RouteTable) Routes() []Route {
	return *t.snapshot.Load()
}

// Upsert adds or replaces a single route by prefix, preserving the
// relative order of all other routes and appending new ones at the end
// (so insertion-order tie-breaking still favors earlier configuration).
func (t *RouteTable) Upsert(route Route) {
	current := t.Routes()
	next := make([]Route, 0, len(current)+1)
	replaced := false
	for _, r := range current {
		if r.Prefix == route.Prefix {
			route.Order = r.Order
			next = append(next, route)
			replaced = true
			continue
		}
		next = append(next, r)
	}
	if !replaced {
		route.Order = len(next)
		next = append(next, route)
	}
	t.snapshot.Store(&next)
}
