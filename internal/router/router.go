// Package router implements longest-prefix-match next-hop selection for
// outgoing Prepare packets, grounded on the original router's linear
// scan-and-compare routing table lookup.
package router

import (
	"context"
	"strings"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// peerPrefix marks addresses that belong to local protocol handlers
// (IL-DCP configuration requests, CCP route broadcasts) rather than to
// any routed destination.
const peerPrefix = "peer."

// Router picks the next-hop account for a Prepare's destination address
// and hands the resulting OutgoingRequest to Next. Addresses under
// peer. are dispatched to Local instead, since they terminate at this
// node rather than continuing onward.
type Router struct {
	Routes   *store.RouteTable
	Accounts store.AccountStore
	Next     ilpservice.OutgoingService
	Local    ilpservice.IncomingService
}

// New returns a Router.
func New(routes *store.RouteTable, accounts store.AccountStore, next ilpservice.OutgoingService, local ilpservice.IncomingService) *Router {
	return &Router{Routes: routes, Accounts: accounts, Next: next, Local: local}
}

func (r *Router) HandleRequest(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
	dest := string(req.Prepare.Destination)

	if strings.HasPrefix(dest, peerPrefix) {
		if r.Local == nil {
			return ilpservice.RejectResult(unreachable(req.Prepare)), nil
		}
		return r.Local.HandleRequest(ctx, req)
	}

	route, ok := bestRoute(r.Routes.Routes(), dest)
	if !ok {
		return ilpservice.RejectResult(unreachable(req.Prepare)), nil
	}

	to, err := r.Accounts.GetAccount(ctx, route.NextHop)
	if err != nil {
		return ilpservice.RejectResult(ilppacket.RejectBuilder{
			Code:    ilppacket.CodeT00InternalError,
			Message: "next-hop account lookup failed",
		}.Build()), nil
	}

	return r.Next.SendRequest(ctx, req.IntoOutgoing(to))
}

// bestRoute returns the route whose prefix matches destination with the
// longest length. Among equal-length matches, the route with the
// shorter CCP-learned Path wins (fewer hops); among equal-length
// matches with equal Path length, the earliest-inserted route (lowest
// Order) wins, matching the deterministic tie-break the connector
// commits to for route table lookups.
func bestRoute(routes []store.Route, destination string) (store.Route, bool) {
	var best store.Route
	found := false
	for _, route := range routes {
		if !strings.HasPrefix(destination, route.Prefix) {
			continue
		}
		if !found || better(route, best) {
			best = route
			found = true
		}
	}
	return best, found
}

// better reports whether candidate should replace current as the best
// match: longer prefix wins outright; equal-length prefixes fall back
// to shorter Path, then to earlier insertion order.
func better(candidate, current store.Route) bool {
	if len(candidate.Prefix) != len(current.Prefix) {
		return len(candidate.Prefix) > len(current.Prefix)
	}
	if len(candidate.Path) != len(current.Path) {
		return len(candidate.Path) < len(current.Path)
	}
	return candidate.Order < current.Order
}

func unreachable(p ilppacket.Prepare) ilppacket.Reject {
	return ilppacket.RejectBuilder{
		Code:    ilppacket.CodeF02Unreachable,
		Message: "no route found for destination " + string(p.Destination),
	}.Build()
}

var _ ilpservice.IncomingService = (*Router)(nil)
