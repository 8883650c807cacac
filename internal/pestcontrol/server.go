package pestcontrol

import (
	"context"
	"fmt"
	"sync"
)

// Server holds every site's authority link, target populations, and policy
// state, shared across all accepted client connections.
type Server struct {
	authorityAddr string

	mu              sync.Mutex
	targetPops      map[uint32]map[string]targetRange
	asConns         map[uint32]*authorityLink
	pendingVisits   map[uint32][]pendingVisit
	pendingPolicies map[uint32][]*policy
	policies        map[string]*policy
}

type pendingVisit struct {
	populations map[string]uint32
}

// NewServer returns a Server that dials authorityAddr on first visit to a
// previously-unseen site.
func NewServer(authorityAddr string) *Server {
	return &Server{
		authorityAddr:   authorityAddr,
		targetPops:      make(map[uint32]map[string]targetRange),
		asConns:         make(map[uint32]*authorityLink),
		pendingVisits:   make(map[uint32][]pendingVisit),
		pendingPolicies: make(map[uint32][]*policy),
		policies:        make(map[string]*policy),
	}
}

func policyKey(site uint32, species string) string {
	return fmt.Sprintf("%d\x00%s", site, species)
}

// ensureAuthorityLink returns the cached link for site, dialing a new one if
// none exists (or the cached one has since dropped).
func (srv *Server) ensureAuthorityLink(ctx context.Context, site uint32) (*authorityLink, error) {
	srv.mu.Lock()
	if link, ok := srv.asConns[site]; ok {
		srv.mu.Unlock()
		return link, nil
	}
	srv.mu.Unlock()

	link, err := srv.dialAuthority(ctx, site)
	if err != nil {
		return nil, err
	}

	srv.mu.Lock()
	if existing, ok := srv.asConns[site]; ok {
		srv.mu.Unlock()
		link.conn.Close()
		return existing, nil
	}
	srv.asConns[site] = link
	srv.mu.Unlock()
	return link, nil
}

// handleSiteVisit processes one client SiteVisit: ensure the authority link
// exists, then either reconcile immediately (targets known) or queue the
// visit until TargetPopulations arrives.
func (srv *Server) handleSiteVisit(ctx context.Context, site uint32, populations map[string]uint32) error {
	link, err := srv.ensureAuthorityLink(ctx, site)
	if err != nil {
		return continuableErr("AS dial failed: %s", err)
	}

	srv.mu.Lock()
	targets, known := srv.targetPops[site]
	if !known {
		srv.pendingVisits[site] = append(srv.pendingVisits[site], pendingVisit{populations: populations})
		srv.mu.Unlock()
		return nil
	}
	srv.mu.Unlock()

	srv.reconcile(site, link, targets, populations)
	return nil
}

// setTargetPopulations records a site's targets and replays any visits that
// arrived before they were known, in arrival order.
func (srv *Server) setTargetPopulations(site uint32, targets map[string]targetRange) {
	srv.mu.Lock()
	srv.targetPops[site] = targets
	pending := srv.pendingVisits[site]
	delete(srv.pendingVisits, site)
	link := srv.asConns[site]
	srv.mu.Unlock()

	for _, v := range pending {
		srv.reconcile(site, link, targets, v.populations)
	}
}

// reconcile implements the per-visit reconciliation algorithm from §4.4: for
// every species in targets, compare the action the population demands
// against the current stored policy and issue create/delete as needed.
func (srv *Server) reconcile(site uint32, link *authorityLink, targets map[string]targetRange, populations map[string]uint32) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.asConns[site] != link {
		return // link has since been replaced or dropped; next visit re-dials
	}

	for species, rng := range targets {
		pop := populations[species]
		want := actionNone
		if pop < rng.min {
			want = actionConserve
		}
		if pop > rng.max {
			want = actionCull
		}

		key := policyKey(site, species)
		cur := srv.policies[key]
		curAction := actionNone
		if cur != nil {
			curAction = cur.action
		}
		if want == curAction {
			continue
		}

		if cur != nil {
			delete(srv.policies, key)
			cur.delete(func(id uint32) { link.send(encodeDeletePolicy(id)) })
		}

		if want != actionNone {
			p := newPolicy(site, species, want)
			srv.policies[key] = p
			srv.pendingPolicies[site] = append(srv.pendingPolicies[site], p)
			link.send(encodeCreatePolicy(species, want.wireValue()))
		}
	}
}

// resolvePendingPolicy matches an incoming PolicyResult to the oldest
// still-pending policy for the authority link's site, strictly FIFO.
func (srv *Server) resolvePendingPolicy(link *authorityLink, policyID uint32) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	queue := srv.pendingPolicies[link.site]
	if len(queue) == 0 {
		return
	}
	p := queue[0]
	srv.pendingPolicies[link.site] = queue[1:]
	p.setID(policyID, func(id uint32) { link.send(encodeDeletePolicy(id)) })
}

// authorityDropped forgets the site's authority link so the next visit
// re-dials. Cached target populations are intentionally kept, so visits that
// arrive before the reconnect's TargetPopulations lands still reconcile
// against the previously known targets.
func (srv *Server) authorityDropped(site uint32) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.asConns, site)
}
