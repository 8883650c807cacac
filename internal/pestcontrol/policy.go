package pestcontrol

// action is the reconciliation outcome for a (site, species) pair: cull,
// conserve, or none (no policy required).
type action int

const (
	actionNone action = iota
	actionCull
	actionConserve
)

func (a action) wireValue() uint8 {
	if a == actionCull {
		return actCull
	}
	return actConserve
}

type policyState int

const (
	policyPending policyState = iota
	policyExists
	policyDeleted
)

// policy tracks one (site, species) policy through its lifecycle: created
// pending an authority-assigned id, then exists, until deleted. A delete
// requested while still pending is deferred until the id arrives.
type policy struct {
	site    uint32
	species string
	action  action
	id      uint32
	hasID   bool
	state   policyState
}

func newPolicy(site uint32, species string, act action) *policy {
	return &policy{site: site, species: species, action: act, state: policyPending}
}

// setID records the authority-assigned id once PolicyResult arrives. If the
// policy was marked deleted while pending, the deletion fires now.
func (p *policy) setID(id uint32, sendDelete func(uint32)) {
	if p.state == policyExists {
		return
	}
	p.id = id
	p.hasID = true
	switch p.state {
	case policyDeleted:
		sendDelete(id)
	case policyPending:
		p.state = policyExists
	}
}

// delete transitions the policy to deleted, issuing DeletePolicy immediately
// if the id is already known.
func (p *policy) delete(sendDelete func(uint32)) {
	switch p.state {
	case policyPending:
		p.state = policyDeleted
	case policyExists:
		p.state = policyDeleted
		sendDelete(p.id)
	}
}
