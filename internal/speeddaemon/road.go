package speeddaemon

import (
	"math"
	"sort"
	"sync"
)

const secondsPerDay = 86400

type observation struct {
	timestamp uint32
	pos       uint16
}

// plateState tracks one plate's sighting history per road and the set of
// days on which it has already been ticketed, globally across all roads.
type plateState struct {
	mu            sync.Mutex
	byRoad        map[uint16][]observation
	ticketedDays  map[int]struct{}
}

func newPlateState() *plateState {
	return &plateState{
		byRoad:       make(map[uint16][]observation),
		ticketedDays: make(map[int]struct{}),
	}
}

// observe inserts a new sighting in timestamp order and returns ticket
// candidates against its immediate neighbors that pass the day-dedup gate.
// limit is the road's invariant speed limit in mph.
func (p *plateState) observe(road uint16, limit uint16, obs observation) []ticketCandidate {
	p.mu.Lock()
	defer p.mu.Unlock()

	obsList := p.byRoad[road]
	i := sort.Search(len(obsList), func(i int) bool { return obsList[i].timestamp >= obs.timestamp })
	obsList = append(obsList, observation{})
	copy(obsList[i+1:], obsList[i:])
	obsList[i] = obs
	p.byRoad[road] = obsList

	var candidates []ticketCandidate
	if c, ok := p.candidateAgainst(road, limit, obsList, i, i-1); ok {
		candidates = append(candidates, c)
	}
	if c, ok := p.candidateAgainst(road, limit, obsList, i, i+1); ok {
		candidates = append(candidates, c)
	}
	return candidates
}

type ticketCandidate struct {
	pos1, pos2 uint16
	t1, t2     uint32
	speed      uint16 // mph * 100
}

// candidateAgainst computes the speed between obsList[i] and obsList[j] and,
// if it exceeds limit and survives the day-dedup gate, returns an accepted
// candidate. Must be called with p.mu held.
func (p *plateState) candidateAgainst(road, limit uint16, obsList []observation, i, j int) (ticketCandidate, bool) {
	if j < 0 || j >= len(obsList) {
		return ticketCandidate{}, false
	}
	a, b := obsList[i], obsList[j]
	if a.timestamp == b.timestamp {
		return ticketCandidate{}, false
	}
	if a.timestamp > b.timestamp {
		a, b = b, a
	}

	dt := float64(b.timestamp - a.timestamp)
	dpos := math.Abs(float64(int64(b.pos) - int64(a.pos)))
	mph := dpos / dt * 3600

	speedRounded := int(math.Round(mph))
	if speedRounded <= int(limit) {
		return ticketCandidate{}, false
	}

	d1 := int(a.timestamp / secondsPerDay)
	d2 := int(b.timestamp / secondsPerDay)
	for d := d1; d <= d2; d++ {
		if _, ticketed := p.ticketedDays[d]; ticketed {
			return ticketCandidate{}, false
		}
	}
	for d := d1; d <= d2; d++ {
		p.ticketedDays[d] = struct{}{}
	}

	return ticketCandidate{
		pos1:  a.pos,
		pos2:  b.pos,
		t1:    a.timestamp,
		t2:    b.timestamp,
		speed: uint16(math.Round(mph * 100)),
	}, true
}

// road holds the per-road shared state: the invariant speed limit, the
// camera positions bound to it, and any tickets pending delivery because no
// dispatcher has attached yet. Attached dispatchers are tracked on Server.
type road struct {
	mu       sync.Mutex
	id       uint16
	limit    uint16
	limitSet bool
	cameras  map[uint16]struct{} // positions claimed by a camera
	pending  []ticketMsg
}

func newRoad(id uint16) *road {
	return &road{id: id, cameras: make(map[uint16]struct{})}
}
