package speeddaemon

import (
	"fmt"
	"sync"
)

// Server owns all cross-connection domain state for the speed-enforcement
// service: one road per road ID, one plateState per plate, and the set of
// dispatcher connections currently attached to each road.
type Server struct {
	roadsMu  sync.Mutex
	roads    map[uint16]*road
	platesMu sync.Mutex
	plates   map[string]*plateState

	dispatchMu  sync.Mutex
	dispatchers map[uint16][]*dispatcherHandle
}

// dispatcherHandle is how the server reaches a dispatcher connection's
// owned write path without touching its socket directly.
type dispatcherHandle struct {
	connID uint64
	send   chan []byte
}

// NewServer returns an empty Server ready to accept connections.
func NewServer() *Server {
	return &Server{
		roads:       make(map[uint16]*road),
		plates:      make(map[string]*plateState),
		dispatchers: make(map[uint16][]*dispatcherHandle),
	}
}

func (s *Server) getRoad(id uint16) *road {
	s.roadsMu.Lock()
	defer s.roadsMu.Unlock()
	r, ok := s.roads[id]
	if !ok {
		r = newRoad(id)
		s.roads[id] = r
	}
	return r
}

func (s *Server) getPlateState(plate string) *plateState {
	s.platesMu.Lock()
	defer s.platesMu.Unlock()
	p, ok := s.plates[plate]
	if !ok {
		p = newPlateState()
		s.plates[plate] = p
	}
	return p
}

// claimCamera registers a camera at (road, mile) with the given limit.
// Returns an error if the road's limit is already set to a different value
// or another camera already holds that position.
func (s *Server) claimCamera(roadID, mile, limit uint16) (*road, error) {
	r := s.getRoad(roadID)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limitSet && r.limit != limit {
		return nil, fmt.Errorf("%w: road %d limit already set to %d", ErrProtocolViolation, roadID, r.limit)
	}
	if _, taken := r.cameras[mile]; taken {
		return nil, fmt.Errorf("%w: road %d position %d already has a camera", ErrProtocolViolation, roadID, mile)
	}

	r.limit = limit
	r.limitSet = true
	r.cameras[mile] = struct{}{}
	return r, nil
}

// observePlate runs the ticketing algorithm for one Plate message from a
// camera bound to (road, mile, limit) and delivers or enqueues any resulting
// tickets.
func (s *Server) observePlate(roadID, mile, limit uint16, msg plateMsg) {
	ps := s.getPlateState(msg.plate)
	candidates := ps.observe(roadID, limit, observation{timestamp: msg.timestamp, pos: mile})

	for _, c := range candidates {
		s.deliverTicket(roadID, ticketMsg{
			plate: msg.plate,
			road:  roadID,
			pos1:  c.pos1,
			t1:    c.t1,
			pos2:  c.pos2,
			t2:    c.t2,
			speed: c.speed,
		})
	}
}

// deliverTicket sends to any dispatcher currently attached to the road, or
// enqueues on the road's pending list if none has attached yet.
func (s *Server) deliverTicket(roadID uint16, t ticketMsg) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	handles := s.dispatchers[roadID]
	if len(handles) == 0 {
		r := s.getRoad(roadID)
		r.mu.Lock()
		r.pending = append(r.pending, t)
		r.mu.Unlock()
		return
	}

	frame, err := encodeTicket(t)
	if err != nil {
		return
	}
	handles[0].send <- frame
}

// attachDispatcher registers conn as a dispatcher for roads and flushes any
// pending tickets on each of them in FIFO order.
func (s *Server) attachDispatcher(connID uint64, roads []uint16, send chan []byte) {
	h := &dispatcherHandle{connID: connID, send: send}

	s.dispatchMu.Lock()
	for _, roadID := range roads {
		s.dispatchers[roadID] = append(s.dispatchers[roadID], h)
	}
	s.dispatchMu.Unlock()

	for _, roadID := range roads {
		r := s.getRoad(roadID)
		r.mu.Lock()
		pending := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, t := range pending {
			frame, err := encodeTicket(t)
			if err != nil {
				continue
			}
			send <- frame
		}
	}
}

// detachDispatcher removes conn from every road it was registered against,
// called on disconnect.
func (s *Server) detachDispatcher(connID uint64, roads []uint16) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	for _, roadID := range roads {
		handles := s.dispatchers[roadID]
		for i, h := range handles {
			if h.connID == connID {
				s.dispatchers[roadID] = append(handles[:i], handles[i+1:]...)
				break
			}
		}
	}
}
