// Package confirm holds pending yes/no confirmations, one per player. A
// confirmation is consumed at most once — by either the yes path or the no
// path — and a periodic sweep evicts entries nobody answered.
package confirm

import (
	"sort"
	"sync"
	"time"
)

type pending struct {
	yes   func()
	no    func()
	setAt time.Time
}

// Service is the in-memory confirmation registry. Nothing here persists;
// an unanswered confirmation simply dies with the process.
type Service struct {
	mu      sync.Mutex
	pending map[string]pending
	now     func() time.Time
}

// New creates an empty registry.
func New() *Service {
	return &Service{
		pending: make(map[string]pending),
		now:     time.Now,
	}
}

// SetClock overrides the service clock. Test helper.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Set registers a confirmation for the player, replacing any pending one.
func (s *Service) Set(playerID string, yes, no func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[playerID] = pending{yes: yes, no: no, setAt: s.now()}
}

// ConsumeYes removes the player's confirmation and returns its yes callback,
// or nil when none is pending.
func (s *Service) ConsumeYes(playerID string) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[playerID]
	if !ok {
		return nil
	}
	delete(s.pending, playerID)
	return p.yes
}

// ConsumeNo removes the player's confirmation and returns its no callback,
// or nil when none is pending.
func (s *Service) ConsumeNo(playerID string) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[playerID]
	if !ok {
		return nil
	}
	delete(s.pending, playerID)
	return p.no
}

// Has reports whether the player has a pending confirmation.
func (s *Service) Has(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[playerID]
	return ok
}

// Cancel drops the player's pending confirmation, if any.
func (s *Service) Cancel(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, playerID)
}

// Sweep evicts confirmations older than timeout and returns how many went.
func (s *Service) Sweep(timeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, p := range s.pending {
		if now.Sub(p.setAt) > timeout {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}

// Age is one pending confirmation's age, for statistics.
type Age struct {
	PlayerID string        `json:"player_id"`
	Age      time.Duration `json:"age"`
}

// Stats summarizes the pending set.
type Stats struct {
	Active     int           `json:"active"`
	Ages       []Age         `json:"ages"`
	AverageAge time.Duration `json:"average_age"`
	Stale      int           `json:"stale"` // older than staleAfter
}

// Statistics reports the pending set as of now. staleAfter marks how old a
// confirmation must be to count as stale.
func (s *Service) Statistics(staleAfter time.Duration) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := Stats{Active: len(s.pending)}
	var total time.Duration
	for id, p := range s.pending {
		age := now.Sub(p.setAt)
		st.Ages = append(st.Ages, Age{PlayerID: id, Age: age})
		total += age
		if age > staleAfter {
			st.Stale++
		}
	}
	if len(s.pending) > 0 {
		st.AverageAge = total / time.Duration(len(s.pending))
	}
	sort.Slice(st.Ages, func(i, j int) bool { return st.Ages[i].Age > st.Ages[j].Age })
	return st
}
