// Package border renders nation borders for players who opted in. A fast
// tick compares the ownership of each opted-in player's current chunk
// against its eight neighbors and emits a boundary marker wherever ownership
// differs. Pure read-side work — the toggle is ephemeral and nothing here is
// persisted.
package border

import (
	"sync"
	"time"

	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/world"
)

// Actor is one online player and their current position.
type Actor struct {
	PlayerID string
	Chunk    world.ChunkPos
}

// Presence exposes the hosting runtime's session state.
type Presence interface {
	Online() []Actor
	NationOf(playerID string) string
}

// Marker is one boundary signal: a block position and whether the player's
// own nation holds the side it sits on.
type Marker struct {
	World string
	X, Z  int
	Owned bool
}

// MarkerSink receives boundary markers for one player, typically to spawn
// particles at the position.
type MarkerSink interface {
	Mark(playerID string, m Marker)
}

// Service owns the per-player toggles and the redraw tick.
type Service struct {
	mu      sync.Mutex
	enabled map[string]bool

	nations  *nation.Store
	presence Presence
	sink     MarkerSink
}

// New wires the service.
func New(nations *nation.Store, presence Presence, sink MarkerSink) *Service {
	return &Service{
		enabled:  make(map[string]bool),
		nations:  nations,
		presence: presence,
		sink:     sink,
	}
}

// Toggle flips the player's visualization flag and returns the new state.
func (s *Service) Toggle(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[playerID] = !s.enabled[playerID]
	return s.enabled[playerID]
}

// Enable turns visualization on for the player.
func (s *Service) Enable(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[playerID] = true
}

// Disable turns visualization off for the player.
func (s *Service) Disable(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[playerID] = false
}

// Clear forgets the player's flag entirely.
func (s *Service) Clear(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.enabled, playerID)
}

// Enabled reports the player's current flag.
func (s *Service) Enabled(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[playerID]
}

// Tick redraws borders for every opted-in online player.
func (s *Service) Tick(now time.Time) {
	for _, actor := range s.presence.Online() {
		if !s.Enabled(actor.PlayerID) {
			continue
		}
		nationID := s.presence.NationOf(actor.PlayerID)
		if nationID == "" {
			continue
		}
		n := s.nations.Get(nationID)
		if n == nil {
			continue
		}
		s.markFor(actor, n)
	}
}

// markFor emits a marker toward every neighboring chunk whose ownership
// differs from the chunk the actor stands in.
func (s *Service) markFor(actor Actor, n *nation.Nation) {
	here := actor.Chunk
	owned := n.OwnsChunk(here.Key())

	for _, adj := range here.Neighbors8() {
		if n.OwnsChunk(adj.Key()) == owned {
			continue
		}
		x, z := here.EdgeBlock(adj.X-here.X, adj.Z-here.Z)
		s.sink.Mark(actor.PlayerID, Marker{World: here.World, X: x, Z: z, Owned: owned})
	}
}
