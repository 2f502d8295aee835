// Package alliance answers ally queries and fans messages out to allied
// citizens. Ally lists live on the Nation record itself; this package adds
// the symmetric query, territory access, and the derived statistics.
package alliance

import (
	"sort"

	"github.com/talgya/nationsim/internal/nation"
)

// Messenger delivers a chat line to one player. Send reports whether the
// player was reachable (online).
type Messenger interface {
	Send(playerID, message string) bool
}

// Directory resolves a player to the nation they belong to; empty string
// when they belong to none.
type Directory interface {
	NationOf(playerID string) string
}

// Military optionally supplies a nation's military strength for the combined
// alliance figures.
type Military interface {
	MilitaryStrength(nationID string) float64
}

// Service answers alliance queries against the nation store.
type Service struct {
	nations   *nation.Store
	messenger Messenger
	directory Directory
	military  Military // may be nil; falls back to a population estimate
}

// New wires the service. military may be nil.
func New(nations *nation.Store, messenger Messenger, directory Directory, military Military) *Service {
	return &Service{
		nations:   nations,
		messenger: messenger,
		directory: directory,
		military:  military,
	}
}

// AreAllies reports whether the two nations are allied. The relation holds
// when either side lists the other; storage is one-sided and the query is
// deliberately symmetric.
func (s *Service) AreAllies(nationA, nationB string) bool {
	a := s.nations.Get(nationA)
	b := s.nations.Get(nationB)
	if a == nil || b == nil {
		return false
	}
	return a.HasAlly(nationB) || b.HasAlly(nationA)
}

// CanAccessAlliedTerritory reports whether the player may enter the target
// nation's territory: their own nation, or a nation their nation lists as an
// ally.
func (s *Service) CanAccessAlliedTerritory(playerID, targetNationID string) bool {
	nationID := s.directory.NationOf(playerID)
	if nationID == "" {
		return false
	}
	n := s.nations.Get(nationID)
	if n == nil {
		return false
	}
	return n.ID == targetNationID || n.HasAlly(targetNationID)
}

// Broadcast delivers the message to every citizen of every ally of the
// sender nation and returns how many citizens it reached.
func (s *Service) Broadcast(senderNationID, message string) int {
	sender := s.nations.Get(senderNationID)
	if sender == nil {
		return 0
	}

	delivered := 0
	for allyID := range sender.Allies {
		ally := s.nations.Get(allyID)
		if ally == nil {
			continue
		}
		for _, citizen := range ally.Citizens() {
			if s.messenger.Send(citizen, "[A] "+sender.Name+": "+message) {
				delivered++
			}
		}
	}
	return delivered
}

// strength returns the military strength figure used in statistics.
func (s *Service) strength(n *nation.Nation) float64 {
	if s.military != nil {
		return s.military.MilitaryStrength(n.ID)
	}
	return float64(len(n.Roles)) * 10.0 // population estimate
}

// Stats is the per-nation alliance view.
type Stats struct {
	Allies           int      `json:"allies"`
	AlliesList       []string `json:"allies_list"`
	CombinedStrength float64  `json:"combined_strength"`
	Rating           string   `json:"rating"`
}

// Statistics summarizes one nation's alliances.
func (s *Service) Statistics(nationID string) Stats {
	n := s.nations.Get(nationID)
	if n == nil {
		return Stats{AlliesList: []string{}}
	}

	allies := make([]string, 0, len(n.Allies))
	for id := range n.Allies {
		allies = append(allies, id)
	}
	sort.Strings(allies)

	combined := 0.0
	for _, allyID := range allies {
		if ally := s.nations.Get(allyID); ally != nil {
			combined += s.strength(ally)
		}
	}

	return Stats{
		Allies:           len(allies),
		AlliesList:       allies,
		CombinedStrength: combined,
		Rating:           sizeRating(len(allies)),
	}
}

func sizeRating(allies int) string {
	switch {
	case allies >= 10:
		return "ОГРОМНЫЙ"
	case allies >= 7:
		return "БОЛЬШОЙ"
	case allies >= 5:
		return "ЗНАЧИТЕЛЬНЫЙ"
	case allies >= 3:
		return "СРЕДНИЙ"
	default:
		return "МАЛЕНЬКИЙ"
	}
}

// Benefits are the passive bonuses alliances grant, as multipliers.
type Benefits struct {
	Trade     float64 `json:"trade"`     // +2% per ally
	Defense   float64 `json:"defense"`   // +5% per ally
	Diplomacy float64 `json:"diplomacy"` // +3% per ally
}

// BenefitsFor computes the nation's current alliance bonuses.
func (s *Service) BenefitsFor(nationID string) Benefits {
	n := s.nations.Get(nationID)
	if n == nil {
		return Benefits{Trade: 1, Defense: 1, Diplomacy: 1}
	}
	count := float64(len(n.Allies))
	return Benefits{
		Trade:     1.0 + count*0.02,
		Defense:   1.0 + count*0.05,
		Diplomacy: 1.0 + count*0.03,
	}
}

// NationAllies pairs a nation with its ally count, for rankings.
type NationAllies struct {
	NationID string `json:"nation_id"`
	Allies   int    `json:"allies"`
}

// GlobalStats is the population-wide alliance view.
type GlobalStats struct {
	TotalRelations    int            `json:"total_relations"` // each alliance counted once
	NationsWithAllies int            `json:"nations_with_allies"`
	MaxAllies         int            `json:"max_allies"`
	AverageAllies     float64        `json:"average_allies"`
	Distribution      map[int]int    `json:"distribution"` // ally count -> nations
	TopByAllies       []NationAllies `json:"top_by_allies"`
}

// GlobalStatistics scans a population snapshot.
func (s *Service) GlobalStatistics() GlobalStats {
	gs := GlobalStats{Distribution: make(map[int]int)}
	totalLists := 0

	all := s.nations.All()
	for _, n := range all {
		count := len(n.Allies)
		gs.Distribution[count]++
		gs.TopByAllies = append(gs.TopByAllies, NationAllies{NationID: n.ID, Allies: count})
		if count > 0 {
			gs.NationsWithAllies++
			totalLists += count
			if count > gs.MaxAllies {
				gs.MaxAllies = count
			}
		}
	}

	// Each alliance appears on up to two ally lists.
	gs.TotalRelations = totalLists / 2
	if gs.NationsWithAllies > 0 {
		gs.AverageAllies = float64(totalLists) / float64(gs.NationsWithAllies)
	}

	sort.Slice(gs.TopByAllies, func(i, j int) bool {
		if gs.TopByAllies[i].Allies != gs.TopByAllies[j].Allies {
			return gs.TopByAllies[i].Allies > gs.TopByAllies[j].Allies
		}
		return gs.TopByAllies[i].NationID < gs.TopByAllies[j].NationID
	})
	if len(gs.TopByAllies) > 10 {
		gs.TopByAllies = gs.TopByAllies[:10]
	}
	return gs
}
