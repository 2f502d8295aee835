// Package treaty tracks treaty violations and their consequences: an
// immediate treasury penalty, a reputation hit with every other nation, and
// a derived gate that strips serial violators of the right to declare war.
package treaty

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

// Diplomacy is the external reputation ledger.
type Diplomacy interface {
	SetReputation(nationA, nationB string, delta float64)
}

// Violation is one recorded treaty breach. Records are append-only; only the
// Resolved flag may change afterwards.
type Violation struct {
	TreatyID    string    `json:"treaty_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
	Penalty     float64   `json:"penalty"`
	Resolved    bool      `json:"resolved"`
}

type violationFile struct {
	Violations []Violation `json:"violations"`
}

// Reject is the reason a record operation was refused.
type Reject string

const (
	RejectNone          Reject = ""
	RejectUnknownNation Reject = "unknown_nation"
	RejectNotFound      Reject = "not_found"
)

// Service owns the per-nation violation logs.
type Service struct {
	mu       sync.Mutex
	byNation map[string][]Violation

	nations   *nation.Store
	diplomacy Diplomacy
	files     *persistence.FileStore
	events    *engine.EventLog

	repDelta float64 // reputation delta applied per violation
	warLimit int     // unresolved violations beyond this forbid declaring war
	now      func() time.Time
}

// Open loads persisted violation logs.
func Open(nations *nation.Store, diplomacy Diplomacy, files *persistence.FileStore, events *engine.EventLog, repDelta float64, warLimit int) (*Service, error) {
	s := &Service{
		byNation:  make(map[string][]Violation),
		nations:   nations,
		diplomacy: diplomacy,
		files:     files,
		events:    events,
		repDelta:  repDelta,
		warLimit:  warLimit,
		now:       time.Now,
	}
	err := files.LoadAll(func(key string, data []byte) error {
		var vf violationFile
		if err := json.Unmarshal(data, &vf); err != nil {
			return err
		}
		s.byNation[key] = vf.Violations
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load violations: %w", err)
	}
	return s, nil
}

// Record logs a violation against the nation, debits the penalty (treasury
// clamps at zero), and applies the reputation delta toward every other
// nation.
func (s *Service) Record(nationID, treatyID, vtype, description string, penalty float64) Reject {
	unlock := s.nations.Lock(nationID)
	defer unlock()

	n := s.nations.Get(nationID)
	if n == nil {
		return RejectUnknownNation
	}

	now := s.now()
	v := Violation{
		TreatyID:    treatyID,
		Type:        vtype,
		Description: description,
		At:          now,
		Penalty:     penalty,
	}

	s.mu.Lock()
	s.byNation[nationID] = append(s.byNation[nationID], v)
	log := s.byNation[nationID]
	s.mu.Unlock()

	n.Treasury = math.Max(0, n.Treasury-penalty)
	n.AddHistory(fmt.Sprintf("Нарушение договора: %s (штраф: %.0f)", description, penalty))
	s.nations.Save(n)
	s.saveLog(nationID, log)

	for _, other := range s.nations.All() {
		if other.ID == nationID {
			continue
		}
		s.diplomacy.SetReputation(nationID, other.ID, s.repDelta)
	}

	if s.events != nil {
		s.events.Emit(engine.Event{
			At:          now,
			Nation:      nationID,
			Category:    engine.CategoryDiplomacy,
			Description: fmt.Sprintf("treaty violation (%s): %s", vtype, description),
		})
	}
	return RejectNone
}

// Violations returns a copy of the nation's violation log, oldest first.
func (s *Service) Violations(nationID string) []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Violation, len(s.byNation[nationID]))
	copy(out, s.byNation[nationID])
	return out
}

// Resolve marks the violation at index as resolved.
func (s *Service) Resolve(nationID string, index int) Reject {
	s.mu.Lock()
	log := s.byNation[nationID]
	if index < 0 || index >= len(log) {
		s.mu.Unlock()
		return RejectNotFound
	}
	log[index].Resolved = true
	snapshot := make([]Violation, len(log))
	copy(snapshot, log)
	s.mu.Unlock()

	s.saveLog(nationID, snapshot)
	return RejectNone
}

// CanDeclareWar reports whether the nation is still allowed to open new
// wars. Recomputed from the log on every read, never stored.
func (s *Service) CanDeclareWar(nationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	unresolved := 0
	for _, v := range s.byNation[nationID] {
		if !v.Resolved {
			unresolved++
		}
	}
	return unresolved <= s.warLimit
}

func (s *Service) saveLog(nationID string, log []Violation) {
	if err := s.files.Save(nationID, violationFile{Violations: log}); err != nil {
		slog.Error("violation log save failed", "nation", nationID, "error", err)
	}
}
