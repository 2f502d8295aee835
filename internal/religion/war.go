// Package religion implements religious wars (crusades, jihads). A declared
// religious war is a timed modifier on top of a regular war: declaring one
// also declares the underlying war through the diplomacy collaborator, and
// its expiry removes only the modifier, never the war itself.
package religion

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

// Diplomacy is the external war ledger.
type Diplomacy interface {
	DeclareWar(attackerID, targetID string)
}

// War is one active religious war.
type War struct {
	ID         string    `json:"id"`
	ReligionID string    `json:"religion_id"`
	AttackerID string    `json:"attacker_id"`
	TargetID   string    `json:"target_id"`
	Type       string    `json:"type"` // "crusade", "jihad", ...
	ExpiresAt  time.Time `json:"expires_at"`
}

// Reject is the reason a declaration was refused with no state change.
type Reject string

const (
	RejectNone              Reject = ""
	RejectUnknownNation     Reject = "unknown_nation"
	RejectInsufficientFunds Reject = "insufficient_funds"
)

// Service owns the active religious wars.
type Service struct {
	mu   sync.Mutex
	wars map[string]*War

	nations   *nation.Store
	diplomacy Diplomacy
	files     *persistence.FileStore
	events    *engine.EventLog

	cost float64
	now  func() time.Time
}

// Open loads persisted wars, discarding any that expired while the process
// was down. An expired war is never resurrected.
func Open(nations *nation.Store, diplomacy Diplomacy, files *persistence.FileStore, events *engine.EventLog, cost float64) (*Service, error) {
	s := &Service{
		wars:      make(map[string]*War),
		nations:   nations,
		diplomacy: diplomacy,
		files:     files,
		events:    events,
		cost:      cost,
		now:       time.Now,
	}
	err := files.LoadAll(func(key string, data []byte) error {
		var w War
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.ExpiresAt.After(s.now()) {
			s.wars[w.ID] = &w
		} else if err := files.Delete(key); err != nil {
			slog.Warn("stale war record cleanup failed", "war", key, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load religious wars: %w", err)
	}
	return s, nil
}

// SetClock overrides the service clock. Test helper.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Declare opens a religious war. The attacker pays the fixed cost, both
// nations record the declaration, and the underlying diplomatic war starts.
func (s *Service) Declare(religionID, attackerID, targetID, warType string, duration time.Duration) (War, Reject) {
	unlock := s.nations.Lock(attackerID, targetID)
	defer unlock()

	attacker := s.nations.Get(attackerID)
	target := s.nations.Get(targetID)
	if attacker == nil || target == nil {
		return War{}, RejectUnknownNation
	}
	if attacker.Treasury < s.cost {
		return War{}, RejectInsufficientFunds
	}

	now := s.now()
	w := &War{
		ID:         uuid.NewString()[:8],
		ReligionID: religionID,
		AttackerID: attackerID,
		TargetID:   targetID,
		Type:       warType,
		ExpiresAt:  now.Add(duration),
	}

	attacker.Treasury -= s.cost
	s.diplomacy.DeclareWar(attackerID, targetID)
	attacker.AddHistory(fmt.Sprintf("Объявлена %s против %s", warType, target.Name))
	target.AddHistory(fmt.Sprintf("Объявлена %s от %s", warType, attacker.Name))

	s.mu.Lock()
	s.wars[w.ID] = w
	s.mu.Unlock()

	s.nations.Save(attacker)
	s.nations.Save(target)
	if err := s.files.Save(w.ID, w); err != nil {
		slog.Error("religious war save failed", "war", w.ID, "error", err)
	}

	if s.events != nil {
		s.events.Emit(engine.Event{
			At:          now,
			Nation:      attackerID,
			Category:    engine.CategoryMilitary,
			Description: fmt.Sprintf("%s declared against %s (%s)", warType, targetID, w.ID),
		})
	}
	return *w, RejectNone
}

// Sweep removes every expired war and returns how many were removed. The
// underlying diplomatic war is untouched.
func (s *Service) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, w := range s.wars {
		if !w.ExpiresAt.After(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.wars, id)
	}
	s.mu.Unlock()

	for _, id := range expired {
		if err := s.files.Delete(id); err != nil {
			slog.Error("expired war delete failed", "war", id, "error", err)
		}
	}
	if len(expired) > 0 {
		slog.Info("religious wars expired", "count", len(expired))
	}
	return len(expired)
}

// Active returns a snapshot of the active wars.
func (s *Service) Active() []War {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]War, 0, len(s.wars))
	for _, w := range s.wars {
		out = append(out, *w)
	}
	return out
}
