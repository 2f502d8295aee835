// Package coup implements coup attempts and regime changes. A nation-wide
// cooldown limits attempts to one per week; the outcome is a single random
// draw weighted by how unhappy the population is.
package coup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/entropy"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

// HappinessSource reports a nation's population happiness in [0, 100].
type HappinessSource interface {
	NationHappiness(nationID string) float64
}

// Reject is the reason an attempt was refused before any state changed.
type Reject string

const (
	RejectNone              Reject = ""
	RejectUnknownNation     Reject = "unknown_nation"
	RejectNotMember         Reject = "not_member"
	RejectInsufficientFunds Reject = "insufficient_funds"
	RejectCooldown          Reject = "cooldown"
)

// Result describes one coup attempt. Attempted is true when preconditions
// passed: the cost was debited and the cooldown reset whether or not the
// coup itself succeeded.
type Result struct {
	Attempted bool
	Succeeded bool
	Reject    Reject
}

type cooldownRecord struct {
	LastAttempt int64 `json:"last_attempt"` // unix ms
}

// Service runs coup attempts against the nation store.
type Service struct {
	nations   *nation.Store
	happiness HappinessSource
	rand      entropy.Source
	files     *persistence.FileStore
	events    *engine.EventLog

	cooldown    time.Duration
	floorChance float64
	now         func() time.Time

	mu          sync.Mutex
	lastAttempt map[string]time.Time // nationID -> time of last attempt
}

// New loads persisted cooldowns and returns the service.
func New(nations *nation.Store, happiness HappinessSource, rand entropy.Source, files *persistence.FileStore, events *engine.EventLog, cooldown time.Duration, floorChance float64) (*Service, error) {
	s := &Service{
		nations:     nations,
		happiness:   happiness,
		rand:        rand,
		files:       files,
		events:      events,
		cooldown:    cooldown,
		floorChance: floorChance,
		now:         time.Now,
		lastAttempt: make(map[string]time.Time),
	}
	err := files.LoadAll(func(key string, data []byte) error {
		var rec cooldownRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		s.lastAttempt[key] = time.UnixMilli(rec.LastAttempt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load coup cooldowns: %w", err)
	}
	return s, nil
}

// SetClock overrides the service clock. Test helper.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Attempt runs one coup attempt by instigatorID against nationID. The whole
// sequence — precondition checks, treasury debit, cooldown reset, the single
// random draw, and the role swap — runs under the nation's mutation lock.
func (s *Service) Attempt(nationID, instigatorID string, cost float64) Result {
	unlock := s.nations.Lock(nationID)
	defer unlock()

	n := s.nations.Get(nationID)
	if n == nil {
		return Result{Reject: RejectUnknownNation}
	}
	if !n.IsMember(instigatorID) {
		return Result{Reject: RejectNotMember}
	}
	if n.Treasury < cost {
		return Result{Reject: RejectInsufficientFunds}
	}
	now := s.now()
	if !s.offCooldown(nationID, now) {
		return Result{Reject: RejectCooldown}
	}

	// Sunk cost: the attempt is paid for and the cooldown starts regardless
	// of the outcome.
	n.Treasury -= cost
	s.setLastAttempt(nationID, now)

	happiness := s.happiness.NationHappiness(nationID)
	chance := math.Max(s.floorChance, 1.0-happiness/100.0)
	succeeded := s.rand.Float64() < chance

	if succeeded {
		n.SetLeader(instigatorID)
		n.AddHistory(fmt.Sprintf("Государственный переворот! Новый лидер: %s", instigatorID))
	} else {
		n.AddHistory("Неудачная попытка переворота!")
	}
	s.nations.Save(n)

	s.emit(now, nationID, succeeded, instigatorID)
	slog.Info("coup attempt",
		"nation", nationID,
		"instigator", instigatorID,
		"cost", cost,
		"chance", chance,
		"succeeded", succeeded,
	)
	return Result{Attempted: true, Succeeded: succeeded}
}

func (s *Service) emit(now time.Time, nationID string, succeeded bool, instigatorID string) {
	if s.events == nil {
		return
	}
	desc := fmt.Sprintf("failed coup attempt in %s", nationID)
	if succeeded {
		desc = fmt.Sprintf("coup in %s: %s seizes power", nationID, instigatorID)
	}
	s.events.Emit(engine.Event{
		At:          now,
		Nation:      nationID,
		Category:    engine.CategoryPolitical,
		Description: desc,
	})
}

// CanAttempt reports whether the nation's cooldown window has elapsed.
func (s *Service) CanAttempt(nationID string) bool {
	return s.offCooldown(nationID, s.now())
}

func (s *Service) offCooldown(nationID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastAttempt[nationID]
	return !ok || now.Sub(last) >= s.cooldown
}

func (s *Service) setLastAttempt(nationID string, now time.Time) {
	s.mu.Lock()
	s.lastAttempt[nationID] = now
	s.mu.Unlock()

	if err := s.files.Save(nationID, cooldownRecord{LastAttempt: now.UnixMilli()}); err != nil {
		slog.Error("coup cooldown save failed", "nation", nationID, "error", err)
	}
}

// Risk returns the coup success chance for a nation given current happiness.
func (s *Service) Risk(nationID string) float64 {
	return math.Max(s.floorChance, 1.0-s.happiness.NationHappiness(nationID)/100.0)
}

// RiskRating buckets a risk value into the display ratings.
func RiskRating(risk float64) string {
	switch {
	case risk >= 0.8:
		return "КРИТИЧЕСКИЙ"
	case risk >= 0.6:
		return "ВЫСОКИЙ"
	case risk >= 0.4:
		return "СРЕДНИЙ"
	default:
		return "НИЗКИЙ"
	}
}
