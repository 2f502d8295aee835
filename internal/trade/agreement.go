// Package trade implements recurring trade agreements between nations. A
// periodic tick executes every due agreement: goods move from seller to
// buyer, and payment moves the other way when the buyer can afford it.
package trade

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
	"github.com/talgya/nationsim/internal/resource"
)

// Agreement is one recurring trade. The ID is derived from
// (nationA, nationB, resourceType), so the same triple can never hold two
// agreements at once. Nation A sells; nation B buys.
type Agreement struct {
	ID                string    `json:"id"`
	NationA           string    `json:"nation_a"`
	NationB           string    `json:"nation_b"`
	ResourceType      string    `json:"resource_type"`
	PricePerUnit      float64   `json:"price_per_unit"`
	QuantityPerPeriod float64   `json:"quantity_per_period"`
	NextTrade         time.Time `json:"next_trade"`
	Active            bool      `json:"active"`
}

// AgreementKey builds the deterministic agreement ID.
func AgreementKey(nationA, nationB, resourceType string) string {
	return nationA + "_" + nationB + "_" + resourceType
}

// Reject is the reason an agreement operation was refused.
type Reject string

const (
	RejectNone          Reject = ""
	RejectAlreadyExists Reject = "already_exists"
	RejectNotFound      Reject = "not_found"
)

// Service owns the agreements and runs the periodic execution pass.
type Service struct {
	mu         sync.Mutex
	agreements map[string]*Agreement

	nations *nation.Store
	stocks  *resource.Stocks
	files   *persistence.FileStore
	events  *engine.EventLog
	period  time.Duration
	now     func() time.Time
}

// Open loads persisted agreements.
func Open(nations *nation.Store, stocks *resource.Stocks, files *persistence.FileStore, events *engine.EventLog, period time.Duration) (*Service, error) {
	s := &Service{
		agreements: make(map[string]*Agreement),
		nations:    nations,
		stocks:     stocks,
		files:      files,
		events:     events,
		period:     period,
		now:        time.Now,
	}
	err := files.LoadAll(func(key string, data []byte) error {
		var a Agreement
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		s.agreements[a.ID] = &a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load trade agreements: %w", err)
	}
	return s, nil
}

// SetClock overrides the service clock. Test helper.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a new agreement. The first execution is scheduled one
// full period out.
func (s *Service) Create(nationA, nationB, resourceType string, pricePerUnit, quantityPerPeriod float64) Reject {
	id := AgreementKey(nationA, nationB, resourceType)

	s.mu.Lock()
	if _, exists := s.agreements[id]; exists {
		s.mu.Unlock()
		return RejectAlreadyExists
	}
	a := &Agreement{
		ID:                id,
		NationA:           nationA,
		NationB:           nationB,
		ResourceType:      resourceType,
		PricePerUnit:      pricePerUnit,
		QuantityPerPeriod: quantityPerPeriod,
		NextTrade:         s.now().Add(s.period),
		Active:            true,
	}
	s.agreements[id] = a
	s.mu.Unlock()

	s.save(a)
	slog.Info("trade agreement created",
		"id", id,
		"resource", resourceType,
		"quantity", quantityPerPeriod,
		"price", pricePerUnit,
	)
	return RejectNone
}

// Cancel deactivates and removes an agreement.
func (s *Service) Cancel(id string) Reject {
	s.mu.Lock()
	_, ok := s.agreements[id]
	delete(s.agreements, id)
	s.mu.Unlock()

	if !ok {
		return RejectNotFound
	}
	if err := s.files.Delete(id); err != nil {
		slog.Error("trade agreement delete failed", "id", id, "error", err)
	}
	return RejectNone
}

// Get returns a copy of one agreement.
func (s *Service) Get(id string) (Agreement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agreements[id]
	if !ok {
		return Agreement{}, false
	}
	return *a, true
}

// Agreements returns a snapshot of all agreements, sorted by ID.
func (s *Service) Agreements() []Agreement {
	s.mu.Lock()
	out := make([]Agreement, 0, len(s.agreements))
	for _, a := range s.agreements {
		out = append(out, *a)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tick executes every active agreement whose NextTrade has passed.
// NextTrade always advances by one period from now, executed or not, so a
// stalled agreement cannot refire on every subsequent pass.
//
// Goods move only when the seller's stock covers the full quantity. Payment
// moves only when the buyer's treasury covers it; otherwise goods flow with
// no payment and the seller eats the loss for this period.
func (s *Service) Tick(tickNow time.Time) {
	s.mu.Lock()
	due := make([]*Agreement, 0)
	for _, a := range s.agreements {
		if a.Active && !tickNow.Before(a.NextTrade) {
			due = append(due, a)
		}
	}
	s.mu.Unlock()

	for _, a := range due {
		s.execute(a, tickNow)
		s.advance(a, tickNow)
	}
}

// advance pushes the agreement one period out and persists it. An agreement
// canceled mid-pass is skipped, so the save cannot resurrect its file.
func (s *Service) advance(a *Agreement, tickNow time.Time) {
	s.mu.Lock()
	if _, live := s.agreements[a.ID]; !live {
		s.mu.Unlock()
		return
	}
	a.NextTrade = tickNow.Add(s.period)
	snapshot := *a
	s.mu.Unlock()

	if err := s.files.Save(snapshot.ID, &snapshot); err != nil {
		slog.Error("trade agreement save failed", "id", snapshot.ID, "error", err)
	}
}

func (s *Service) execute(a *Agreement, tickNow time.Time) {
	unlock := s.nations.Lock(a.NationA, a.NationB)
	defer unlock()

	if !s.stocks.Consume(a.NationA, a.ResourceType, a.QuantityPerPeriod) {
		return
	}
	s.stocks.Add(a.NationB, a.ResourceType, a.QuantityPerPeriod)

	payment := a.QuantityPerPeriod * a.PricePerUnit
	paid := false
	buyer := s.nations.Get(a.NationB)
	seller := s.nations.Get(a.NationA)
	if buyer != nil && seller != nil && buyer.Treasury >= payment {
		buyer.Treasury -= payment
		seller.Treasury += payment
		s.nations.Save(buyer)
		s.nations.Save(seller)
		paid = true
	}

	if s.events != nil {
		s.events.Emit(engine.Event{
			At:       tickNow,
			Nation:   a.NationA,
			Category: engine.CategoryEconomy,
			Description: fmt.Sprintf("trade %s: %.0f %s to %s (paid=%t)",
				a.ID, a.QuantityPerPeriod, a.ResourceType, a.NationB, paid),
		})
	}
}

func (s *Service) save(a *Agreement) {
	s.mu.Lock()
	snapshot := *a
	s.mu.Unlock()
	if err := s.files.Save(snapshot.ID, &snapshot); err != nil {
		slog.Error("trade agreement save failed", "id", snapshot.ID, "error", err)
	}
}
