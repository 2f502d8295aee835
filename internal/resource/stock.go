// Package resource manages nation stockpiles (iron, coal, food, ...) and the
// processing facilities that refine raw stock into finished goods each tick.
package resource

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/nationsim/internal/persistence"
)

// Stocks owns the per-nation resource amounts. Amounts never go negative;
// consumption is all-or-nothing.
type Stocks struct {
	mu       sync.Mutex
	byNation map[string]map[string]float64 // nationID -> resource -> amount
	files    *persistence.FileStore
}

// OpenStocks eagerly loads all persisted stockpiles.
func OpenStocks(files *persistence.FileStore) (*Stocks, error) {
	s := &Stocks{
		byNation: make(map[string]map[string]float64),
		files:    files,
	}
	err := files.LoadAll(func(key string, data []byte) error {
		stock := make(map[string]float64)
		if err := json.Unmarshal(data, &stock); err != nil {
			return err
		}
		s.byNation[key] = stock
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load stockpiles: %w", err)
	}
	return s, nil
}

// Add credits amount of the resource to the nation's stockpile.
func (s *Stocks) Add(nationID, resource string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stock, ok := s.byNation[nationID]
	if !ok {
		stock = make(map[string]float64)
		s.byNation[nationID] = stock
	}
	stock[resource] += amount
	s.save(nationID, stock)
}

// Consume debits amount of the resource. Returns false — leaving the
// stockpile untouched — when the nation holds less than amount.
func (s *Stocks) Consume(nationID, resource string, amount float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stock, ok := s.byNation[nationID]
	if !ok {
		return false
	}
	current := stock[resource]
	if current < amount {
		return false
	}
	stock[resource] = current - amount
	s.save(nationID, stock)
	return true
}

// Transfer moves amount of the resource between nations. The credit only
// happens when the debit succeeded. There is no compensating re-credit path:
// both halves run in-process, so a failure between them cannot occur today.
func (s *Stocks) Transfer(fromNationID, toNationID, resource string, amount float64) bool {
	if !s.Consume(fromNationID, resource, amount) {
		return false
	}
	s.Add(toNationID, resource, amount)
	return true
}

// Amount returns the nation's current holding of one resource.
func (s *Stocks) Amount(nationID, resource string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byNation[nationID][resource]
}

// NationResources returns a copy of the nation's full stockpile.
func (s *Stocks) NationResources(nationID string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]float64, len(s.byNation[nationID]))
	for res, amt := range s.byNation[nationID] {
		out[res] = amt
	}
	return out
}

// resourceValueFactor converts raw stockpile units into treasury value.
const resourceValueFactor = 10.0

// Value estimates the treasury value of a nation's entire stockpile.
func (s *Stocks) Value(nationID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, amt := range s.byNation[nationID] {
		total += amt
	}
	return total * resourceValueFactor
}

// save persists one nation's stockpile. Caller holds s.mu. Failures are
// logged and swallowed; memory stays authoritative.
func (s *Stocks) save(nationID string, stock map[string]float64) {
	if err := s.files.Save(nationID, stock); err != nil {
		slog.Error("stockpile save failed", "nation", nationID, "error", err)
	}
}

// ResourceAmount pairs a resource with an amount, for sorted statistics.
type ResourceAmount struct {
	Resource string  `json:"resource"`
	Amount   float64 `json:"amount"`
}

// Stats is the per-nation stockpile view.
type Stats struct {
	Total        float64            `json:"total"`
	Types        int                `json:"types"`
	Resources    map[string]float64 `json:"resources"`
	TopResources []ResourceAmount   `json:"top_resources"`
}

// Statistics summarizes one nation's stockpile.
func (s *Stocks) Statistics(nationID string) Stats {
	resources := s.NationResources(nationID)

	st := Stats{Resources: resources, Types: len(resources)}
	for res, amt := range resources {
		st.Total += amt
		st.TopResources = append(st.TopResources, ResourceAmount{Resource: res, Amount: amt})
	}
	sort.Slice(st.TopResources, func(i, j int) bool {
		if st.TopResources[i].Amount != st.TopResources[j].Amount {
			return st.TopResources[i].Amount > st.TopResources[j].Amount
		}
		return st.TopResources[i].Resource < st.TopResources[j].Resource
	})
	if len(st.TopResources) > 5 {
		st.TopResources = st.TopResources[:5]
	}
	return st
}

// GlobalStats aggregates every stockpile in the world.
type GlobalStats struct {
	TotalTypes           int                `json:"total_types"`
	TotalValue           float64            `json:"total_value"`
	GlobalResources      map[string]float64 `json:"global_resources"`
	TopResources         []ResourceAmount   `json:"top_resources"`
	NationsWithResources int                `json:"nations_with_resources"`
}

// GlobalStatistics sums stockpiles across all nations from one snapshot.
func (s *Stocks) GlobalStatistics() GlobalStats {
	s.mu.Lock()
	global := make(map[string]float64)
	totalValue := 0.0
	nations := len(s.byNation)
	for _, stock := range s.byNation {
		for res, amt := range stock {
			global[res] += amt
			totalValue += amt * resourceValueFactor
		}
	}
	s.mu.Unlock()

	gs := GlobalStats{
		TotalTypes:           len(global),
		TotalValue:           totalValue,
		GlobalResources:      global,
		NationsWithResources: nations,
	}
	for res, amt := range global {
		gs.TopResources = append(gs.TopResources, ResourceAmount{Resource: res, Amount: amt})
	}
	sort.Slice(gs.TopResources, func(i, j int) bool {
		if gs.TopResources[i].Amount != gs.TopResources[j].Amount {
			return gs.TopResources[i].Amount > gs.TopResources[j].Amount
		}
		return gs.TopResources[i].Resource < gs.TopResources[j].Resource
	})
	if len(gs.TopResources) > 10 {
		gs.TopResources = gs.TopResources[:10]
	}
	return gs
}
