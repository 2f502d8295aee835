package resource

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

// RawPrefix marks unrefined stock. A facility for resource type T consumes
// "raw_T" and produces "T".
const RawPrefix = "raw_"

// Facility converts raw stock into refined stock once per processing tick.
// At most one facility exists per (nation, resource type) pair.
type Facility struct {
	NationID     string  `json:"nation_id"`
	ResourceType string  `json:"resource_type"`
	Rate         float64 `json:"rate"`       // units per tick at 100% efficiency
	Efficiency   float64 `json:"efficiency"` // 0-100
	Active       bool    `json:"active"`
}

func facilityKey(nationID, resourceType string) string {
	return nationID + "_" + resourceType
}

// BuildReject is the reason a facility build was refused.
type BuildReject string

const (
	BuildOK                BuildReject = ""
	BuildUnknownNation     BuildReject = "unknown_nation"
	BuildInsufficientFunds BuildReject = "insufficient_funds"
	BuildAlreadyExists     BuildReject = "already_exists"
)

// Processor owns the facilities and runs the periodic refinement pass.
type Processor struct {
	mu         sync.Mutex
	facilities map[string]*Facility
	stocks     *Stocks
	nations    *nation.Store
	files      *persistence.FileStore
	yield      float64 // output fraction of consumed input
}

// OpenProcessor loads persisted facilities.
func OpenProcessor(stocks *Stocks, nations *nation.Store, files *persistence.FileStore, yield float64) (*Processor, error) {
	p := &Processor{
		facilities: make(map[string]*Facility),
		stocks:     stocks,
		nations:    nations,
		files:      files,
		yield:      yield,
	}
	err := files.LoadAll(func(key string, data []byte) error {
		var f Facility
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		p.facilities[key] = &f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load facilities: %w", err)
	}
	return p, nil
}

// Build erects a processing facility for the nation and resource type,
// debiting cost from the nation's treasury.
func (p *Processor) Build(nationID, resourceType string, cost float64) BuildReject {
	unlock := p.nations.Lock(nationID)
	defer unlock()

	n := p.nations.Get(nationID)
	if n == nil {
		return BuildUnknownNation
	}

	key := facilityKey(nationID, resourceType)

	// A duplicate build is a duplicate regardless of what it would cost.
	p.mu.Lock()
	if _, exists := p.facilities[key]; exists {
		p.mu.Unlock()
		return BuildAlreadyExists
	}
	if n.Treasury < cost {
		p.mu.Unlock()
		return BuildInsufficientFunds
	}
	f := &Facility{
		NationID:     nationID,
		ResourceType: resourceType,
		Rate:         10.0, // base rate
		Efficiency:   50.0,
		Active:       true,
	}
	p.facilities[key] = f
	p.mu.Unlock()

	n.Treasury -= cost
	n.AddHistory(fmt.Sprintf("Перерабатывающее предприятие построено: %s", resourceType))
	p.nations.Save(n)
	p.saveFacility(key, f)
	return BuildOK
}

// Tick runs one refinement pass over every active facility. A facility that
// cannot cover its full raw consumption produces nothing this pass.
func (p *Processor) Tick(now time.Time) {
	p.mu.Lock()
	snapshot := make([]*Facility, 0, len(p.facilities))
	for _, f := range p.facilities {
		if f.Active {
			snapshot = append(snapshot, f)
		}
	}
	p.mu.Unlock()

	for _, f := range snapshot {
		consumed := f.Rate * (f.Efficiency / 100.0)
		raw := RawPrefix + f.ResourceType
		if p.stocks.Consume(f.NationID, raw, consumed) {
			p.stocks.Add(f.NationID, f.ResourceType, consumed*p.yield)
		}
	}
}

// Rate returns the active processing rate for a (nation, type) pair, or 0.
func (p *Processor) Rate(nationID, resourceType string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.facilities[facilityKey(nationID, resourceType)]
	if !ok || !f.Active {
		return 0
	}
	return f.Rate
}

// SetActive toggles a facility. Returns false when no facility exists.
func (p *Processor) SetActive(nationID, resourceType string, active bool) bool {
	key := facilityKey(nationID, resourceType)

	p.mu.Lock()
	f, ok := p.facilities[key]
	if ok {
		f.Active = active
	}
	p.mu.Unlock()

	if ok {
		p.saveFacility(key, f)
	}
	return ok
}

// Facilities returns a snapshot of all facilities.
func (p *Processor) Facilities() []Facility {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Facility, 0, len(p.facilities))
	for _, f := range p.facilities {
		out = append(out, *f)
	}
	return out
}

func (p *Processor) saveFacility(key string, f *Facility) {
	if err := p.files.Save(key, f); err != nil {
		slog.Error("facility save failed", "facility", key, "error", err)
	}
}
