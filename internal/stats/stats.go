// Package stats builds read-only aggregation views over the whole
// population. Every computation works from point-in-time snapshots of the
// underlying stores, so a long scan never starves live mutation; numbers may
// lag in-flight operations but are never corrupt.
package stats

import (
	"github.com/talgya/nationsim/internal/alliance"
	"github.com/talgya/nationsim/internal/coup"
	"github.com/talgya/nationsim/internal/economy"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/religion"
	"github.com/talgya/nationsim/internal/resource"
	"github.com/talgya/nationsim/internal/trade"
	"github.com/talgya/nationsim/internal/treaty"
)

// Service computes aggregate views from the live subsystems.
type Service struct {
	nations   *nation.Store
	coups     *coup.Service
	allies    *alliance.Service
	exchanger *economy.Exchanger
	stocks    *resource.Stocks
	trades    *trade.Service
	treaties  *treaty.Service
	wars      *religion.Service
}

// New wires the aggregator.
func New(nations *nation.Store, coups *coup.Service, allies *alliance.Service, exchanger *economy.Exchanger, stocks *resource.Stocks, trades *trade.Service, treaties *treaty.Service, wars *religion.Service) *Service {
	return &Service{
		nations:   nations,
		coups:     coups,
		allies:    allies,
		exchanger: exchanger,
		stocks:    stocks,
		trades:    trades,
		treaties:  treaties,
		wars:      wars,
	}
}

// Overview is the global snapshot.
type Overview struct {
	Nations          int                  `json:"nations"`
	TotalTreasury    float64              `json:"total_treasury"`
	Currency         economy.GlobalStats  `json:"currency"`
	Alliances        alliance.GlobalStats `json:"alliances"`
	Coups            coup.GlobalStats     `json:"coups"`
	Resources        resource.GlobalStats `json:"resources"`
	ActiveAgreements int                  `json:"active_agreements"`
	ActiveWars       int                  `json:"active_wars"`
}

// Global computes the world overview.
func (s *Service) Global() Overview {
	all := s.nations.All()

	o := Overview{
		Nations:   len(all),
		Currency:  s.exchanger.GlobalStatistics(),
		Alliances: s.allies.GlobalStatistics(),
		Coups:     s.coups.GlobalStatistics(),
		Resources: s.stocks.GlobalStatistics(),
	}
	for _, n := range all {
		o.TotalTreasury += n.Treasury
	}

	o.ActiveWars = len(s.wars.Active())
	for _, a := range s.trades.Agreements() {
		if a.Active {
			o.ActiveAgreements++
		}
	}
	return o
}

// Report is the per-nation snapshot.
type Report struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Treasury      float64            `json:"treasury"`
	Currency      economy.Stats      `json:"currency"`
	Citizens      int                `json:"citizens"`
	Chunks        int                `json:"chunks"`
	Coup          coup.Stats         `json:"coup"`
	Alliances     alliance.Stats     `json:"alliances"`
	Benefits      alliance.Benefits  `json:"benefits"`
	Resources     resource.Stats     `json:"resources"`
	ResourceValue float64            `json:"resource_value"`
	Violations    []treaty.Violation `json:"violations"`
	CanDeclareWar bool               `json:"can_declare_war"`
}

// Nation computes the report for one nation.
func (s *Service) Nation(id string) (Report, bool) {
	n := s.nations.Get(id)
	if n == nil {
		return Report{}, false
	}
	currency, _ := s.exchanger.Statistics(id)

	return Report{
		ID:            n.ID,
		Name:          n.Name,
		Treasury:      n.Treasury,
		Currency:      currency,
		Citizens:      len(n.Roles),
		Chunks:        len(n.Chunks),
		Coup:          s.coups.Statistics(id),
		Alliances:     s.allies.Statistics(id),
		Benefits:      s.allies.BenefitsFor(id),
		Resources:     s.stocks.Statistics(id),
		ResourceValue: s.stocks.Value(id),
		Violations:    s.treaties.Violations(id),
		CanDeclareWar: s.treaties.CanDeclareWar(id),
	}, true
}
