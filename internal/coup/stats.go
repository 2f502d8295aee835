package coup

import (
	"sort"
	"time"
)

// Stats is the per-nation coup view.
type Stats struct {
	CanAttempt            bool    `json:"can_attempt"`
	HasAttempted          bool    `json:"has_attempted"`
	DaysSinceLastAttempt  int64   `json:"days_since_last_attempt"` // -1 when never attempted
	CooldownRemainingDays int64   `json:"cooldown_remaining_days"`
	Risk                  float64 `json:"coup_risk"`
	RiskRating            string  `json:"risk_rating"`
}

// Statistics reports cooldown state and current risk for one nation.
func (s *Service) Statistics(nationID string) Stats {
	now := s.now()

	s.mu.Lock()
	last, attempted := s.lastAttempt[nationID]
	s.mu.Unlock()

	st := Stats{
		CanAttempt:           !attempted || now.Sub(last) >= s.cooldown,
		HasAttempted:         attempted,
		DaysSinceLastAttempt: -1,
	}
	if attempted {
		days := int64(now.Sub(last) / (24 * time.Hour))
		st.DaysSinceLastAttempt = days
		cooldownDays := int64(s.cooldown / (24 * time.Hour))
		if remaining := cooldownDays - days; remaining > 0 {
			st.CooldownRemainingDays = remaining
		}
	}

	st.Risk = s.Risk(nationID)
	st.RiskRating = RiskRating(st.Risk)
	return st
}

// NationRisk pairs a nation with its current coup risk.
type NationRisk struct {
	NationID string  `json:"nation_id"`
	Risk     float64 `json:"risk"`
}

// GlobalStats is the population-wide coup view.
type GlobalStats struct {
	TotalAttempts     int                `json:"total_attempts"`
	CanAttemptNow     int                `json:"can_attempt_now"`
	DaysSinceByNation map[string]int64   `json:"days_since_by_nation"`
	RiskByNation      map[string]float64 `json:"risk_by_nation"`
	AverageRisk       float64            `json:"average_risk"`
	TopByRisk         []NationRisk       `json:"top_by_risk"`
	RiskDistribution  map[string]int     `json:"risk_distribution"`
}

// GlobalStatistics scans cooldowns and the whole population. Reads take a
// point-in-time snapshot; concurrent attempts may or may not be reflected.
func (s *Service) GlobalStatistics() GlobalStats {
	now := s.now()

	s.mu.Lock()
	daysSince := make(map[string]int64, len(s.lastAttempt))
	canNow := 0
	for id, last := range s.lastAttempt {
		days := int64(now.Sub(last) / (24 * time.Hour))
		daysSince[id] = days
		if now.Sub(last) >= s.cooldown {
			canNow++
		}
	}
	total := len(s.lastAttempt)
	s.mu.Unlock()

	riskByNation := make(map[string]float64)
	var riskSum float64
	dist := map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}
	for _, n := range s.nations.All() {
		risk := s.Risk(n.ID)
		riskByNation[n.ID] = risk
		riskSum += risk
		switch {
		case risk >= 0.8:
			dist["critical"]++
		case risk >= 0.6:
			dist["high"]++
		case risk >= 0.4:
			dist["medium"]++
		default:
			dist["low"]++
		}
	}

	top := make([]NationRisk, 0, len(riskByNation))
	for id, risk := range riskByNation {
		top = append(top, NationRisk{NationID: id, Risk: risk})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Risk != top[j].Risk {
			return top[i].Risk > top[j].Risk
		}
		return top[i].NationID < top[j].NationID
	})
	if len(top) > 10 {
		top = top[:10]
	}

	avg := 0.0
	if len(riskByNation) > 0 {
		avg = riskSum / float64(len(riskByNation))
	}

	return GlobalStats{
		TotalAttempts:     total,
		CanAttemptNow:     canNow,
		DaysSinceByNation: daysSince,
		RiskByNation:      riskByNation,
		AverageRisk:       avg,
		TopByRisk:         top,
		RiskDistribution:  dist,
	}
}
