// Package economy implements currency exchange between nations. Every
// nation's currency converts through the common reference unit (AXC); the
// receiving nation's treasury collects the exchange fee.
package economy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/nation"
)

// Wallet is the external per-player balance ledger.
type Wallet interface {
	Balance(playerID string) float64
	Withdraw(playerID string, amount float64) error
	Deposit(playerID string, amount float64) error
}

// Reject is the reason an exchange was refused with no state change.
type Reject string

const (
	RejectNone              Reject = ""
	RejectUnknownNation     Reject = "unknown_nation"
	RejectInsufficientFunds Reject = "insufficient_funds"
)

// Result describes a completed (or refused) exchange.
type Result struct {
	Reject Reject
	Net    float64 // amount deposited to the player, in the target currency
	Fee    float64 // fee credited to the target nation's treasury
}

// Exchanger converts player funds between nation currencies.
type Exchanger struct {
	nations *nation.Store
	wallet  Wallet
	events  *engine.EventLog
	feeRate float64
	now     func() time.Time
}

// NewExchanger wires the exchanger. feeRate is the fraction of the converted
// amount kept as fee (0.02 = 2%).
func NewExchanger(nations *nation.Store, wallet Wallet, events *engine.EventLog, feeRate float64) *Exchanger {
	return &Exchanger{
		nations: nations,
		wallet:  wallet,
		events:  events,
		feeRate: feeRate,
		now:     time.Now,
	}
}

// Exchange converts amount of fromNation's currency into toNation's currency
// for the player. Both nation locks are held for the whole sequence.
//
// The wallet withdraw, wallet deposit, and treasury credit are three
// independent external calls, not one transaction: a wallet failure between
// withdraw and deposit loses the player's funds. Kept as-is deliberately;
// see the partial-failure test before changing this.
func (e *Exchanger) Exchange(playerID, fromNationID, toNationID string, amount float64) Result {
	unlock := e.nations.Lock(fromNationID, toNationID)
	defer unlock()

	from := e.nations.Get(fromNationID)
	to := e.nations.Get(toNationID)
	if from == nil || to == nil {
		return Result{Reject: RejectUnknownNation}
	}
	if e.wallet.Balance(playerID) < amount {
		return Result{Reject: RejectInsufficientFunds}
	}

	// from currency -> AXC -> to currency
	axc := amount * from.ExchangeRateToAXC
	converted := axc / to.ExchangeRateToAXC
	fee := converted * e.feeRate
	net := converted - fee

	if err := e.wallet.Withdraw(playerID, amount); err != nil {
		slog.Error("exchange withdraw failed", "player", playerID, "error", err)
		return Result{Reject: RejectInsufficientFunds}
	}
	if err := e.wallet.Deposit(playerID, net); err != nil {
		slog.Error("exchange deposit failed after withdraw", "player", playerID, "amount", net, "error", err)
	}
	to.Treasury += fee
	e.nations.Save(to)

	if e.events != nil {
		e.events.Emit(engine.Event{
			At:       e.now(),
			Nation:   toNationID,
			Category: engine.CategoryEconomy,
			Description: fmt.Sprintf("exchanged %.2f %s to %.2f %s (fee %.2f)",
				amount, from.CurrencyCode, net, to.CurrencyCode, fee),
		})
	}
	return Result{Net: net, Fee: fee}
}

// Rate returns how many units of toNation's currency one unit of
// fromNation's currency buys, before fees. Unknown nations rate at 1.
func (e *Exchanger) Rate(fromNationID, toNationID string) float64 {
	from := e.nations.Get(fromNationID)
	to := e.nations.Get(toNationID)
	if from == nil || to == nil {
		return 1.0
	}
	return from.ExchangeRateToAXC / to.ExchangeRateToAXC
}

// Fee returns the fee a given exchange would incur.
func (e *Exchanger) Fee(fromNationID, toNationID string, amount float64) float64 {
	from := e.nations.Get(fromNationID)
	to := e.nations.Get(toNationID)
	if from == nil || to == nil {
		return 0
	}
	converted := amount * from.ExchangeRateToAXC / to.ExchangeRateToAXC
	return converted * e.feeRate
}

// AllRates returns the exchange rate from the given nation to every other
// nation, keyed by the other nation's ID.
func (e *Exchanger) AllRates(nationID string) map[string]float64 {
	rates := make(map[string]float64)
	if e.nations.Get(nationID) == nil {
		return rates
	}
	for _, other := range e.nations.All() {
		if other.ID == nationID {
			continue
		}
		rates[other.ID] = e.Rate(nationID, other.ID)
	}
	return rates
}

// RateRating buckets an AXC rate into the display ratings.
func RateRating(rate float64) string {
	switch {
	case rate > 2.0:
		return "ВЫСОКИЙ КУРС"
	case rate < 0.5:
		return "НИЗКИЙ КУРС"
	default:
		return "СТАНДАРТНАЯ"
	}
}

// Stats is the per-nation currency view.
type Stats struct {
	CurrencyCode string             `json:"currency_code"`
	RateToAXC    float64            `json:"rate_to_axc"`
	Rating       string             `json:"rating"`
	Rates        map[string]float64 `json:"rates"` // to every other nation
}

// Statistics summarizes one nation's currency.
func (e *Exchanger) Statistics(nationID string) (Stats, bool) {
	n := e.nations.Get(nationID)
	if n == nil {
		return Stats{}, false
	}
	return Stats{
		CurrencyCode: n.CurrencyCode,
		RateToAXC:    n.ExchangeRateToAXC,
		Rating:       RateRating(n.ExchangeRateToAXC),
		Rates:        e.AllRates(nationID),
	}, true
}

// GlobalStats summarizes exchange rates across the population.
type GlobalStats struct {
	UniqueCurrencies int            `json:"unique_currencies"`
	AverageRate      float64        `json:"average_rate"`
	MinRate          float64        `json:"min_rate"`
	MaxRate          float64        `json:"max_rate"`
	Distribution     map[string]int `json:"distribution"` // high / medium / low
}

// GlobalStatistics scans a population snapshot.
func (e *Exchanger) GlobalStatistics() GlobalStats {
	gs := GlobalStats{Distribution: map[string]int{"high": 0, "medium": 0, "low": 0}}

	codes := make(map[string]bool)
	var rateSum float64
	all := e.nations.All()
	for i, n := range all {
		codes[n.CurrencyCode] = true
		rate := n.ExchangeRateToAXC
		rateSum += rate
		if i == 0 || rate < gs.MinRate {
			gs.MinRate = rate
		}
		if rate > gs.MaxRate {
			gs.MaxRate = rate
		}
		switch {
		case rate > 2.0:
			gs.Distribution["high"]++
		case rate < 0.5:
			gs.Distribution["low"]++
		default:
			gs.Distribution["medium"]++
		}
	}
	gs.UniqueCurrencies = len(codes)
	if len(all) > 0 {
		gs.AverageRate = rateSum / float64(len(all))
	}
	return gs
}
