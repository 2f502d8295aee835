package economy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

type memWallet struct {
	balances map[string]float64
}

func (w *memWallet) Balance(playerID string) float64 { return w.balances[playerID] }

func (w *memWallet) Withdraw(playerID string, amount float64) error {
	if w.balances[playerID] < amount {
		return errors.New("insufficient balance")
	}
	w.balances[playerID] -= amount
	return nil
}

func (w *memWallet) Deposit(playerID string, amount float64) error {
	w.balances[playerID] += amount
	return nil
}

func newNations(t *testing.T) *nation.Store {
	t.Helper()
	fs, err := persistence.OpenFileStore(t.TempDir())
	require.NoError(t, err)
	nations, err := nation.Open(fs)
	require.NoError(t, err)
	return nations
}

func TestExchangeConvertsThroughAXC(t *testing.T) {
	nations := newNations(t)
	from := nation.New("Dacia", "Dacia", "king", "DAC", 1000)
	from.ExchangeRateToAXC = 2.0
	to := nation.New("Gallia", "Gallia", "chief", "GAL", 1000)
	to.ExchangeRateToAXC = 1.0
	nations.Put(from)
	nations.Put(to)

	wallet := &memWallet{balances: map[string]float64{"trader": 100}}
	ex := NewExchanger(nations, wallet, engine.NewEventLog(), 0.02)

	res := ex.Exchange("trader", "Dacia", "Gallia", 100)
	require.Equal(t, RejectNone, res.Reject)

	// 100 DAC * 2.0 = 200 AXC = 200 GAL, fee 2% = 4, net 196.
	assert.InDelta(t, 196.0, res.Net, 1e-9)
	assert.InDelta(t, 4.0, res.Fee, 1e-9)
	assert.InDelta(t, 196.0, wallet.balances["trader"], 1e-9)
	assert.InDelta(t, 1004.0, to.Treasury, 1e-9)
	assert.Equal(t, 1000.0, from.Treasury)
}

func TestExchangeRejects(t *testing.T) {
	nations := newNations(t)
	nations.Put(nation.New("Dacia", "Dacia", "king", "DAC", 1000))
	nations.Put(nation.New("Gallia", "Gallia", "chief", "GAL", 1000))

	wallet := &memWallet{balances: map[string]float64{"trader": 50}}
	ex := NewExchanger(nations, wallet, engine.NewEventLog(), 0.02)

	res := ex.Exchange("trader", "Atlantis", "Gallia", 10)
	require.Equal(t, RejectUnknownNation, res.Reject)

	res = ex.Exchange("trader", "Dacia", "Gallia", 100)
	require.Equal(t, RejectInsufficientFunds, res.Reject)
	assert.Equal(t, 50.0, wallet.balances["trader"])
}

type depositFailWallet struct {
	memWallet
}

func (w *depositFailWallet) Deposit(string, float64) error {
	return errors.New("wallet service down")
}

// Documents the partial-failure window: the withdraw, the deposit, and the
// treasury credit are three independent calls. A deposit failure after a
// successful withdraw loses the player's funds but still credits the fee.
func TestExchangeDepositFailureStillCreditsFee(t *testing.T) {
	nations := newNations(t)
	nations.Put(nation.New("Dacia", "Dacia", "king", "DAC", 1000))
	to := nation.New("Gallia", "Gallia", "chief", "GAL", 1000)
	nations.Put(to)

	wallet := &depositFailWallet{memWallet{balances: map[string]float64{"trader": 100}}}
	ex := NewExchanger(nations, wallet, engine.NewEventLog(), 0.02)

	res := ex.Exchange("trader", "Dacia", "Gallia", 100)
	require.Equal(t, RejectNone, res.Reject)

	assert.Equal(t, 0.0, wallet.balances["trader"])
	assert.InDelta(t, 1002.0, to.Treasury, 1e-9)
}

func TestRateAndFee(t *testing.T) {
	nations := newNations(t)
	from := nation.New("Dacia", "Dacia", "king", "DAC", 0)
	from.ExchangeRateToAXC = 3.0
	to := nation.New("Gallia", "Gallia", "chief", "GAL", 0)
	to.ExchangeRateToAXC = 1.5
	nations.Put(from)
	nations.Put(to)

	ex := NewExchanger(nations, &memWallet{balances: map[string]float64{}}, nil, 0.02)

	assert.InDelta(t, 2.0, ex.Rate("Dacia", "Gallia"), 1e-9)
	assert.Equal(t, 1.0, ex.Rate("Dacia", "Atlantis"))
	assert.InDelta(t, 4.0, ex.Fee("Dacia", "Gallia", 100), 1e-9) // 100*2.0*0.02
	assert.Equal(t, 0.0, ex.Fee("Dacia", "Atlantis", 100))
}

func TestStatistics(t *testing.T) {
	nations := newNations(t)
	rome := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	rome.ExchangeRateToAXC = 2.5
	gallia := nation.New("Gallia", "Gallia", "chief", "GAL", 0)
	gallia.ExchangeRateToAXC = 0.4
	nations.Put(rome)
	nations.Put(gallia)

	ex := NewExchanger(nations, &memWallet{balances: map[string]float64{}}, nil, 0.02)

	st, ok := ex.Statistics("RomeA")
	require.True(t, ok)
	assert.Equal(t, "DEN", st.CurrencyCode)
	assert.Equal(t, 2.5, st.RateToAXC)
	assert.Equal(t, "ВЫСОКИЙ КУРС", st.Rating)
	assert.InDelta(t, 6.25, st.Rates["Gallia"], 1e-9)

	_, ok = ex.Statistics("Atlantis")
	assert.False(t, ok)
}

func TestGlobalStatistics(t *testing.T) {
	nations := newNations(t)
	rome := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	rome.ExchangeRateToAXC = 2.5
	gallia := nation.New("Gallia", "Gallia", "chief", "GAL", 0)
	gallia.ExchangeRateToAXC = 0.4
	dacia := nation.New("Dacia", "Dacia", "king", "DAC", 0)
	nations.Put(rome)
	nations.Put(gallia)
	nations.Put(dacia)

	ex := NewExchanger(nations, &memWallet{balances: map[string]float64{}}, nil, 0.02)

	gs := ex.GlobalStatistics()
	assert.Equal(t, 3, gs.UniqueCurrencies)
	assert.Equal(t, 0.4, gs.MinRate)
	assert.Equal(t, 2.5, gs.MaxRate)
	assert.InDelta(t, 1.3, gs.AverageRate, 1e-9)
	assert.Equal(t, 1, gs.Distribution["high"])
	assert.Equal(t, 1, gs.Distribution["medium"])
	assert.Equal(t, 1, gs.Distribution["low"])
}

func TestRateRating(t *testing.T) {
	assert.Equal(t, "ВЫСОКИЙ КУРС", RateRating(2.5))
	assert.Equal(t, "НИЗКИЙ КУРС", RateRating(0.3))
	assert.Equal(t, "СТАНДАРТНАЯ", RateRating(1.0))
}

func TestAllRates(t *testing.T) {
	nations := newNations(t)
	a := nation.New("A", "A", "p1", "AAA", 0)
	a.ExchangeRateToAXC = 2.0
	b := nation.New("B", "B", "p2", "BBB", 0)
	b.ExchangeRateToAXC = 4.0
	c := nation.New("C", "C", "p3", "CCC", 0)
	c.ExchangeRateToAXC = 1.0
	nations.Put(a)
	nations.Put(b)
	nations.Put(c)

	ex := NewExchanger(nations, &memWallet{balances: map[string]float64{}}, nil, 0.02)

	rates := ex.AllRates("A")
	require.Len(t, rates, 2)
	assert.InDelta(t, 0.5, rates["B"], 1e-9)
	assert.InDelta(t, 2.0, rates["C"], 1e-9)

	assert.Empty(t, ex.AllRates("Atlantis"))
}
