package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

func newTestNations(t *testing.T) *nation.Store {
	t.Helper()
	fs, err := persistence.OpenFileStore(t.TempDir())
	require.NoError(t, err)
	nations, err := nation.Open(fs)
	require.NoError(t, err)
	return nations
}

func newProcessor(t *testing.T, stocks *Stocks, nations *nation.Store) *Processor {
	t.Helper()
	fs, err := persistence.OpenFileStore(t.TempDir())
	require.NoError(t, err)
	p, err := OpenProcessor(stocks, nations, fs, 0.8)
	require.NoError(t, err)
	return p
}

func TestBuild(t *testing.T) {
	nations := newTestNations(t)
	n := nation.New("RomeA", "Rome", "caesar", "DEN", 3000)
	nations.Put(n)

	p := newProcessor(t, newStocks(t), nations)

	require.Equal(t, BuildOK, p.Build("RomeA", "iron", 2000))
	assert.Equal(t, 1000.0, n.Treasury)

	facilities := p.Facilities()
	require.Len(t, facilities, 1)
	assert.Equal(t, 10.0, facilities[0].Rate)
	assert.Equal(t, 50.0, facilities[0].Efficiency)
	assert.True(t, facilities[0].Active)

	require.Equal(t, BuildAlreadyExists, p.Build("RomeA", "iron", 2000))
	require.Equal(t, BuildInsufficientFunds, p.Build("RomeA", "coal", 2000))
	require.Equal(t, BuildUnknownNation, p.Build("Atlantis", "iron", 2000))
	assert.Equal(t, 1000.0, n.Treasury)
}

func TestTickRefinesRawStock(t *testing.T) {
	nations := newTestNations(t)
	nations.Put(nation.New("RomeA", "Rome", "caesar", "DEN", 3000))

	stocks := newStocks(t)
	stocks.Add("RomeA", "raw_iron", 100)

	p := newProcessor(t, stocks, nations)
	require.Equal(t, BuildOK, p.Build("RomeA", "iron", 1000))

	p.Tick(time.Now())

	// Consumes rate * efficiency/100 = 5 raw, yields 5 * 0.8 = 4 refined.
	assert.Equal(t, 95.0, stocks.Amount("RomeA", "raw_iron"))
	assert.Equal(t, 4.0, stocks.Amount("RomeA", "iron"))
}

func TestTickSkipsShortRawStock(t *testing.T) {
	nations := newTestNations(t)
	nations.Put(nation.New("RomeA", "Rome", "caesar", "DEN", 3000))

	stocks := newStocks(t)
	stocks.Add("RomeA", "raw_iron", 3) // below the 5 units one pass needs

	p := newProcessor(t, stocks, nations)
	require.Equal(t, BuildOK, p.Build("RomeA", "iron", 1000))

	p.Tick(time.Now())

	assert.Equal(t, 3.0, stocks.Amount("RomeA", "raw_iron"))
	assert.Equal(t, 0.0, stocks.Amount("RomeA", "iron"))
}

func TestSetActive(t *testing.T) {
	nations := newTestNations(t)
	nations.Put(nation.New("RomeA", "Rome", "caesar", "DEN", 3000))

	stocks := newStocks(t)
	stocks.Add("RomeA", "raw_iron", 100)

	p := newProcessor(t, stocks, nations)
	require.Equal(t, BuildOK, p.Build("RomeA", "iron", 1000))
	assert.Equal(t, 10.0, p.Rate("RomeA", "iron"))

	require.True(t, p.SetActive("RomeA", "iron", false))
	assert.Equal(t, 0.0, p.Rate("RomeA", "iron"))

	p.Tick(time.Now())
	assert.Equal(t, 100.0, stocks.Amount("RomeA", "raw_iron"))

	require.False(t, p.SetActive("RomeA", "coal", false))
}

func TestFacilitiesSurviveReload(t *testing.T) {
	nations := newTestNations(t)
	nations.Put(nation.New("RomeA", "Rome", "caesar", "DEN", 3000))

	fs, err := persistence.OpenFileStore(t.TempDir())
	require.NoError(t, err)
	stocks := newStocks(t)

	p, err := OpenProcessor(stocks, nations, fs, 0.8)
	require.NoError(t, err)
	require.Equal(t, BuildOK, p.Build("RomeA", "iron", 1000))

	reloaded, err := OpenProcessor(stocks, nations, fs, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 10.0, reloaded.Rate("RomeA", "iron"))
}
