package alliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
)

type recordingMessenger struct {
	sent    map[string]string
	offline map[string]bool
}

func (m *recordingMessenger) Send(playerID, message string) bool {
	if m.offline[playerID] {
		return false
	}
	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[playerID] = message
	return true
}

type mapDirectory map[string]string

func (d mapDirectory) NationOf(playerID string) string { return d[playerID] }

func newNations(t *testing.T) *nation.Store {
	t.Helper()
	fs, err := persistence.OpenFileStore(t.TempDir())
	require.NoError(t, err)
	nations, err := nation.Open(fs)
	require.NoError(t, err)
	return nations
}

func TestAreAlliesEitherSide(t *testing.T) {
	nations := newNations(t)
	a := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	b := nation.New("Gallia", "Gallia", "chief", "GAL", 0)
	// The relation is stored on one side only.
	a.Allies["Gallia"] = true
	nations.Put(a)
	nations.Put(b)

	svc := New(nations, &recordingMessenger{}, mapDirectory{}, nil)

	assert.True(t, svc.AreAllies("RomeA", "Gallia"))
	assert.True(t, svc.AreAllies("Gallia", "RomeA"))
	assert.False(t, svc.AreAllies("RomeA", "Atlantis"))
	assert.False(t, svc.AreAllies("Gallia", "Gallia2"))
}

func TestCanAccessAlliedTerritory(t *testing.T) {
	nations := newNations(t)
	a := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	a.Allies["Gallia"] = true
	nations.Put(a)
	nations.Put(nation.New("Gallia", "Gallia", "chief", "GAL", 0))
	nations.Put(nation.New("Dacia", "Dacia", "king", "DAC", 0))

	dir := mapDirectory{"caesar": "RomeA"}
	svc := New(nations, &recordingMessenger{}, dir, nil)

	assert.True(t, svc.CanAccessAlliedTerritory("caesar", "RomeA"))  // home
	assert.True(t, svc.CanAccessAlliedTerritory("caesar", "Gallia")) // ally
	assert.False(t, svc.CanAccessAlliedTerritory("caesar", "Dacia"))
	assert.False(t, svc.CanAccessAlliedTerritory("stateless", "RomeA"))
}

func TestBroadcastReachesAlliedCitizens(t *testing.T) {
	nations := newNations(t)
	rome := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	rome.Allies["Gallia"] = true
	gallia := nation.New("Gallia", "Gallia", "chief", "GAL", 0)
	gallia.Roles["asterix"] = nation.RoleCitizen
	gallia.Roles["obelix"] = nation.RoleCitizen
	nations.Put(rome)
	nations.Put(gallia)

	m := &recordingMessenger{offline: map[string]bool{"obelix": true}}
	svc := New(nations, m, mapDirectory{}, nil)

	delivered := svc.Broadcast("RomeA", "the legions march")
	assert.Equal(t, 2, delivered) // chief and asterix; obelix offline
	assert.Equal(t, "[A] Rome: the legions march", m.sent["asterix"])
	_, sentToObelix := m.sent["obelix"]
	assert.False(t, sentToObelix)

	assert.Equal(t, 0, svc.Broadcast("Atlantis", "hello"))
}

type fixedMilitary float64

func (f fixedMilitary) MilitaryStrength(string) float64 { return float64(f) }

func TestStatistics(t *testing.T) {
	nations := newNations(t)
	rome := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	rome.Allies["Gallia"] = true
	rome.Allies["Dacia"] = true
	rome.Allies["Hispania"] = true
	gallia := nation.New("Gallia", "Gallia", "chief", "GAL", 0)
	gallia.Roles["asterix"] = nation.RoleCitizen
	nations.Put(rome)
	nations.Put(gallia)
	nations.Put(nation.New("Dacia", "Dacia", "king", "DAC", 0))
	nations.Put(nation.New("Hispania", "Hispania", "rex", "HIS", 0))

	svc := New(nations, &recordingMessenger{}, mapDirectory{}, nil)

	st := svc.Statistics("RomeA")
	assert.Equal(t, 3, st.Allies)
	assert.Equal(t, []string{"Dacia", "Gallia", "Hispania"}, st.AlliesList)
	// Population fallback: Gallia has 2 members, the others 1 each.
	assert.Equal(t, 40.0, st.CombinedStrength)
	assert.Equal(t, "СРЕДНИЙ", st.Rating)

	// An injected military source overrides the population estimate.
	withMil := New(nations, &recordingMessenger{}, mapDirectory{}, fixedMilitary(100))
	assert.Equal(t, 300.0, withMil.Statistics("RomeA").CombinedStrength)

	// Unknown nations get an empty view, not a rated zero-ally one.
	empty := svc.Statistics("Atlantis")
	assert.Equal(t, 0, empty.Allies)
	assert.Empty(t, empty.AlliesList)
	assert.Empty(t, empty.Rating)
}

func TestSizeRating(t *testing.T) {
	cases := []struct {
		allies int
		want   string
	}{
		{0, "МАЛЕНЬКИЙ"},
		{3, "СРЕДНИЙ"},
		{5, "ЗНАЧИТЕЛЬНЫЙ"},
		{7, "БОЛЬШОЙ"},
		{12, "ОГРОМНЫЙ"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sizeRating(tc.allies), "allies=%d", tc.allies)
	}
}

func TestBenefits(t *testing.T) {
	nations := newNations(t)
	rome := nation.New("RomeA", "Rome", "caesar", "DEN", 0)
	rome.Allies["Gallia"] = true
	rome.Allies["Dacia"] = true
	nations.Put(rome)

	svc := New(nations, &recordingMessenger{}, mapDirectory{}, nil)

	b := svc.BenefitsFor("RomeA")
	assert.InDelta(t, 1.04, b.Trade, 1e-9)
	assert.InDelta(t, 1.10, b.Defense, 1e-9)
	assert.InDelta(t, 1.06, b.Diplomacy, 1e-9)

	base := svc.BenefitsFor("Atlantis")
	assert.Equal(t, Benefits{Trade: 1, Defense: 1, Diplomacy: 1}, base)
}

func TestGlobalStatistics(t *testing.T) {
	nations := newNations(t)
	a := nation.New("A", "A", "p1", "AAA", 0)
	a.Allies["B"] = true
	b := nation.New("B", "B", "p2", "BBB", 0)
	b.Allies["A"] = true
	c := nation.New("C", "C", "p3", "CCC", 0)
	nations.Put(a)
	nations.Put(b)
	nations.Put(c)

	svc := New(nations, &recordingMessenger{}, mapDirectory{}, nil)

	gs := svc.GlobalStatistics()
	assert.Equal(t, 1, gs.TotalRelations) // both sides list each other, counted once
	assert.Equal(t, 2, gs.NationsWithAllies)
	assert.Equal(t, 1, gs.MaxAllies)
	assert.InDelta(t, 1.0, gs.AverageAllies, 1e-9)
	assert.Equal(t, 2, gs.Distribution[1])
	assert.Equal(t, 1, gs.Distribution[0])
	require.Len(t, gs.TopByAllies, 3)
	assert.Equal(t, "A", gs.TopByAllies[0].NationID)
}
