package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeYesIsSingleUse(t *testing.T) {
	svc := New()

	ran := 0
	svc.Set("player", func() { ran++ }, func() { t.Fatal("no path must not run") })
	require.True(t, svc.Has("player"))

	yes := svc.ConsumeYes("player")
	require.NotNil(t, yes)
	yes()
	assert.Equal(t, 1, ran)

	// Consumed: neither path is reachable anymore.
	assert.False(t, svc.Has("player"))
	assert.Nil(t, svc.ConsumeYes("player"))
	assert.Nil(t, svc.ConsumeNo("player"))
}

func TestConsumeNoExcludesYes(t *testing.T) {
	svc := New()

	declined := false
	svc.Set("player", func() { t.Fatal("yes path must not run") }, func() { declined = true })

	no := svc.ConsumeNo("player")
	require.NotNil(t, no)
	no()
	assert.True(t, declined)
	assert.Nil(t, svc.ConsumeYes("player"))
}

func TestSetSupersedesPending(t *testing.T) {
	svc := New()

	svc.Set("player", func() { t.Fatal("superseded yes must not run") }, nil)

	ran := false
	svc.Set("player", func() { ran = true }, nil)

	yes := svc.ConsumeYes("player")
	require.NotNil(t, yes)
	yes()
	assert.True(t, ran)
}

func TestCancel(t *testing.T) {
	svc := New()

	svc.Set("player", func() {}, func() {})
	svc.Cancel("player")
	assert.False(t, svc.Has("player"))
	assert.Nil(t, svc.ConsumeYes("player"))

	// Cancelling an absent confirmation is a no-op.
	svc.Cancel("ghost")
}

func TestSweepEvictsOnlyStale(t *testing.T) {
	svc := New()
	base := time.Now()

	svc.SetClock(func() time.Time { return base })
	svc.Set("old", func() {}, func() {})

	svc.SetClock(func() time.Time { return base.Add(4 * time.Minute) })
	svc.Set("fresh", func() {}, func() {})

	svc.SetClock(func() time.Time { return base.Add(6 * time.Minute) })
	assert.Equal(t, 1, svc.Sweep(5*time.Minute))

	assert.False(t, svc.Has("old"))
	assert.True(t, svc.Has("fresh"))
	assert.Equal(t, 0, svc.Sweep(5*time.Minute))
}

func TestStatistics(t *testing.T) {
	svc := New()
	base := time.Now()

	svc.SetClock(func() time.Time { return base })
	svc.Set("a", func() {}, nil)

	svc.SetClock(func() time.Time { return base.Add(2 * time.Minute) })
	svc.Set("b", func() {}, nil)

	svc.SetClock(func() time.Time { return base.Add(3 * time.Minute) })
	st := svc.Statistics(2 * time.Minute)

	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.Stale)
	require.Len(t, st.Ages, 2)
	assert.Equal(t, "a", st.Ages[0].PlayerID) // oldest first
	assert.Equal(t, 3*time.Minute, st.Ages[0].Age)
	assert.Equal(t, 2*time.Minute, st.AverageAge)
}
