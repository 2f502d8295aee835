package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRange(t *testing.T) {
	src := Crypto()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a := Seeded(42)
	b := Seeded(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestFixed(t *testing.T) {
	src := Fixed(0.25)
	assert.Equal(t, 0.25, src.Float64())
	assert.Equal(t, 0.25, src.Float64())
}
