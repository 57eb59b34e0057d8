package ticket

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedChooser struct {
	idx   int
	calls []int
}

func (f *fixedChooser) IntN(n int) int {
	f.calls = append(f.calls, n)
	return f.idx % n
}

func TestCourierPool_Defaults(t *testing.T) {
	pool := NewCourierPool()
	assert.Equal(t, []string{"Repartidor1", "Repartidor2", "Repartidor3", "Repartidor4", "Repartidor5"}, pool.Names())
	assert.True(t, pool.Contains("Repartidor3"))
	assert.False(t, pool.Contains("Repartidor6"))
}

func TestCourierPool_Candidates(t *testing.T) {
	pool := NewCourierPool()

	t.Run("excludes couriers holding alta tickets", func(t *testing.T) {
		candidates, fallback := pool.Candidates(map[string]int64{"Repartidor1": 1, "Repartidor4": 2})
		assert.False(t, fallback)
		assert.Equal(t, []string{"Repartidor2", "Repartidor3", "Repartidor5"}, candidates)
	})

	t.Run("falls back to full pool only when every courier holds alta", func(t *testing.T) {
		counts := map[string]int64{}
		for _, n := range pool.Names() {
			counts[n] = 1
		}
		candidates, fallback := pool.Candidates(counts)
		assert.True(t, fallback)
		assert.Equal(t, pool.Names(), candidates)

		counts["Repartidor5"] = 0
		candidates, fallback = pool.Candidates(counts)
		assert.False(t, fallback)
		assert.Equal(t, []string{"Repartidor5"}, candidates)
	})
}

func TestCourierPool_Assign(t *testing.T) {
	pool := NewCourierPool()

	t.Run("samples uniformly from preferred subset", func(t *testing.T) {
		chooser := &fixedChooser{idx: 1}
		got := pool.Assign(map[string]int64{"Repartidor1": 3}, chooser)
		assert.Equal(t, "Repartidor3", got)
		assert.Equal(t, []int{4}, chooser.calls)
	})

	t.Run("samples from the full pool when all are busy", func(t *testing.T) {
		counts := map[string]int64{}
		for _, n := range pool.Names() {
			counts[n] = 1
		}
		chooser := &fixedChooser{idx: 4}
		assert.Equal(t, "Repartidor5", pool.Assign(counts, chooser))
		assert.Equal(t, []int{5}, chooser.calls)
	})

	t.Run("always returns a pool member", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		for i := 0; i < 200; i++ {
			counts := map[string]int64{}
			for _, n := range pool.Names() {
				counts[n] = int64(rng.IntN(2))
			}
			got := pool.Assign(counts, rng)
			require.True(t, pool.Contains(got), got)
			if _, fallback := pool.Candidates(counts); !fallback {
				assert.Zero(t, counts[got])
			}
		}
	})
}
