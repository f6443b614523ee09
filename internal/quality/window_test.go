package quality

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStatsEmpty(t *testing.T) {
	w := NewReferenceWindows(4)

	_, ok := w.Stats("AAPL")
	assert.False(t, ok)
}

func TestWindowStats(t *testing.T) {
	w := NewReferenceWindows(8)
	for _, v := range []float64{10, 20, 30} {
		w.Observe("AAPL", v)
	}

	stats, ok := w.Stats("AAPL")
	require.True(t, ok)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 30.0, stats.Last)
	assert.InDelta(t, 20.0, stats.Mean, 1e-9)
	assert.InDelta(t, 10.0, stats.StdDev, 1e-9) // sample std of {10,20,30}
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewReferenceWindows(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Observe("AAPL", v)
	}

	stats, ok := w.Stats("AAPL")
	require.True(t, ok)
	assert.Equal(t, 3, stats.Count, "window never grows past its size")
	assert.Equal(t, 5.0, stats.Last)
	assert.InDelta(t, 4.0, stats.Mean, 1e-9) // {3,4,5} remain
}

func TestWindowSymbolsIndependent(t *testing.T) {
	w := NewReferenceWindows(4)
	w.Observe("AAPL", 100)
	w.Observe("BTC", 50000)

	a, ok := w.Stats("AAPL")
	require.True(t, ok)
	b, ok := w.Stats("BTC")
	require.True(t, ok)

	assert.Equal(t, 100.0, a.Last)
	assert.Equal(t, 50000.0, b.Last)
}

func TestWindowConcurrentObserve(t *testing.T) {
	w := NewReferenceWindows(16)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				w.Observe("AAPL", 100)
				w.Stats("AAPL")
				w.Observe("BTC", 200)
			}
		}()
	}
	wg.Wait()

	stats, ok := w.Stats("AAPL")
	require.True(t, ok)
	assert.Equal(t, 16, stats.Count)
	assert.Equal(t, 100.0, stats.Mean)
	assert.Equal(t, 0.0, stats.StdDev)
}

func TestWindowMinimumSize(t *testing.T) {
	w := NewReferenceWindows(0)
	w.Observe("AAPL", 1)
	w.Observe("AAPL", 2)
	w.Observe("AAPL", 3)

	stats, ok := w.Stats("AAPL")
	require.True(t, ok)
	assert.Equal(t, 2, stats.Count)
}
