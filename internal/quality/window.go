package quality

import (
	"math"
	"sync"
)

// Stats summarizes one symbol's rolling reference window.
type Stats struct {
	Last   float64
	Mean   float64
	StdDev float64
	Count  int
}

// ReferenceWindows keeps a bounded window of recent observed values per
// symbol, shared by all concurrent validators. Updates to one symbol are
// serialized through that symbol's lock; reads proceed concurrently.
type ReferenceWindows struct {
	mu      sync.RWMutex // guards the symbols map only
	size    int
	symbols map[string]*window
}

type window struct {
	mu     sync.RWMutex
	values []float64 // ring buffer
	next   int
	last   float64
}

func NewReferenceWindows(size int) *ReferenceWindows {
	if size < 2 {
		size = 2
	}
	return &ReferenceWindows{
		size:    size,
		symbols: make(map[string]*window),
	}
}

func (r *ReferenceWindows) get(symbol string, create bool) *window {
	r.mu.RLock()
	w := r.symbols[symbol]
	r.mu.RUnlock()
	if w != nil || !create {
		return w
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if w = r.symbols[symbol]; w == nil {
		w = &window{values: make([]float64, 0, r.size)}
		r.symbols[symbol] = w
	}
	return w
}

// Observe appends a value to the symbol's window, evicting the oldest entry
// once the window is full.
func (r *ReferenceWindows) Observe(symbol string, v float64) {
	w := r.get(symbol, true)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.values) < r.size {
		w.values = append(w.values, v)
	} else {
		w.values[w.next] = v
	}
	w.next = (w.next + 1) % r.size
	w.last = v
}

// Stats returns the current window statistics for a symbol. The second return
// is false when nothing has been observed yet.
func (r *ReferenceWindows) Stats(symbol string) (Stats, bool) {
	w := r.get(symbol, false)
	if w == nil {
		return Stats{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	n := len(w.values)
	if n == 0 {
		return Stats{}, false
	}

	var sum float64
	for _, v := range w.values {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range w.values {
		d := v - mean
		sq += d * d
	}
	std := 0.0
	if n > 1 {
		std = math.Sqrt(sq / float64(n-1))
	}

	return Stats{Last: w.last, Mean: mean, StdDev: std, Count: n}, true
}
