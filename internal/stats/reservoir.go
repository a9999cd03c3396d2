// Package stats computes streaming aggregates over event sets: sums,
// error rates and bounded-memory latency percentiles.
package stats

import (
	"math"
	"math/rand"
	"sort"
)

// DefaultReservoirSize caps the per-group latency sample buffer.
const DefaultReservoirSize = 10000

// Reservoir keeps a bounded uniform sample of observed values. Once the
// capacity is exceeded it switches to reservoir sampling, trading exact
// percentiles for bounded memory; Approximate reports when that happened.
type Reservoir struct {
	capacity int
	seen     int64
	samples  []float64
	rng      *rand.Rand
}

func NewReservoir(capacity int) *Reservoir {
	if capacity <= 0 {
		capacity = DefaultReservoirSize
	}
	return &Reservoir{
		capacity: capacity,
		samples:  make([]float64, 0, min(capacity, 1024)),
		rng:      rand.New(rand.NewSource(1)),
	}
}

func (r *Reservoir) Observe(value float64) {
	r.seen++
	if len(r.samples) < r.capacity {
		r.samples = append(r.samples, value)
		return
	}
	if idx := r.rng.Int63n(r.seen); idx < int64(r.capacity) {
		r.samples[idx] = value
	}
}

func (r *Reservoir) Seen() int64 { return r.seen }

func (r *Reservoir) Approximate() bool {
	return r.seen > int64(r.capacity)
}

// Percentile returns the nearest-rank percentile over the retained
// samples. p is in (0, 100]. Returns 0 when nothing was observed.
func (r *Reservoir) Percentile(p float64) float64 {
	if len(r.samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(r.samples))
	copy(sorted, r.samples)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
