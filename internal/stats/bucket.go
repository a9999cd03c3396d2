package stats

// Bucket accumulates one aggregation group in a single pass. Only the
// accumulator lives in memory, never the event stream feeding it.
type Bucket struct {
	count            int64
	errorCount       int64
	promptTokens     int64
	completionTokens int64
	cachedTokens     int64
	costMicros       int64
	durationSum      float64
	reservoir        *Reservoir
}

// StatsBucket is the immutable snapshot of a Bucket.
type StatsBucket struct {
	Count            int64   `json:"count"`
	ErrorCount       int64   `json:"error_count"`
	ErrorRate        float64 `json:"error_rate"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	CachedTokens     int64   `json:"cached_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	CostMicros       int64   `json:"cost_micros"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
	P50Ms            float64 `json:"p50_ms"`
	P95Ms            float64 `json:"p95_ms"`
	P99Ms            float64 `json:"p99_ms"`
	Approximate      bool    `json:"approximate"`
}

func NewBucket(reservoirSize int) *Bucket {
	return &Bucket{reservoir: NewReservoir(reservoirSize)}
}

// ObserveTokens folds one usage event into the bucket.
func (b *Bucket) ObserveTokens(prompt, completion, cached, costMicros int64) {
	b.count++
	b.promptTokens += prompt
	b.completionTokens += completion
	b.cachedTokens += cached
	b.costMicros += costMicros
}

// ObserveDuration folds one timed operation into the bucket.
func (b *Bucket) ObserveDuration(durationMs float64, success bool) {
	b.count++
	b.durationSum += durationMs
	if !success {
		b.errorCount++
	}
	b.reservoir.Observe(durationMs)
}

func (b *Bucket) Count() int64 { return b.count }

// Snapshot computes the derived statistics. Error rate is 0 for an empty
// bucket, never NaN.
func (b *Bucket) Snapshot() StatsBucket {
	snap := StatsBucket{
		Count:            b.count,
		ErrorCount:       b.errorCount,
		PromptTokens:     b.promptTokens,
		CompletionTokens: b.completionTokens,
		CachedTokens:     b.cachedTokens,
		TotalTokens:      b.promptTokens + b.completionTokens,
		CostMicros:       b.costMicros,
		Approximate:      b.reservoir.Approximate(),
	}
	if b.count > 0 {
		snap.ErrorRate = float64(b.errorCount) / float64(b.count)
	}
	if observed := b.reservoir.Seen(); observed > 0 {
		snap.AvgDurationMs = b.durationSum / float64(observed)
		snap.P50Ms = b.reservoir.Percentile(50)
		snap.P95Ms = b.reservoir.Percentile(95)
		snap.P99Ms = b.reservoir.Percentile(99)
	}
	return snap
}

// Aggregator maintains one bucket per group key.
type Aggregator struct {
	reservoirSize int
	groups        map[string]*Bucket
	order         []string
}

func NewAggregator(reservoirSize int) *Aggregator {
	return &Aggregator{
		reservoirSize: reservoirSize,
		groups:        make(map[string]*Bucket),
	}
}

// Bucket returns the accumulator for key, creating it on first use.
func (a *Aggregator) Bucket(key string) *Bucket {
	if bucket, ok := a.groups[key]; ok {
		return bucket
	}
	bucket := NewBucket(a.reservoirSize)
	a.groups[key] = bucket
	a.order = append(a.order, key)
	return bucket
}

// Keys returns group keys in first-seen order.
func (a *Aggregator) Keys() []string { return a.order }

func (a *Aggregator) Snapshot() map[string]StatsBucket {
	out := make(map[string]StatsBucket, len(a.groups))
	for key, bucket := range a.groups {
		out[key] = bucket.Snapshot()
	}
	return out
}
