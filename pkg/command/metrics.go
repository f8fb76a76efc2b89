package command

// MasterTag is the reserved worker tag under which the supervising process
// reports its own metrics.
const MasterTag = "master"

// Percentiles is a latency distribution snapshot. Values are computed by the
// reporting worker and passed through unchanged; the control plane never
// recomputes percentiles.
type Percentiles struct {
	Samples uint64 `json:"samples"`
	P50     uint64 `json:"p_50"`
	P90     uint64 `json:"p_90"`
	P99     uint64 `json:"p_99"`
	P999    uint64 `json:"p_99_9"`
	P9999   uint64 `json:"p_99_99"`
	P99999  uint64 `json:"p_99_999"`
	P100    uint64 `json:"p_100"`
}

// Fields returns the percentile set in reporting order. The order is part of
// the table schema contract.
func (p Percentiles) Fields() []uint64 {
	return []uint64{p.Samples, p.P50, p.P90, p.P99, p.P999, p.P9999, p.P99999, p.P100}
}

// PercentileHeaders are the column suffixes matching Fields, in order.
var PercentileHeaders = []string{
	"samples", "p50%", "p90%", "p99%", "p99.9%", "p99.99%", "p99.999%", "p100%",
}

// BackendMetrics is one backend's traffic counters plus its latency
// distribution.
type BackendMetrics struct {
	BytesOut    uint64      `json:"bytes_out"`
	BytesIn     uint64      `json:"bytes_in"`
	Percentiles Percentiles `json:"percentiles"`
}

// WorkerMetrics is one worker's full metrics snapshot: proxy-level counters,
// per-application latency distributions, per-backend counters.
type WorkerMetrics struct {
	Proxy        map[string]int64          `json:"proxy"`
	Applications map[string]Percentiles    `json:"applications"`
	Backends     map[string]BackendMetrics `json:"backends"`
}
