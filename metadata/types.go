// Package metadata implements the Metadata Coordinator and Metadata Cache
// of spec.md §4.3-4.4: deterministic time-bucket Location assignment per
// metric, with per-metric shard-interval overrides.
package metadata

// Key identifies the metric a Location or MetricInfo belongs to.
type Key struct {
	DB     string
	NS     string
	Metric string
}

// Location is a half-open time range [From, To) on a specific node that a
// metric's writes for that range are directed to (spec.md §3, Location).
type Location struct {
	Metric string
	Node   string
	From   int64
	To     int64
}

// MetricInfo overrides the default shard interval for one metric
// (spec.md §3, MetricInfo). ShardIntervalMs must be > 0 and, once set, is
// immutable.
type MetricInfo struct {
	Metric        string
	ShardIntervalMs int64
}
