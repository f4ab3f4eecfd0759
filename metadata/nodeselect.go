package metadata

import "sync/atomic"

// NodeSelector assigns the node a new Location for (metric, bucket)
// should live on. The cluster-membership/placement policy itself is out
// of scope for the core (spec.md §1, §9): it is injected as a callable.
type NodeSelector func(metric string, bucket int64) string

// RoundRobinSelector cycles through nodes in order, ignoring metric and
// bucket. It exists so the core is runnable standalone without a real
// cluster-membership collaborator wired in.
func RoundRobinSelector(nodes []string) NodeSelector {
	if len(nodes) == 0 {
		nodes = []string{"local"}
	}
	var next uint64
	return func(metric string, bucket int64) string {
		i := atomic.AddUint64(&next, 1) - 1
		return nodes[i%uint64(len(nodes))]
	}
}
