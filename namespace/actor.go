package namespace

import (
	"context"
	"time"

	"github.com/nsdb-io/nsdb/actor"
	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/parser"
)

// Key identifies one metric's shard within a namespace.
type Key struct {
	DB     string
	NS     string
	Metric string
}

// RecordAdded is the reply to a successful AddRecord.
type RecordAdded struct{ Key Key }

// RecordDeleted is the reply to DeleteRecord.
type RecordDeleted struct{ Key Key }

// CountGot is the reply to GetCount.
type CountGot struct {
	Key   Key
	Count int
}

// MetricDeleted is the reply to DeleteMetric.
type MetricDeleted struct{ Key Key }

// NamespaceDeleted is the reply to DeleteNamespace.
type NamespaceDeleted struct{ DB, NS string }

// NamespacesGot is the reply to GetNamespaces.
type NamespacesGot struct{ Namespaces []string }

// MetricsGot is the reply to GetMetrics.
type MetricsGot struct{ Metrics []string }

// SelectResult is the reply to ExecuteSelectStatement.
type SelectResult struct {
	Key  Key
	Rows []Row
}

// MatchingFound is the reply to FindMatching: the raw records a DELETE's
// WHERE clause selects, for the Write Coordinator to remove one at a time.
type MatchingFound struct {
	Key     Key
	Records []bit.Bit
}

type addRecordMsg struct {
	key Key
	bit bit.Bit
}
type deleteRecordMsg struct {
	key Key
	bit bit.Bit
}
type getCountMsg struct{ key Key }
type deleteMetricMsg struct{ key Key }
type deleteNamespaceMsg struct{ db, ns string }
type getNamespacesMsg struct{ db string }
type getMetricsMsg struct{ db, ns string }
type executeSelectMsg struct {
	key  Key
	stmt parser.SelectStatement
}
type findMatchingMsg struct {
	key   Key
	where parser.Expression
}
type flushAllMsg struct{}

// Actor is the Namespace Data Actor (spec.md §4.7): it owns a
// metric-name → indexer mapping and forwards record-level commands to
// the right child, lazily creating indexers as metrics are first written.
type Actor struct {
	mb     *actor.Mailbox
	ticker *time.Ticker
	done   chan struct{}
}

// NewActor starts the Namespace Data Actor. flushInterval configures the
// periodic scheduler that flushes buffered writes
// (nsdb.write.scheduler.interval); a non-positive interval disables it,
// leaving the flush-on-read of GetCount, ExecuteSelectStatement and
// FindMatching as the only flush points.
func NewActor(flushInterval time.Duration) *Actor {
	a := &Actor{done: make(chan struct{})}
	indexers := map[Key]*indexer{}

	a.mb = actor.NewMailbox(256, func(msg any) any {
		switch m := msg.(type) {
		case addRecordMsg:
			idx, ok := indexers[m.key]
			if !ok {
				idx = newIndexer()
				indexers[m.key] = idx
			}
			idx.enqueue(m.bit)
			return RecordAdded{Key: m.key}

		case deleteRecordMsg:
			if idx, ok := indexers[m.key]; ok {
				idx.delete(m.bit)
			}
			return RecordDeleted{Key: m.key}

		case getCountMsg:
			idx, ok := indexers[m.key]
			if !ok {
				return CountGot{Key: m.key, Count: 0}
			}
			return CountGot{Key: m.key, Count: idx.count()}

		case deleteMetricMsg:
			delete(indexers, m.key)
			return MetricDeleted{Key: m.key}

		case deleteNamespaceMsg:
			for k := range indexers {
				if k.DB == m.db && k.NS == m.ns {
					delete(indexers, k)
				}
			}
			return NamespaceDeleted{DB: m.db, NS: m.ns}

		case getNamespacesMsg:
			seen := map[string]bool{}
			var out []string
			for k := range indexers {
				if k.DB == m.db && !seen[k.NS] {
					seen[k.NS] = true
					out = append(out, k.NS)
				}
			}
			return NamespacesGot{Namespaces: out}

		case getMetricsMsg:
			var out []string
			for k := range indexers {
				if k.DB == m.db && k.NS == m.ns {
					out = append(out, k.Metric)
				}
			}
			return MetricsGot{Metrics: out}

		case executeSelectMsg:
			idx, ok := indexers[m.key]
			if !ok {
				return SelectResult{Key: m.key, Rows: nil}
			}
			return SelectResult{Key: m.key, Rows: executeSelect(m.stmt, idx.snapshot())}

		case findMatchingMsg:
			idx, ok := indexers[m.key]
			if !ok {
				return MatchingFound{Key: m.key}
			}
			var matches []bit.Bit
			for _, r := range idx.snapshot() {
				if m.where == nil || evalExpr(m.where, r) {
					matches = append(matches, r)
				}
			}
			return MatchingFound{Key: m.key, Records: matches}

		case flushAllMsg:
			for _, idx := range indexers {
				idx.flush()
			}
			return nil
		}
		return nil
	})

	if flushInterval > 0 {
		a.ticker = time.NewTicker(flushInterval)
		go func() {
			for {
				select {
				case <-a.ticker.C:
					a.mb.Tell(flushAllMsg{})
				case <-a.done:
					return
				}
			}
		}()
	}
	return a
}

func (a *Actor) AddRecord(ctx context.Context, key Key, b bit.Bit) (RecordAdded, error) {
	r, err := a.mb.Ask(ctx, "AddRecord", addRecordMsg{key: key, bit: b})
	if err != nil {
		return RecordAdded{}, err
	}
	return r.(RecordAdded), nil
}

func (a *Actor) DeleteRecord(ctx context.Context, key Key, b bit.Bit) (RecordDeleted, error) {
	r, err := a.mb.Ask(ctx, "DeleteRecord", deleteRecordMsg{key: key, bit: b})
	if err != nil {
		return RecordDeleted{}, err
	}
	return r.(RecordDeleted), nil
}

func (a *Actor) GetCount(ctx context.Context, key Key) (CountGot, error) {
	r, err := a.mb.Ask(ctx, "GetCount", getCountMsg{key: key})
	if err != nil {
		return CountGot{}, err
	}
	return r.(CountGot), nil
}

func (a *Actor) DeleteMetric(ctx context.Context, key Key) (MetricDeleted, error) {
	r, err := a.mb.Ask(ctx, "DeleteMetric", deleteMetricMsg{key: key})
	if err != nil {
		return MetricDeleted{}, err
	}
	return r.(MetricDeleted), nil
}

func (a *Actor) DeleteNamespace(ctx context.Context, db, ns string) (NamespaceDeleted, error) {
	r, err := a.mb.Ask(ctx, "DeleteNamespace", deleteNamespaceMsg{db: db, ns: ns})
	if err != nil {
		return NamespaceDeleted{}, err
	}
	return r.(NamespaceDeleted), nil
}

func (a *Actor) GetNamespaces(ctx context.Context, db string) (NamespacesGot, error) {
	r, err := a.mb.Ask(ctx, "GetNamespaces", getNamespacesMsg{db: db})
	if err != nil {
		return NamespacesGot{}, err
	}
	return r.(NamespacesGot), nil
}

func (a *Actor) GetMetrics(ctx context.Context, db, ns string) (MetricsGot, error) {
	r, err := a.mb.Ask(ctx, "GetMetrics", getMetricsMsg{db: db, ns: ns})
	if err != nil {
		return MetricsGot{}, err
	}
	return r.(MetricsGot), nil
}

func (a *Actor) ExecuteSelectStatement(ctx context.Context, key Key, stmt parser.SelectStatement) (SelectResult, error) {
	r, err := a.mb.Ask(ctx, "ExecuteSelectStatement", executeSelectMsg{key: key, stmt: stmt})
	if err != nil {
		return SelectResult{}, err
	}
	return r.(SelectResult), nil
}

func (a *Actor) FindMatching(ctx context.Context, key Key, where parser.Expression) (MatchingFound, error) {
	r, err := a.mb.Ask(ctx, "FindMatching", findMatchingMsg{key: key, where: where})
	if err != nil {
		return MatchingFound{}, err
	}
	return r.(MatchingFound), nil
}

func (a *Actor) Close() {
	if a.ticker != nil {
		a.ticker.Stop()
		close(a.done)
	}
	a.mb.Close()
}
