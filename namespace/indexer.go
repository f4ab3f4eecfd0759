package namespace

import "github.com/nsdb-io/nsdb/bit"

// indexer is an in-memory inverted-index shard for one (db, ns, metric),
// rooted conceptually at basePath/db/ns/metric (spec.md §4.7). It is owned
// exclusively by the Namespace Data Actor's mailbox goroutine; writes are
// buffered and merged into the index on flush.
type indexer struct {
	pending []bit.Bit
	records map[bit.Identity]bit.Bit
}

func newIndexer() *indexer {
	return &indexer{records: map[bit.Identity]bit.Bit{}}
}

// enqueue buffers b for the next flush.
func (idx *indexer) enqueue(b bit.Bit) {
	idx.pending = append(idx.pending, b)
}

// flush merges every buffered write into the index, deduplicating by
// identity: a Bit written twice under over-replication collapses to one
// (spec.md §4.5).
func (idx *indexer) flush() {
	if len(idx.pending) == 0 {
		return
	}
	for _, b := range idx.pending {
		idx.records[b.Identity()] = b
	}
	idx.pending = idx.pending[:0]
}

// delete removes the exact identity match for b, from both the flushed
// index and anything still pending.
func (idx *indexer) delete(b bit.Bit) {
	delete(idx.records, b.Identity())
	kept := idx.pending[:0]
	for _, p := range idx.pending {
		if p.Identity() != b.Identity() {
			kept = append(kept, p)
		}
	}
	idx.pending = kept
}

// count returns the post-flush record count (spec.md §4.7 GetCount).
func (idx *indexer) count() int {
	idx.flush()
	return len(idx.records)
}

// snapshot returns every flushed record, for querying.
func (idx *indexer) snapshot() []bit.Bit {
	idx.flush()
	out := make([]bit.Bit, 0, len(idx.records))
	for _, b := range idx.records {
		out = append(out, b)
	}
	return out
}
