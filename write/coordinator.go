// Package write implements the Write Coordinator (spec.md §4.5): it pipes
// one record through schema evolution, location assignment, and
// replicated insertion, the way the teacher's ConcurrentMapFuncWithError
// fans work out over a bounded goroutine pool and collects results back
// in order (database/concurrent.go).
package write

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/metadata"
	"github.com/nsdb-io/nsdb/namespace"
	"github.com/nsdb-io/nsdb/parser"
	"github.com/nsdb-io/nsdb/schema"
)

// InputMapped is the reply to a fully-accepted MapInput.
type InputMapped struct {
	DB, NS, Metric string
}

// RecordRejected is the reply to a MapInput that failed at any stage.
// Reasons is non-empty; in the partial-replication case it carries one
// entry per node that failed. It implements error so callers can treat a
// rejection like any other failed Ask.
type RecordRejected struct {
	DB, NS, Metric string
	Reasons        []string
}

func (r RecordRejected) Error() string {
	msg := "record rejected for " + r.Metric + ":"
	for _, reason := range r.Reasons {
		msg += " " + reason + ";"
	}
	return msg
}

// Coordinator is the Write Coordinator (spec.md §4.5).
type Coordinator struct {
	schemaActor *schema.Actor
	metaCoord   *metadata.Coordinator
	nsActor     *namespace.Actor
	// fanOutLimit bounds concurrent per-node AddRecord asks, mirroring
	// ConcurrentMapFuncWithError's concurrency knob. 0 disables
	// concurrency (sequential); negative means unlimited.
	fanOutLimit int
}

// NewCoordinator wires the Write Coordinator to its three collaborators.
func NewCoordinator(schemaActor *schema.Actor, metaCoord *metadata.Coordinator, nsActor *namespace.Actor, fanOutLimit int) *Coordinator {
	return &Coordinator{schemaActor: schemaActor, metaCoord: metaCoord, nsActor: nsActor, fanOutLimit: fanOutLimit}
}

// MapInput implements spec.md §4.5 step by step: schema update, location
// assignment, then a fan-out AddRecord to every returned location's node.
// Partial replica failure is surfaced but not rolled back — the shard
// indexer's identity-based dedup makes over-replication harmless.
func (c *Coordinator) MapInput(ctx context.Context, db, ns, metric string, b bit.Bit) (InputMapped, error) {
	schemaKey := schema.Key{DB: db, NS: ns, Metric: metric}
	if _, err := c.schemaActor.UpdateSchemaFromRecord(ctx, schemaKey, b); err != nil {
		return InputMapped{}, rejected(db, ns, metric, err.Error())
	}

	metaKey := metadata.Key{DB: db, NS: ns, Metric: metric}
	locsGot, err := c.metaCoord.GetWriteLocations(ctx, metaKey, b.Timestamp)
	if err != nil {
		return InputMapped{}, rejected(db, ns, metric, "no location: "+err.Error())
	}
	if len(locsGot.Locations) == 0 {
		return InputMapped{}, rejected(db, ns, metric, "no location")
	}

	eg := errgroup.Group{}
	if c.fanOutLimit > 0 {
		eg.SetLimit(c.fanOutLimit)
	} else if c.fanOutLimit == 0 {
		eg.SetLimit(1)
	}

	failures := make([]string, len(locsGot.Locations))
	nsKey := namespace.Key{DB: db, NS: ns, Metric: metric}
	for i, loc := range locsGot.Locations {
		i, loc := i, loc
		eg.Go(func() error {
			if _, err := c.nsActor.AddRecord(ctx, nsKey, b); err != nil {
				failures[i] = loc.Node + ": " + err.Error()
			}
			return nil
		})
	}
	// errgroup.Group.Go's functions here never return an error themselves,
	// so Wait returns nil; per-node Ask errors, timeouts included, are
	// collected in failures instead.
	if err := eg.Wait(); err != nil {
		return InputMapped{}, rejected(db, ns, metric, err.Error())
	}

	var reasons []string
	for _, f := range failures {
		if f != "" {
			reasons = append(reasons, f)
		}
	}
	if len(reasons) > 0 {
		return InputMapped{}, RecordRejected{DB: db, NS: ns, Metric: metric, Reasons: reasons}
	}
	return InputMapped{DB: db, NS: ns, Metric: metric}, nil
}

// ExecuteDeleteStatement routes a DELETE through the namespace actor: it
// resolves stmt.Where against the metric's current records, then removes
// each match one at a time (spec.md §4.5: "routes ExecuteDeleteStatement
// ... through ... the namespace data actor").
func (c *Coordinator) ExecuteDeleteStatement(ctx context.Context, db, ns string, stmt parser.DeleteStatement) (int, error) {
	nsKey := namespace.Key{DB: db, NS: ns, Metric: stmt.Metric}
	found, err := c.nsActor.FindMatching(ctx, nsKey, stmt.Where)
	if err != nil {
		return 0, err
	}
	for _, b := range found.Records {
		if _, err := c.nsActor.DeleteRecord(ctx, nsKey, b); err != nil {
			return 0, err
		}
	}
	return len(found.Records), nil
}

// DropMetric deletes a metric's schema and its namespace-data shard.
func (c *Coordinator) DropMetric(ctx context.Context, db, ns, metric string) error {
	schemaKey := schema.Key{DB: db, NS: ns, Metric: metric}
	if err := c.schemaActor.DeleteSchema(ctx, schemaKey); err != nil {
		return err
	}
	nsKey := namespace.Key{DB: db, NS: ns, Metric: metric}
	_, err := c.nsActor.DeleteMetric(ctx, nsKey)
	return err
}

func rejected(db, ns, metric, reason string) RecordRejected {
	return RecordRejected{DB: db, NS: ns, Metric: metric, Reasons: []string{reason}}
}
