// Package read implements the Read Coordinator (spec.md §4.6): it fans a
// SELECT over the namespace actor once a schema is confirmed to exist.
package read

import (
	"context"

	"github.com/nsdb-io/nsdb/namespace"
	"github.com/nsdb-io/nsdb/parser"
	"github.com/nsdb-io/nsdb/schema"
)

// SelectStatementFailed is the reply to ExecuteStatement when no schema
// exists yet for the target metric.
type SelectStatementFailed struct {
	Metric string
	Reason string
}

func (e SelectStatementFailed) Error() string { return "select failed for " + e.Metric + ": " + e.Reason }

// Coordinator is the Read Coordinator (spec.md §4.6).
type Coordinator struct {
	schemaActor *schema.Actor
	nsActor     *namespace.Actor
}

// NewCoordinator wires the Read Coordinator to its collaborators.
func NewCoordinator(schemaActor *schema.Actor, nsActor *namespace.Actor) *Coordinator {
	return &Coordinator{schemaActor: schemaActor, nsActor: nsActor}
}

// ExecuteStatement implements spec.md §4.6: confirm a schema exists for
// stmt.From, then forward ExecuteSelectStatement to the namespace actor.
func (c *Coordinator) ExecuteStatement(ctx context.Context, db, ns string, stmt parser.SelectStatement) (namespace.SelectResult, error) {
	schemaKey := schema.Key{DB: db, NS: ns, Metric: stmt.From}
	got, err := c.schemaActor.GetSchema(ctx, schemaKey)
	if err != nil {
		return namespace.SelectResult{}, err
	}
	if !got.Found {
		return namespace.SelectResult{}, SelectStatementFailed{Metric: stmt.From, Reason: "no schema found for metric " + stmt.From}
	}

	nsKey := namespace.Key{DB: db, NS: ns, Metric: stmt.From}
	return c.nsActor.ExecuteSelectStatement(ctx, nsKey, stmt)
}

// GetNamespaces forwards to the namespace actor, a schema-less metadata
// query (spec.md §4.6).
func (c *Coordinator) GetNamespaces(ctx context.Context, db string) (namespace.NamespacesGot, error) {
	return c.nsActor.GetNamespaces(ctx, db)
}

// GetMetrics forwards to the namespace actor.
func (c *Coordinator) GetMetrics(ctx context.Context, db, ns string) (namespace.MetricsGot, error) {
	return c.nsActor.GetMetrics(ctx, db, ns)
}

// GetSchema forwards to the schema actor, the authority for schemas
// (spec.md §4.6 lists GetSchema among the schema-less metadata queries
// forwarded to the namespace actor, but the Schema Actor remains the sole
// authority per spec.md §3 — see DESIGN.md).
func (c *Coordinator) GetSchema(ctx context.Context, db, ns, metric string) (schema.SchemaGot, error) {
	return c.schemaActor.GetSchema(ctx, schema.Key{DB: db, NS: ns, Metric: metric})
}
