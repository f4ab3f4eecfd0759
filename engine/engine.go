// Package engine wires the core's actors into one runnable unit and
// exposes the SQL surface over them, the way the teacher's root sqldef.go
// wires a Database into one Run entrypoint for its CLI commands.
package engine

import (
	"context"
	"fmt"

	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/config"
	"github.com/nsdb-io/nsdb/metadata"
	"github.com/nsdb-io/nsdb/namespace"
	"github.com/nsdb-io/nsdb/parser"
	"github.com/nsdb-io/nsdb/read"
	"github.com/nsdb-io/nsdb/schema"
	"github.com/nsdb-io/nsdb/write"
)

// Engine owns one instance of every actor/coordinator and exposes the SQL
// surface (spec.md §6's "Message contract") as plain Go calls.
type Engine struct {
	cfg        config.Config
	cache      *metadata.Cache
	schema     *schema.Actor
	metaCoord  *metadata.Coordinator
	nsActor    *namespace.Actor
	writeCoord *write.Coordinator
	readCoord  *read.Coordinator
}

// Option configures New beyond the loaded Config.
type Option struct {
	Backend  metadata.Backend
	Selector metadata.NodeSelector
	Publisher metadata.Publisher
}

// New builds an Engine from cfg, wiring every operation named in
// spec.md §6's message contract to its owning actor.
func New(cfg config.Config, opt Option) (*Engine, error) {
	cache, err := metadata.NewCache(opt.Backend)
	if err != nil {
		return nil, fmt.Errorf("opening metadata cache: %w", err)
	}

	schemaActor := schema.NewActor()
	metaCoord := metadata.NewCoordinator(cache, metadata.Config{
		DefaultShardIntervalMs: cfg.Sharding.Interval.Milliseconds(),
		DedupeLocations:        cfg.DedupeLocations,
		Selector:               opt.Selector,
		Publisher:              opt.Publisher,
	})
	nsActor := namespace.NewActor(cfg.Write.Scheduler.Interval)

	return &Engine{
		cfg:        cfg,
		cache:      cache,
		schema:     schemaActor,
		metaCoord:  metaCoord,
		nsActor:    nsActor,
		writeCoord: write.NewCoordinator(schemaActor, metaCoord, nsActor, 8),
		readCoord:  read.NewCoordinator(schemaActor, nsActor),
	}, nil
}

// Execute parses sql against (db, ns) and dispatches it to the write or
// read side. now resolves any NOW-relative timestamp in the statement.
func (e *Engine) Execute(ctx context.Context, db, ns, sql string, now int64) (any, error) {
	stmt, err := parser.ParseAt(sql, ns, now)
	if err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case parser.SelectStatement:
		return e.readCoord.ExecuteStatement(ctx, db, ns, s)

	case parser.InsertStatement:
		ts := s.Timestamp
		if !s.HasTimestamp {
			ts = now
		}
		b := bit.Bit{Timestamp: ts, Value: s.Value, Dimensions: s.Dimensions}
		return e.writeCoord.MapInput(ctx, db, ns, s.Metric, b)

	case parser.DeleteStatement:
		n, err := e.writeCoord.ExecuteDeleteStatement(ctx, db, ns, s)
		if err != nil {
			return nil, err
		}
		return n, nil

	case parser.DropStatement:
		return nil, e.writeCoord.DropMetric(ctx, db, ns, s.Metric)

	default:
		return nil, fmt.Errorf("unsupported statement type %T", stmt)
	}
}

func (e *Engine) Close() {
	e.nsActor.Close()
	e.metaCoord.Close()
	e.schema.Close()
	e.cache.Close()
}
