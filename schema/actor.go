package schema

import (
	"context"

	"github.com/nsdb-io/nsdb/actor"
	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/errkind"
)

// SchemaGot is the reply to GetSchema: Found is false when no schema
// exists yet for the metric.
type SchemaGot struct {
	Key    Key
	Schema Schema
	Found  bool
}

// SchemaUpdated is the reply to a successful UpdateSchemaFromRecord.
type SchemaUpdated struct {
	Key    Key
	Schema Schema
}

// UpdateSchemaFailed is the reply to an UpdateSchemaFromRecord that hit a
// type conflict.
type UpdateSchemaFailed struct {
	Key    Key
	Fields []string
}

type getSchemaMsg struct{ key Key }
type updateSchemaMsg struct {
	key Key
	bit bit.Bit
}
type deleteSchemaMsg struct{ key Key }
type deleteNamespaceMsg struct {
	db, ns string
}

// Actor is the single-threaded mailbox owning every metric's schema
// within a process (spec.md §3: "the Schema Actor is the sole authority
// for schemas").
type Actor struct {
	mb *actor.Mailbox
}

// NewActor starts the Schema Actor.
func NewActor() *Actor {
	a := &Actor{}
	state := map[Key]Schema{}
	a.mb = actor.NewMailbox(64, func(msg any) any {
		switch m := msg.(type) {
		case getSchemaMsg:
			sc, ok := state[m.key]
			return SchemaGot{Key: m.key, Schema: sc, Found: ok}

		case updateSchemaMsg:
			candidate := FromBit(m.bit)
			existing, ok := state[m.key]
			if !ok {
				state[m.key] = candidate
				return SchemaUpdated{Key: m.key, Schema: candidate}
			}
			merged, conflicts := Evolve(existing, candidate)
			if len(conflicts) > 0 {
				return UpdateSchemaFailed{Key: m.key, Fields: conflicts}
			}
			state[m.key] = merged
			return SchemaUpdated{Key: m.key, Schema: merged}

		case deleteSchemaMsg:
			delete(state, m.key)
			return nil

		case deleteNamespaceMsg:
			for k := range state {
				if k.DB == m.db && k.NS == m.ns {
					delete(state, k)
				}
			}
			return nil
		}
		return nil
	})
	return a
}

func (a *Actor) GetSchema(ctx context.Context, key Key) (SchemaGot, error) {
	r, err := a.mb.Ask(ctx, "GetSchema", getSchemaMsg{key: key})
	if err != nil {
		return SchemaGot{}, err
	}
	return r.(SchemaGot), nil
}

// UpdateSchemaFromRecord validates b against the current schema for key
// and evolves it. A type conflict aborts the update and is returned as an
// *errkind.Error with Kind == errkind.SchemaConflict, per spec.md §7.
func (a *Actor) UpdateSchemaFromRecord(ctx context.Context, key Key, b bit.Bit) (SchemaUpdated, error) {
	r, err := a.mb.Ask(ctx, "UpdateSchemaFromRecord", updateSchemaMsg{key: key, bit: b})
	if err != nil {
		return SchemaUpdated{}, err
	}
	switch reply := r.(type) {
	case SchemaUpdated:
		return reply, nil
	case UpdateSchemaFailed:
		return SchemaUpdated{}, errkind.Conflict(reply.Fields)
	default:
		return SchemaUpdated{}, errkind.New(errkind.StorageError, "unexpected reply")
	}
}

func (a *Actor) DeleteSchema(ctx context.Context, key Key) error {
	_, err := a.mb.Ask(ctx, "DeleteSchema", deleteSchemaMsg{key: key})
	return err
}

func (a *Actor) DeleteNamespace(ctx context.Context, db, ns string) error {
	_, err := a.mb.Ask(ctx, "DeleteNamespace", deleteNamespaceMsg{db: db, ns: ns})
	return err
}

func (a *Actor) Close() { a.mb.Close() }
