package metadata

import (
	"context"

	"github.com/nsdb-io/nsdb/actor"
	"github.com/nsdb-io/nsdb/errkind"
)

// lifecycle is the Coordinator's two-state machine (spec.md §4.3):
// warm-up replays a seed, then announces readiness and transitions.
type lifecycle int

const (
	lifecycleWarmUp lifecycle = iota
	lifecycleReady
)

// Config configures the Coordinator's sharding policy.
type Config struct {
	// DefaultShardIntervalMs is nsdb.sharding.interval's resolved
	// duration, used when a metric has no MetricInfo override.
	DefaultShardIntervalMs int64
	// DedupeLocations resolves spec.md §9's open question: by default,
	// AddLocation does not deduplicate, allowing multiple replicas per
	// range. Setting this treats (metric, from, to, node) as a unique
	// key and makes AddLocation an upsert instead.
	DedupeLocations bool
	Selector        NodeSelector
	Publisher       Publisher
}

// LocationsGot is the reply to GetLocations and GetWriteLocations.
type LocationsGot struct {
	Key       Key
	Locations []Location
}

// LocationsAdded is the reply to AddLocation.
type LocationsAdded struct {
	Key      Key
	Location Location
}

// MetricInfoGot is the reply to GetMetricInfo.
type MetricInfoGot struct {
	Key   Key
	Info  MetricInfo
	Found bool
}

// MetricInfoPut is the reply to a successful PutMetricInfo.
type MetricInfoPut struct {
	Key  Key
	Info MetricInfo
}

type getLocationsMsg struct{ key Key }
type addLocationMsg struct {
	key Key
	loc Location
}
type getWriteLocationsMsg struct {
	key Key
	ts  int64
}
type getMetricInfoMsg struct{ key Key }
type putMetricInfoMsg struct {
	key  Key
	info MetricInfo
}
type warmUpMsg struct {
	locations   map[Key][]Location
	metricInfos map[Key]MetricInfo
}

// Coordinator is the single-writer authority for Location assignment
// (spec.md §3, §4.3).
type Coordinator struct {
	mb *actor.Mailbox
}

// NewCoordinator starts the Metadata Coordinator in warm-up state, owning
// cache. It transitions to ready either on the first WarmUpMetadata
// message or, if none arrives, on the first other operation.
func NewCoordinator(cache *Cache, cfg Config) *Coordinator {
	if cfg.Selector == nil {
		cfg.Selector = RoundRobinSelector(nil)
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.DefaultShardIntervalMs <= 0 {
		cfg.DefaultShardIntervalMs = 60000
	}

	state := lifecycleWarmUp
	c := &Coordinator{}
	c.mb = actor.NewMailbox(64, func(msg any) any {
		if state == lifecycleWarmUp {
			if w, ok := msg.(warmUpMsg); ok {
				for k, locs := range w.locations {
					for _, l := range locs {
						cache.locations[k] = append(cache.locations[k], l)
					}
				}
				for k, info := range w.metricInfos {
					cache.metricInfos[k] = info
				}
				state = lifecycleReady
				cfg.Publisher.Publish(Event{Kind: EventReady, Ready: true})
				return nil
			}
			// Any non-warm-up operation implicitly completes warm-up with
			// an empty seed: the core must remain usable standalone.
			state = lifecycleReady
			cfg.Publisher.Publish(Event{Kind: EventReady, Ready: true})
		}

		switch m := msg.(type) {
		case getLocationsMsg:
			return LocationsGot{Key: m.key, Locations: cache.GetLocations(m.key)}

		case addLocationMsg:
			if cfg.DedupeLocations {
				for _, existing := range cache.locations[m.key] {
					if existing == m.loc {
						return LocationsAdded{Key: m.key, Location: existing}
					}
				}
			}
			if err := cache.PutLocation(m.key, m.loc); err != nil {
				return errkind.New(errkind.StorageError, err.Error())
			}
			cfg.Publisher.Publish(Event{Kind: EventLocationAdded, Key: m.key, Location: m.loc})
			return LocationsAdded{Key: m.key, Location: m.loc}

		case getWriteLocationsMsg:
			interval := cfg.DefaultShardIntervalMs
			if info, ok := cache.GetMetricInfo(m.key); ok {
				interval = info.ShardIntervalMs
			}
			bucket := floorDiv(m.ts, interval)
			from := bucket * interval
			to := from + interval

			for _, existing := range cache.locations[m.key] {
				if existing.From == from && existing.To == to {
					return LocationsGot{Key: m.key, Locations: []Location{existing}}
				}
			}

			node := cfg.Selector(m.key.Metric, bucket)
			loc := Location{Metric: m.key.Metric, Node: node, From: from, To: to}
			if err := cache.PutLocation(m.key, loc); err != nil {
				return errkind.New(errkind.StorageError, err.Error())
			}
			cfg.Publisher.Publish(Event{Kind: EventLocationAdded, Key: m.key, Location: loc})
			return LocationsGot{Key: m.key, Locations: []Location{loc}}

		case getMetricInfoMsg:
			info, ok := cache.GetMetricInfo(m.key)
			return MetricInfoGot{Key: m.key, Info: info, Found: ok}

		case putMetricInfoMsg:
			if _, ok := cache.GetMetricInfo(m.key); ok {
				return errkind.New(errkind.DuplicateMetricInfo, "metric info already set for "+m.key.Metric)
			}
			if err := cache.PutMetricInfo(m.key, m.info); err != nil {
				return errkind.New(errkind.StorageError, err.Error())
			}
			return MetricInfoPut{Key: m.key, Info: m.info}

		case warmUpMsg:
			// already-ready re-seed: merge, don't replace.
			for k, locs := range m.locations {
				cache.locations[k] = append(cache.locations[k], locs...)
			}
			for k, info := range m.metricInfos {
				if _, ok := cache.metricInfos[k]; !ok {
					cache.metricInfos[k] = info
				}
			}
			return nil
		}
		return nil
	})
	return c
}

// floorDiv computes floor(a/b) for b > 0, matching spec.md §4.3 step 2
// ("k = floor(timestamp / I)") for negative timestamps too, unlike Go's
// truncating integer division.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (c *Coordinator) WarmUp(ctx context.Context, locations map[Key][]Location, metricInfos map[Key]MetricInfo) error {
	_, err := c.mb.Ask(ctx, "WarmUpMetadata", warmUpMsg{locations: locations, metricInfos: metricInfos})
	return err
}

func (c *Coordinator) GetLocations(ctx context.Context, key Key) (LocationsGot, error) {
	r, err := c.mb.Ask(ctx, "GetLocations", getLocationsMsg{key: key})
	if err != nil {
		return LocationsGot{}, err
	}
	return r.(LocationsGot), nil
}

func (c *Coordinator) AddLocation(ctx context.Context, key Key, loc Location) (LocationsAdded, error) {
	r, err := c.mb.Ask(ctx, "AddLocation", addLocationMsg{key: key, loc: loc})
	if err != nil {
		return LocationsAdded{}, err
	}
	if e, ok := r.(*errkind.Error); ok {
		return LocationsAdded{}, e
	}
	return r.(LocationsAdded), nil
}

// GetWriteLocations implements the deterministic assignment of
// spec.md §4.3: it returns exactly one Location covering ts, allocating
// and caching a fresh one if the active shard interval's bucket for ts
// isn't covered yet.
func (c *Coordinator) GetWriteLocations(ctx context.Context, key Key, ts int64) (LocationsGot, error) {
	r, err := c.mb.Ask(ctx, "GetWriteLocations", getWriteLocationsMsg{key: key, ts: ts})
	if err != nil {
		return LocationsGot{}, err
	}
	if e, ok := r.(*errkind.Error); ok {
		return LocationsGot{}, e
	}
	return r.(LocationsGot), nil
}

func (c *Coordinator) GetMetricInfo(ctx context.Context, key Key) (MetricInfoGot, error) {
	r, err := c.mb.Ask(ctx, "GetMetricInfo", getMetricInfoMsg{key: key})
	if err != nil {
		return MetricInfoGot{}, err
	}
	return r.(MetricInfoGot), nil
}

// PutMetricInfo fails with an *errkind.Error of Kind DuplicateMetricInfo
// if info already exists for key (spec.md §4.3).
func (c *Coordinator) PutMetricInfo(ctx context.Context, key Key, info MetricInfo) (MetricInfoPut, error) {
	r, err := c.mb.Ask(ctx, "PutMetricInfo", putMetricInfoMsg{key: key, info: info})
	if err != nil {
		return MetricInfoPut{}, err
	}
	if e, ok := r.(*errkind.Error); ok {
		return MetricInfoPut{}, e
	}
	return r.(MetricInfoPut), nil
}

func (c *Coordinator) Close() { c.mb.Close() }
