package metadata

// Backend is the optional durable backing store for the Metadata Cache
// (spec.md §4.4: "a durable backing may be layered behind but is not
// required by this core"). It mirrors the teacher's pluggable
// database.Database adapter shape: a handful of dialect-specific packages
// (metadata/sqlitecache, metadata/postgrescache, metadata/mysqlcache,
// metadata/mssqlcache) each implement it behind the same minimal schema.
type Backend interface {
	SaveLocation(Key, Location) error
	SaveMetricInfo(Key, MetricInfo) error
	LoadAll() (map[Key][]Location, map[Key]MetricInfo, error)
	Close() error
}

// Cache is the in-memory keyed store of spec.md §4.4: a multi-valued list
// of Locations per metric, and a single-valued MetricInfo per metric.
// It is not concurrency-safe by itself — by design, it is owned
// exclusively by one Coordinator's single mailbox goroutine (spec.md §5,
// "The Metadata Cache is owned by one actor; all reads go through it"),
// which is what gives "mutations are serialized per key" for free.
type Cache struct {
	locations   map[Key][]Location
	metricInfos map[Key]MetricInfo
	backend     Backend
}

// NewCache creates a cache preloaded with backend.LoadAll's contents.
// backend may be nil, in which case the cache starts empty and has no
// durable backing.
func NewCache(backend Backend) (*Cache, error) {
	c := &Cache{
		locations:   map[Key][]Location{},
		metricInfos: map[Key]MetricInfo{},
		backend:     backend,
	}
	if backend != nil {
		locs, infos, err := backend.LoadAll()
		if err != nil {
			return nil, err
		}
		c.locations = locs
		c.metricInfos = infos
	}
	return c, nil
}

// GetLocations returns every known Location for key (spec.md §4.3
// GetLocations).
func (c *Cache) GetLocations(key Key) []Location {
	return append([]Location(nil), c.locations[key]...)
}

// PutLocation appends loc without deduplication, per spec.md §4.3
// AddLocation and §9's resolved Open Question (see DESIGN.md): callers
// may produce multiple replicas per range, one per node.
func (c *Cache) PutLocation(key Key, loc Location) error {
	c.locations[key] = append(c.locations[key], loc)
	if c.backend != nil {
		return c.backend.SaveLocation(key, loc)
	}
	return nil
}

// GetMetricInfo returns the MetricInfo for key, if one has been set.
func (c *Cache) GetMetricInfo(key Key) (MetricInfo, bool) {
	info, ok := c.metricInfos[key]
	return info, ok
}

// PutMetricInfo records info for key. Callers must check GetMetricInfo
// first: PutMetricInfo itself does not enforce the "second Put fails"
// invariant (spec.md §4.3) — that's the Coordinator's job, since only it
// knows the write is a fresh PutMetricInfo request rather than a warm-up
// replay.
func (c *Cache) PutMetricInfo(key Key, info MetricInfo) error {
	c.metricInfos[key] = info
	if c.backend != nil {
		return c.backend.SaveMetricInfo(key, info)
	}
	return nil
}

// DeleteLocations drops every Location cached for key.
func (c *Cache) DeleteLocations(key Key) {
	delete(c.locations, key)
}

// DeleteAll drops every Location and MetricInfo cached for key.
func (c *Cache) DeleteAll(key Key) {
	delete(c.locations, key)
	delete(c.metricInfos, key)
}

func (c *Cache) Close() error {
	if c.backend != nil {
		return c.backend.Close()
	}
	return nil
}
