// Package sqlitecache is a durable Backend for metadata.Cache on top of
// SQLite, grounded on the teacher's adapter/sqlite3 connection style.
package sqlitecache

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nsdb-io/nsdb/metadata"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS nsdb_locations (
	db TEXT NOT NULL,
	ns TEXT NOT NULL,
	metric TEXT NOT NULL,
	node TEXT NOT NULL,
	from_ts INTEGER NOT NULL,
	to_ts INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nsdb_metric_info (
	db TEXT NOT NULL,
	ns TEXT NOT NULL,
	metric TEXT NOT NULL,
	shard_interval_ms INTEGER NOT NULL,
	PRIMARY KEY (db, ns, metric)
);
`

// Backend is a metadata.Backend backed by a SQLite database file.
type Backend struct {
	db *sql.DB
}

// NewBackend opens (and creates, if missing) path as the durable store.
func NewBackend(path string) (*Backend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, err
	}
	return &Backend{db: db}, nil
}

func (b *Backend) SaveLocation(key metadata.Key, loc metadata.Location) error {
	_, err := b.db.Exec(
		`INSERT INTO nsdb_locations (db, ns, metric, node, from_ts, to_ts) VALUES (?, ?, ?, ?, ?, ?)`,
		key.DB, key.NS, key.Metric, loc.Node, loc.From, loc.To,
	)
	return err
}

func (b *Backend) SaveMetricInfo(key metadata.Key, info metadata.MetricInfo) error {
	_, err := b.db.Exec(
		`INSERT INTO nsdb_metric_info (db, ns, metric, shard_interval_ms) VALUES (?, ?, ?, ?)
		 ON CONFLICT(db, ns, metric) DO UPDATE SET shard_interval_ms = excluded.shard_interval_ms`,
		key.DB, key.NS, key.Metric, info.ShardIntervalMs,
	)
	return err
}

func (b *Backend) LoadAll() (map[metadata.Key][]metadata.Location, map[metadata.Key]metadata.MetricInfo, error) {
	locations := map[metadata.Key][]metadata.Location{}
	infos := map[metadata.Key]metadata.MetricInfo{}

	rows, err := b.db.Query(`SELECT db, ns, metric, node, from_ts, to_ts FROM nsdb_locations`)
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		var key metadata.Key
		var loc metadata.Location
		if err := rows.Scan(&key.DB, &key.NS, &key.Metric, &loc.Node, &loc.From, &loc.To); err != nil {
			rows.Close()
			return nil, nil, err
		}
		loc.Metric = key.Metric
		locations[key] = append(locations[key], loc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, err
	}
	rows.Close()

	infoRows, err := b.db.Query(`SELECT db, ns, metric, shard_interval_ms FROM nsdb_metric_info`)
	if err != nil {
		return nil, nil, err
	}
	defer infoRows.Close()
	for infoRows.Next() {
		var key metadata.Key
		var info metadata.MetricInfo
		if err := infoRows.Scan(&key.DB, &key.NS, &key.Metric, &info.ShardIntervalMs); err != nil {
			return nil, nil, err
		}
		info.Metric = key.Metric
		infos[key] = info
	}
	return locations, infos, infoRows.Err()
}

func (b *Backend) Close() error { return b.db.Close() }
