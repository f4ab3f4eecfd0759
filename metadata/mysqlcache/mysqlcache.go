// Package mysqlcache is a durable Backend for metadata.Cache on top of
// MySQL, grounded on the teacher's mysqlBuildDSN connection style.
package mysqlcache

import (
	"database/sql"
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"github.com/nsdb-io/nsdb/metadata"
)

// Config names the connection parameters for the MySQL backend.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DbName   string
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS nsdb_locations (
	db_name VARCHAR(255) NOT NULL,
	ns VARCHAR(255) NOT NULL,
	metric VARCHAR(255) NOT NULL,
	node VARCHAR(255) NOT NULL,
	from_ts BIGINT NOT NULL,
	to_ts BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS nsdb_metric_info (
	db_name VARCHAR(255) NOT NULL,
	ns VARCHAR(255) NOT NULL,
	metric VARCHAR(255) NOT NULL,
	shard_interval_ms BIGINT NOT NULL,
	PRIMARY KEY (db_name, ns, metric)
);
`

// Backend is a metadata.Backend backed by a MySQL database.
type Backend struct {
	db *sql.DB
}

// NewBackend opens a connection per config and ensures the schema exists.
func NewBackend(config Config) (*Backend, error) {
	db, err := sql.Open("mysql", buildDSN(config))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, err
	}
	return &Backend{db: db}, nil
}

func buildDSN(config Config) string {
	c := driver.NewConfig()
	c.User = config.User
	c.Passwd = config.Password
	c.DBName = config.DbName
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	// schemaDDL holds two statements, sent in one Exec.
	c.MultiStatements = true
	return c.FormatDSN()
}

func (b *Backend) SaveLocation(key metadata.Key, loc metadata.Location) error {
	_, err := b.db.Exec(
		`INSERT INTO nsdb_locations (db_name, ns, metric, node, from_ts, to_ts) VALUES (?, ?, ?, ?, ?, ?)`,
		key.DB, key.NS, key.Metric, loc.Node, loc.From, loc.To,
	)
	return err
}

func (b *Backend) SaveMetricInfo(key metadata.Key, info metadata.MetricInfo) error {
	_, err := b.db.Exec(
		`INSERT INTO nsdb_metric_info (db_name, ns, metric, shard_interval_ms) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE shard_interval_ms = VALUES(shard_interval_ms)`,
		key.DB, key.NS, key.Metric, info.ShardIntervalMs,
	)
	return err
}

func (b *Backend) LoadAll() (map[metadata.Key][]metadata.Location, map[metadata.Key]metadata.MetricInfo, error) {
	locations := map[metadata.Key][]metadata.Location{}
	infos := map[metadata.Key]metadata.MetricInfo{}

	rows, err := b.db.Query(`SELECT db_name, ns, metric, node, from_ts, to_ts FROM nsdb_locations`)
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

	infoRows, err := b.db.Query(`SELECT db_name, ns, metric, shard_interval_ms FROM nsdb_metric_info`)
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
