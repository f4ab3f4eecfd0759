// Package mssqlcache is a durable Backend for metadata.Cache on top of SQL
// Server, grounded on the teacher's mssqlBuildDSN connection style.
package mssqlcache

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/nsdb-io/nsdb/metadata"
)

// Config names the connection parameters for the SQL Server backend.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DbName   string
}

const schemaDDL = `
IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='nsdb_locations' AND xtype='U')
CREATE TABLE nsdb_locations (
	db_name NVARCHAR(255) NOT NULL,
	ns NVARCHAR(255) NOT NULL,
	metric NVARCHAR(255) NOT NULL,
	node NVARCHAR(255) NOT NULL,
	from_ts BIGINT NOT NULL,
	to_ts BIGINT NOT NULL
);
IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='nsdb_metric_info' AND xtype='U')
CREATE TABLE nsdb_metric_info (
	db_name NVARCHAR(255) NOT NULL,
	ns NVARCHAR(255) NOT NULL,
	metric NVARCHAR(255) NOT NULL,
	shard_interval_ms BIGINT NOT NULL,
	PRIMARY KEY (db_name, ns, metric)
);
`

// Backend is a metadata.Backend backed by a SQL Server database.
type Backend struct {
	db *sql.DB
}

// NewBackend opens a connection per config and ensures the schema exists.
func NewBackend(config Config) (*Backend, error) {
	db, err := sql.Open("sqlserver", buildDSN(config))
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
	query := url.Values{}
	query.Add("database", config.DbName)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (b *Backend) SaveLocation(key metadata.Key, loc metadata.Location) error {
	_, err := b.db.Exec(
		`INSERT INTO nsdb_locations (db_name, ns, metric, node, from_ts, to_ts) VALUES (@p1, @p2, @p3, @p4, @p5, @p6)`,
		key.DB, key.NS, key.Metric, loc.Node, loc.From, loc.To,
	)
	return err
}

func (b *Backend) SaveMetricInfo(key metadata.Key, info metadata.MetricInfo) error {
	_, err := b.db.Exec(
		`MERGE nsdb_metric_info AS target
		 USING (SELECT @p1 AS db_name, @p2 AS ns, @p3 AS metric, @p4 AS shard_interval_ms) AS src
		 ON target.db_name = src.db_name AND target.ns = src.ns AND target.metric = src.metric
		 WHEN MATCHED THEN UPDATE SET shard_interval_ms = src.shard_interval_ms
		 WHEN NOT MATCHED THEN INSERT (db_name, ns, metric, shard_interval_ms)
			VALUES (src.db_name, src.ns, src.metric, src.shard_interval_ms);`,
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
