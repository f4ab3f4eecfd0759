// Package config loads the core's runtime configuration, grounded on the
// teacher's GeneratorConfig parsing (database/database.go): yaml.v3 with
// KnownFields(true), defaults applied after decode, env vars layered on
// top for the settings operators tune per-deployment.
package config

import (
	"bytes"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the single recognized configuration set (spec.md §4, "single
// recognized set"): sharding, the write scheduler, and the two ask
// timeouts.
type Config struct {
	// Sharding.Interval is nsdb.sharding.interval, the default shard
	// width handed to the Metadata Coordinator.
	Sharding struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"sharding"`

	// Write.Scheduler.Interval is nsdb.write.scheduler.interval: how
	// often the Namespace Data Actor flushes buffered writes.
	Write struct {
		Scheduler struct {
			Interval time.Duration `yaml:"interval"`
		} `yaml:"scheduler"`
	} `yaml:"write"`

	// ReadCoordinator.Timeout is nsdb.read-coordinator.timeout.
	ReadCoordinator struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"read-coordinator"`

	// HTTPEndpoint.Timeout is nsdb.http-endpoint.timeout.
	HTTPEndpoint struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http-endpoint"`

	// DedupeLocations resolves spec.md §9's open question for
	// AddLocation; see metadata.Config.DedupeLocations.
	DedupeLocations bool `yaml:"dedupe-locations"`
}

// Default returns the configuration used when no file and no env
// overrides are present.
func Default() Config {
	var c Config
	c.Sharding.Interval = 60 * time.Second
	c.Write.Scheduler.Interval = 5 * time.Second
	c.ReadCoordinator.Timeout = 10 * time.Second
	c.HTTPEndpoint.Timeout = 30 * time.Second
	return c
}

// Load reads path as YAML into Default(), then applies NSDB_*
// environment overrides (see applyEnv). An empty path returns Default()
// with only env overrides applied.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := parseInto(&c, buf); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&c)
	return c, nil
}

func parseInto(c *Config, buf []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	return dec.Decode(c)
}

// applyEnv layers NSDB_SHARDING_INTERVAL, NSDB_WRITE_SCHEDULER_INTERVAL,
// NSDB_READ_COORDINATOR_TIMEOUT, and NSDB_HTTP_ENDPOINT_TIMEOUT over
// whatever the file (or defaults) already set, each parsed as a Go
// duration string (e.g. "60s").
func applyEnv(c *Config) {
	if v, ok := lookupDuration("NSDB_SHARDING_INTERVAL"); ok {
		c.Sharding.Interval = v
	}
	if v, ok := lookupDuration("NSDB_WRITE_SCHEDULER_INTERVAL"); ok {
		c.Write.Scheduler.Interval = v
	}
	if v, ok := lookupDuration("NSDB_READ_COORDINATOR_TIMEOUT"); ok {
		c.ReadCoordinator.Timeout = v
	}
	if v, ok := lookupDuration("NSDB_HTTP_ENDPOINT_TIMEOUT"); ok {
		c.HTTPEndpoint.Timeout = v
	}
	if v, ok := os.LookupEnv("NSDB_DEDUPE_LOCATIONS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DedupeLocations = b
		}
	}
}

func lookupDuration(key string) (time.Duration, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
