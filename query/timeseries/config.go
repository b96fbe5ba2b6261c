package timeseries

import (
	"github.com/influxdata/colstore/query/aggregation"
)

const (
	// DefaultResultCacheSize is the default number of query results kept by
	// an Engine.
	DefaultResultCacheSize = 128
)

// Config holds the query settings of the [query] section of the
// configuration file.
type Config struct {
	// ReplaceNullsWithDefault makes aggregations read null inputs as zero.
	ReplaceNullsWithDefault bool `toml:"replace-nulls-with-default"`

	// ResultCacheSize is the number of query results to cache. Zero
	// disables caching.
	ResultCacheSize int `toml:"result-cache-size"`
}

// NewConfig returns a new Config with default values.
func NewConfig() Config {
	return Config{
		ReplaceNullsWithDefault: true,
		ResultCacheSize:         DefaultResultCacheSize,
	}
}

// NullHandling returns the null handling mode aggregations are built with.
func (c Config) NullHandling() aggregation.NullHandling {
	return aggregation.NullHandling{ReplaceWithDefault: c.ReplaceNullsWithDefault}
}
