package main

import (
	"github.com/BurntSushi/toml"
	"github.com/influxdata/colstore/logger"
	"github.com/influxdata/colstore/query/timeseries"
	"github.com/pkg/errors"
)

// Config represents the configuration file of colscan.
type Config struct {
	Logging logger.Config     `toml:"logging"`
	Query   timeseries.Config `toml:"query"`
}

// NewConfig returns an instance of Config with reasonable defaults.
func NewConfig() Config {
	return Config{
		Logging: logger.NewConfig(),
		Query:   timeseries.NewConfig(),
	}
}

// FromTomlFile loads the config from a TOML file. Settings missing from the
// file keep their current value.
func (c *Config) FromTomlFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrapf(err, "loading config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("config %s: unknown setting %q", path, undecoded[0].String())
	}
	return nil
}
