package storage

import (
	"fmt"
	"io"

	"github.com/influxdata/colstore/segment"
	"go.uber.org/multierr"
)

// columnKind classifies an opened column once, when it is first requested
// in a pass. Selector construction switches on the kind.
type columnKind int

const (
	kindMissing columnKind = iota
	kindFloat
	kindLong
	kindString
	kindDictionary
	kindComplex
)

func (k columnKind) String() string {
	switch k {
	case kindFloat:
		return "float"
	case kindLong:
		return "long"
	case kindString:
		return "string"
	case kindDictionary:
		return "dictionary"
	case kindComplex:
		return "complex"
	default:
		return "missing"
	}
}

// cachedColumn holds the single reader opened for a column. Exactly one of
// generic, dict and complex is set unless the kind is kindMissing.
type cachedColumn struct {
	kind    columnKind
	caps    segment.Capabilities
	generic segment.GenericColumn
	dict    segment.DictionaryEncodedColumn
	complex segment.ComplexColumn
}

func (c *cachedColumn) closer() io.Closer {
	switch c.kind {
	case kindFloat, kindLong, kindString:
		return c.generic
	case kindDictionary:
		return c.dict
	case kindComplex:
		return c.complex
	}
	return nil
}

// columnCache maps normalized column names to opened readers for the
// duration of one iteration pass. It is not safe for concurrent use.
type columnCache struct {
	index   segment.Index
	columns map[string]*cachedColumn
	closed  bool
	opened  func(columnKind)
}

func newColumnCache(index segment.Index, opened func(columnKind)) *columnCache {
	return &columnCache{
		index:   index,
		columns: make(map[string]*cachedColumn),
		opened:  opened,
	}
}

// get returns the cached reader for name, opening it on first use. Once
// the cache is closed every column reads as missing.
func (c *columnCache) get(name string) *cachedColumn {
	if c.closed {
		return &cachedColumn{kind: kindMissing}
	}
	if name != segment.TimeColumnName {
		name = segment.NormalizeName(name)
	}
	if col, ok := c.columns[name]; ok {
		return col
	}

	col := c.open(name)
	c.columns[name] = col
	if col.kind != kindMissing && c.opened != nil {
		c.opened(col.kind)
	}
	return col
}

func (c *columnCache) open(name string) *cachedColumn {
	var holder segment.Column
	if name == segment.TimeColumnName {
		holder = c.index.TimeColumn()
	} else {
		holder = c.index.Column(name)
	}
	if holder == nil {
		return &cachedColumn{kind: kindMissing}
	}

	caps := holder.Capabilities()
	col := &cachedColumn{caps: caps}
	switch {
	case caps.DictionaryEncoded:
		if col.dict = holder.DictionaryEncoding(); col.dict != nil {
			col.kind = kindDictionary
		}
	case caps.Type == segment.Complex:
		if col.complex = holder.ComplexColumn(); col.complex != nil {
			col.kind = kindComplex
		}
	default:
		if col.generic = holder.GenericColumn(); col.generic != nil {
			switch col.generic.Type() {
			case segment.Float:
				col.kind = kindFloat
			case segment.Long:
				col.kind = kindLong
			case segment.String:
				col.kind = kindString
			default:
				_ = col.generic.Close()
				col.generic = nil
			}
		}
	}
	return col
}

// close releases every opened reader. It is safe to call more than once;
// only the first call closes readers. Failures of individual readers do not
// prevent the remaining readers from being closed.
func (c *columnCache) close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	for name, col := range c.columns {
		if closer := col.closer(); closer != nil {
			err = multierr.Append(err, closeQuietly(name, closer))
		}
	}
	c.columns = nil
	return err
}

// closeQuietly closes r, converting a panicking Close into an error.
func closeQuietly(name string, r io.Closer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("closing column %q: panic: %v", name, p)
		}
	}()
	if cerr := r.Close(); cerr != nil {
		return fmt.Errorf("closing column %q: %w", name, cerr)
	}
	return nil
}
