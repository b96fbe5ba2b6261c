package storage

import (
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/segment"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// pass holds the state shared by the cursors of one MakeCursors iteration.
// Cursors of a pass are handed out one at a time and must not be used after
// the pass ends.
type pass struct {
	logger     *zap.Logger
	cache      *columnCache
	timestamps segment.GenericColumn
	numRows    int

	// currRow is the shared row counter of the unfiltered mode.
	currRow int
	stats   query.CursorStats
}

func newPass(index segment.Index, logger *zap.Logger) *pass {
	sms.Passes.Inc()
	p := &pass{
		logger:  logger,
		cache:   newColumnCache(index, columnOpened),
		numRows: index.NumRows(),
	}
	if col := p.cache.get(segment.TimeColumnName); col.kind == kindLong {
		p.timestamps = col.generic
	}
	return p
}

func columnOpened(kind columnKind) {
	sms.ColumnsOpened.WithLabelValues(kind.String()).Inc()
}

// release closes every reader opened during the pass. Close failures are
// logged and counted but never reported to the caller.
func (p *pass) release() {
	sms.RowsScanned.Add(float64(p.stats.ScannedRows))
	if err := p.cache.close(); err != nil {
		errs := multierr.Errors(err)
		sms.CloseErrors.Add(float64(len(errs)))
		p.logger.Warn("Failed to close column readers",
			zap.Int("failed", len(errs)),
			zap.Error(err))
	}
}

func (p *pass) timestamp(row int) int64 { return p.timestamps.LongAt(row) }

// offsetCursor is a bucket cursor in the filtered mode. Its offset wraps the
// base offset shared by the pass, so advancing it moves the pass forward.
type offsetCursor struct {
	selectorFactory
	bucket     int64
	offset     Offset
	initOffset Offset
	pass       *pass
	stats      query.CursorStats
}

func newOffsetCursor(p *pass, bucket int64, offset Offset) *offsetCursor {
	c := &offsetCursor{
		bucket:     bucket,
		offset:     offset,
		initOffset: offset.Clone(),
		pass:       p,
	}
	c.selectorFactory = selectorFactory{pos: c, cache: p.cache}
	return c
}

func (c *offsetCursor) row() int     { return c.offset.Offset() }
func (c *offsetCursor) Time() int64  { return c.bucket }
func (c *offsetCursor) IsDone() bool { return !c.offset.WithinBounds() }

func (c *offsetCursor) Stats() query.CursorStats { return c.stats }

func (c *offsetCursor) Advance() {
	if c.offset.WithinBounds() {
		c.stats.ScannedRows++
		c.pass.stats.ScannedRows++
	}
	c.offset.Increment()
}

func (c *offsetCursor) Reset() {
	c.offset = c.initOffset.Clone()
}

// rowCursor is a bucket cursor in the unfiltered mode. All cursors of a pass
// share the pass row counter.
type rowCursor struct {
	selectorFactory
	bucket  int64
	end     int64
	initRow int
	pass    *pass
	stats   query.CursorStats
}

func newRowCursor(p *pass, bucket, end int64) *rowCursor {
	c := &rowCursor{
		bucket:  bucket,
		end:     end,
		initRow: p.currRow,
		pass:    p,
	}
	c.selectorFactory = selectorFactory{pos: c, cache: p.cache}
	return c
}

func (c *rowCursor) row() int    { return c.pass.currRow }
func (c *rowCursor) Time() int64 { return c.bucket }

func (c *rowCursor) Stats() query.CursorStats { return c.stats }

func (c *rowCursor) IsDone() bool {
	return c.pass.currRow >= c.pass.numRows || c.pass.timestamp(c.pass.currRow) >= c.end
}

func (c *rowCursor) Advance() {
	if !c.IsDone() {
		c.stats.ScannedRows++
		c.pass.stats.ScannedRows++
	}
	c.pass.currRow++
}

func (c *rowCursor) Reset() {
	c.pass.currRow = c.initRow
}
