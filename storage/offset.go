package storage

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/influxdata/colstore/segment"
)

// Offset is a cursor over row positions. Positions strictly increase while
// WithinBounds is true.
type Offset interface {
	Offset() int
	Increment()
	WithinBounds() bool
	// Clone returns an Offset at the same position that advances
	// independently of the receiver.
	Clone() Offset
}

// NoFilterOffset visits every row in [0, rowCount).
type NoFilterOffset struct {
	cur      int
	rowCount int
}

// NewNoFilterOffset returns an offset positioned at row 0.
func NewNoFilterOffset(rowCount int) *NoFilterOffset {
	return &NoFilterOffset{rowCount: rowCount}
}

func (o *NoFilterOffset) Offset() int        { return o.cur }
func (o *NoFilterOffset) Increment()         { o.cur++ }
func (o *NoFilterOffset) WithinBounds() bool { return o.cur < o.rowCount }

func (o *NoFilterOffset) Clone() Offset {
	c := *o
	return &c
}

// BitmapOffset visits the rows set in a bitmap in increasing order. An empty
// bitmap yields an offset that is immediately out of bounds.
type BitmapOffset struct {
	bitmap *roaring.Bitmap
	itr    roaring.IntPeekable
	val    uint32
	done   bool
}

// NewBitmapOffset returns an offset positioned at the first row of bm. The
// bitmap must not be modified while the offset or its clones are in use.
func NewBitmapOffset(bm *roaring.Bitmap) *BitmapOffset {
	o := &BitmapOffset{bitmap: bm, itr: bm.Iterator()}
	o.Increment()
	return o
}

func (o *BitmapOffset) Offset() int        { return int(o.val) }
func (o *BitmapOffset) WithinBounds() bool { return !o.done }

func (o *BitmapOffset) Increment() {
	if o.done {
		return
	}
	if !o.itr.HasNext() {
		o.done = true
		return
	}
	o.val = o.itr.Next()
}

func (o *BitmapOffset) Clone() Offset {
	c := &BitmapOffset{bitmap: o.bitmap, val: o.val, done: o.done}
	if o.done {
		return c
	}
	c.itr = o.bitmap.Iterator()
	c.itr.AdvanceIfNeeded(o.val)
	c.itr.Next() // == o.val
	return c
}

// timestampCheckingOffset bounds a base offset at the first row whose
// timestamp reaches threshold. Incrementing it increments the base.
type timestampCheckingOffset struct {
	base       Offset
	timestamps segment.GenericColumn
	threshold  int64
}

func (o *timestampCheckingOffset) Offset() int { return o.base.Offset() }
func (o *timestampCheckingOffset) Increment()  { o.base.Increment() }

func (o *timestampCheckingOffset) WithinBounds() bool {
	return o.base.WithinBounds() && o.timestamps.LongAt(o.base.Offset()) < o.threshold
}

func (o *timestampCheckingOffset) Clone() Offset {
	return &timestampCheckingOffset{
		base:       o.base.Clone(),
		timestamps: o.timestamps,
		threshold:  o.threshold,
	}
}
