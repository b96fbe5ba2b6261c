package aggregation

import (
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/influxql"
)

// expressionSelector evaluates an arithmetic expression over the current
// row. load evaluates it once per row and every read returns the loaded
// value. Results that are not numbers, including those of expressions over
// null columns, are null.
type expressionSelector struct {
	expr    influxql.Expr
	columns map[string]query.ObjectSelector
	cur     interface{}
}

func newExpressionSelector(expr influxql.Expr, columns query.ColumnSelectorFactory) (*expressionSelector, error) {
	s := &expressionSelector{
		expr:    expr,
		columns: make(map[string]query.ObjectSelector),
	}
	for _, ref := range influxql.ExprNames(expr) {
		if _, ok := s.columns[ref.Val]; ok {
			continue
		}
		sel, err := columns.MakeObjectSelector(ref.Val)
		if err != nil {
			return nil, err
		}
		s.columns[ref.Val] = sel
	}
	return s, nil
}

// Value implements influxql.Valuer.
func (s *expressionSelector) Value(key string) (interface{}, bool) {
	sel, ok := s.columns[key]
	if !ok {
		return nil, false
	}
	switch v := sel.Get().(type) {
	case nil:
		return nil, false
	case float32:
		return float64(v), true
	default:
		return v, true
	}
}

func (s *expressionSelector) eval() interface{} {
	eval := influxql.ValuerEval{Valuer: s, IntegerFloatDivision: true}
	v := eval.Eval(s.expr)
	switch v.(type) {
	case float64, int64:
		return v
	}
	return nil
}

func (s *expressionSelector) load() { s.cur = s.eval() }

func (s *expressionSelector) Float() float32  { return convert[float32](s.cur) }
func (s *expressionSelector) Double() float64 { return convert[float64](s.cur) }
func (s *expressionSelector) Long() int64     { return convert[int64](s.cur) }
func (s *expressionSelector) IsNull() bool    { return s.cur == nil }

// rowLoader is implemented by selectors that compute the current row ahead
// of the reads of an Aggregate call.
type rowLoader interface {
	load()
}

// loadingAggregator loads the row of its selector before aggregating, so
// the null check and the read of a nullable aggregator share one
// evaluation.
type loadingAggregator struct {
	Aggregator
	loader rowLoader
}

func (a loadingAggregator) Aggregate() {
	a.loader.load()
	a.Aggregator.Aggregate()
}

type loadingBufferAggregator struct {
	BufferAggregator
	loader rowLoader
}

func (a loadingBufferAggregator) Aggregate(buf []byte, position int) {
	a.loader.load()
	a.BufferAggregator.Aggregate(buf, position)
}
