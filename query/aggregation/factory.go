package aggregation

import (
	"unicode/utf8"

	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/influxql"
)

// cacheKeySeparator separates the field name from the expression in cache
// keys. It never occurs in valid UTF-8.
const cacheKeySeparator = 0xFF

// Spec is the configuration of an aggregation.
type Spec struct {
	Type       string `json:"type" toml:"type"`
	Name       string `json:"name" toml:"name"`
	FieldName  string `json:"fieldName,omitempty" toml:"field-name"`
	Expression string `json:"expression,omitempty" toml:"expression"`
}

// New returns the factory configured by spec.
func New(spec Spec, nulls NullHandling) (AggregatorFactory, error) {
	switch spec.Type {
	case floatSum.typ:
		return NewFloatSum(spec.Name, spec.FieldName, spec.Expression, nulls)
	case doubleSum.typ:
		return NewDoubleSum(spec.Name, spec.FieldName, spec.Expression, nulls)
	case longSum.typ:
		return NewLongSum(spec.Name, spec.FieldName, spec.Expression, nulls)
	case count.typ:
		if spec.FieldName != "" || spec.Expression != "" {
			return nil, errors.Errorf(errors.EInvalid, "aggregation.New", "count aggregation %q takes no field name or expression", spec.Name)
		}
		return NewCount(spec.Name, nulls)
	}
	return nil, errors.Errorf(errors.EInvalid, "aggregation.New", "unknown aggregation type %q", spec.Type)
}

// NewFloatSum returns a factory summing a column or expression as float32.
func NewFloatSum(name, fieldName, expression string, nulls NullHandling) (AggregatorFactory, error) {
	return newFactory(floatSum, name, fieldName, expression, nulls)
}

// NewDoubleSum returns a factory summing a column or expression as float64.
func NewDoubleSum(name, fieldName, expression string, nulls NullHandling) (AggregatorFactory, error) {
	return newFactory(doubleSum, name, fieldName, expression, nulls)
}

// NewLongSum returns a factory summing a column or expression as int64.
func NewLongSum(name, fieldName, expression string, nulls NullHandling) (AggregatorFactory, error) {
	return newFactory(longSum, name, fieldName, expression, nulls)
}

// NewCount returns a factory counting rows. Counts are never null; nulls
// applies to the factory combining them.
func NewCount(name string, nulls NullHandling) (AggregatorFactory, error) {
	if name == "" {
		return nil, errors.Errorf(errors.EInvalid, "aggregation.NewCount", "aggregation name must not be empty")
	}
	return &factory[int64]{kind: count, name: name, nulls: nulls}, nil
}

func newFactory[T number](k *kind[T], name, fieldName, expression string, nulls NullHandling) (AggregatorFactory, error) {
	op := "aggregation.New"
	switch {
	case name == "":
		return nil, errors.Errorf(errors.EInvalid, op, "aggregation name must not be empty")
	case fieldName == "" && expression == "":
		return nil, errors.Errorf(errors.EInvalid, op, "aggregation %q must have a field name or an expression", name)
	case fieldName != "" && expression != "":
		return nil, errors.Errorf(errors.EInvalid, op, "aggregation %q must not have both a field name and an expression", name)
	case !utf8.ValidString(fieldName) || !utf8.ValidString(expression):
		return nil, errors.Errorf(errors.EInvalid, op, "aggregation %q field name and expression must be valid UTF-8", name)
	}

	f := &factory[T]{
		kind:       k,
		name:       name,
		fieldName:  fieldName,
		expression: expression,
		nulls:      nulls,
	}
	if expression != "" {
		expr, err := influxql.ParseExpr(expression)
		if err != nil {
			return nil, &errors.Error{
				Code: errors.EInvalid,
				Op:   op,
				Msg:  "invalid expression for aggregation " + name,
				Err:  err,
			}
		}
		f.expr = expr
	}
	return f, nil
}

type factory[T number] struct {
	kind       *kind[T]
	name       string
	fieldName  string
	expression string
	expr       influxql.Expr
	nulls      NullHandling
}

func (f *factory[T]) Name() string     { return f.name }
func (f *factory[T]) TypeName() string { return f.kind.typeName }

func (f *factory[T]) Nullable() bool {
	return !f.kind.count && !f.nulls.ReplaceWithDefault
}

func (f *factory[T]) selector(columns query.ColumnSelectorFactory) (query.NumericSelector, error) {
	switch {
	case f.kind.count:
		return nil, nil
	case f.expr != nil:
		return newExpressionSelector(f.expr, columns)
	}
	return columns.MakeNumericSelector(f.fieldName), nil
}

func (f *factory[T]) BuildAggregator(columns query.ColumnSelectorFactory) (Aggregator, error) {
	sel, err := f.selector(columns)
	if err != nil {
		return nil, err
	}
	var agg Aggregator = &sumAggregator[T]{kind: f.kind, sel: sel}
	if f.Nullable() {
		agg = &nullableAggregator{inner: agg, sel: sel}
	}
	if l, ok := sel.(rowLoader); ok {
		agg = loadingAggregator{Aggregator: agg, loader: l}
	}
	return agg, nil
}

func (f *factory[T]) BuildBufferAggregator(columns query.ColumnSelectorFactory) (BufferAggregator, error) {
	sel, err := f.selector(columns)
	if err != nil {
		return nil, err
	}
	var agg BufferAggregator = &sumBufferAggregator[T]{kind: f.kind, sel: sel}
	if f.Nullable() {
		agg = &nullableBufferAggregator{inner: agg, sel: sel}
	}
	if l, ok := sel.(rowLoader); ok {
		agg = loadingBufferAggregator{BufferAggregator: agg, loader: l}
	}
	return agg, nil
}

func (f *factory[T]) BuildCombiner() AggregateCombiner {
	c := &sumCombiner[T]{}
	if f.Nullable() {
		return &nullableCombiner{inner: c, isNull: true}
	}
	return c
}

func (f *factory[T]) Combine(lhs, rhs interface{}) interface{} {
	if lhs == nil {
		return rhs
	}
	if rhs == nil {
		return lhs
	}
	return convert[T](lhs) + convert[T](rhs)
}

func (f *factory[T]) CombiningFactory() AggregatorFactory {
	return &factory[T]{
		kind:      f.kind.combiner(),
		name:      f.name,
		fieldName: f.name,
		nulls:     f.nulls,
	}
}

func (f *factory[T]) RequiredColumns() []AggregatorFactory {
	if f.kind.count {
		return []AggregatorFactory{&factory[T]{kind: f.kind, name: f.name, nulls: f.nulls}}
	}
	name := f.fieldName
	if name == "" {
		name = f.name
	}
	return []AggregatorFactory{&factory[T]{
		kind:       f.kind,
		name:       name,
		fieldName:  f.fieldName,
		expression: f.expression,
		expr:       f.expr,
		nulls:      f.nulls,
	}}
}

// CacheKey returns the kind tag followed by the field name, a 0xFF
// separator and the expression. Count keys hold the tag only.
func (f *factory[T]) CacheKey() []byte {
	if f.kind.count {
		return []byte{f.kind.id}
	}
	key := make([]byte, 0, 2+len(f.fieldName)+len(f.expression))
	key = append(key, f.kind.id)
	key = append(key, f.fieldName...)
	key = append(key, cacheKeySeparator)
	return append(key, f.expression...)
}

func (f *factory[T]) MaxIntermediateSize() int {
	if f.Nullable() {
		return f.kind.size + 1
	}
	return f.kind.size
}

func (f *factory[T]) String() string {
	if f.kind.count {
		return f.kind.typ + "(" + f.name + ")"
	}
	if f.expression != "" {
		return f.kind.typ + "(" + f.name + ", " + f.expression + ")"
	}
	return f.kind.typ + "(" + f.name + ", " + f.fieldName + ")"
}
