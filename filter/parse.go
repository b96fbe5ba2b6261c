package filter

import (
	"fmt"

	"github.com/influxdata/influxql"
)

// Parse builds a Filter from an InfluxQL boolean expression such as
//
//	host = 'a' AND (region = 'us-west' OR region =~ /^eu-/)
//
// Comparisons must be between a dimension and a string or regex literal.
func Parse(s string) (Filter, error) {
	expr, err := influxql.ParseExpr(s)
	if err != nil {
		return nil, err
	}
	return FromExpr(expr)
}

// FromExpr converts a parsed InfluxQL expression into a Filter.
func FromExpr(expr influxql.Expr) (Filter, error) {
	switch expr := expr.(type) {
	case *influxql.ParenExpr:
		return FromExpr(expr.Expr)
	case *influxql.BooleanLiteral:
		if expr.Val {
			return True{}, nil
		}
		return &Not{Filter: True{}}, nil
	case *influxql.BinaryExpr:
		switch expr.Op {
		case influxql.AND, influxql.OR:
			lhs, err := FromExpr(expr.LHS)
			if err != nil {
				return nil, err
			}
			rhs, err := FromExpr(expr.RHS)
			if err != nil {
				return nil, err
			}
			if expr.Op == influxql.AND {
				return &And{Filters: []Filter{lhs, rhs}}, nil
			}
			return &Or{Filters: []Filter{lhs, rhs}}, nil
		case influxql.EQ, influxql.NEQ, influxql.EQREGEX, influxql.NEQREGEX:
			return comparison(expr)
		}
		return nil, fmt.Errorf("unsupported operator %s in filter", expr.Op)
	}
	return nil, fmt.Errorf("unsupported filter expression: %s", expr)
}

func comparison(expr *influxql.BinaryExpr) (Filter, error) {
	ref, lit := expr.LHS, expr.RHS
	if _, ok := ref.(*influxql.VarRef); !ok {
		ref, lit = lit, ref
	}
	v, ok := ref.(*influxql.VarRef)
	if !ok {
		return nil, fmt.Errorf("comparison must reference a dimension: %s", expr)
	}

	var f Filter
	switch lit := lit.(type) {
	case *influxql.StringLiteral:
		if expr.Op != influxql.EQ && expr.Op != influxql.NEQ {
			return nil, fmt.Errorf("operator %s requires a regex: %s", expr.Op, expr)
		}
		f = &Selector{Dimension: v.Val, Value: lit.Val}
	case *influxql.RegexLiteral:
		if expr.Op != influxql.EQREGEX && expr.Op != influxql.NEQREGEX {
			return nil, fmt.Errorf("operator %s cannot compare a regex: %s", expr.Op, expr)
		}
		f = &Regex{Dimension: v.Val, Pattern: lit.Val}
	default:
		return nil, fmt.Errorf("dimensions can only be compared to strings or regexes: %s", expr)
	}

	if expr.Op == influxql.NEQ || expr.Op == influxql.NEQREGEX {
		return &Not{Filter: f}, nil
	}
	return f, nil
}
