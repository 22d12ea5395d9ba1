package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// derived series: columns computed per row from an expression over other columns

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/casbin/govaluate"
	mapset "github.com/deckarep/golang-set/v2"
)

// Derived defines a column computed from the other columns of a row.
// Expression uses govaluate syntax; column names that are not plain
// identifiers are written in brackets, e.g. "[CPU %] / 100".
type Derived struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// ParseDerived parses a "name=expression" definition.
func ParseDerived(s string) (Derived, error) {
	name, expr, found := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	expr = strings.TrimSpace(expr)
	if !found || name == "" || expr == "" {
		return Derived{}, fmt.Errorf("invalid derived series definition %q, expected name=expression", s)
	}
	return Derived{Name: name, Expression: expr}, nil
}

// Derive appends one column per definition, in order. A definition may refer
// to columns added by earlier definitions. Rows where the expression cannot
// be evaluated get a missing value.
func (f *Frame) Derive(defs []Derived) error {
	if len(defs) == 0 {
		return nil
	}
	functions := getEvaluatorFunctions()
	columns := mapset.NewSet(f.Columns...)
	for _, def := range defs {
		if columns.Contains(def.Name) {
			return fmt.Errorf("derived series %q collides with an existing column", def.Name)
		}
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(def.Expression, functions)
		if err != nil {
			return fmt.Errorf("failed to parse expression for derived series %q: %w", def.Name, err)
		}
		if unknown := mapset.NewSet(expr.Vars()...).Difference(columns); unknown.Cardinality() > 0 {
			return fmt.Errorf("derived series %q refers to unknown column(s): %s", def.Name, strings.Join(unknown.ToSlice(), ", "))
		}
		failures := 0
		variables := make(map[string]any, len(f.Columns))
		for i, row := range f.Values {
			for c, name := range f.Columns {
				variables[name] = row[c]
			}
			v, err := evaluate(expr, variables)
			if err != nil {
				failures++
				slog.Debug("failed to evaluate derived series", slog.String("name", def.Name), slog.Int("row", i), slog.String("error", err.Error()))
			}
			f.Values[i] = append(row, v)
		}
		if failures > 0 {
			slog.Warn("derived series has rows that could not be evaluated", slog.String("name", def.Name), slog.Int("rows", failures))
		}
		f.Columns = append(f.Columns, def.Name)
		columns.Add(def.Name)
	}
	return nil
}

// evaluate runs the expression and converts the result to a float. The
// evaluator can panic on unexpected operand types, so panics are returned as
// errors.
func evaluate(expr *govaluate.EvaluableExpression, variables map[string]any) (v float64, err error) {
	v = math.NaN()
	defer func() {
		if errx := recover(); errx != nil {
			err = fmt.Errorf("evaluator panic: %v", errx)
			v = math.NaN()
		}
	}()
	result, err := expr.Evaluate(variables)
	if err != nil {
		return
	}
	switch t := result.(type) {
	case float64:
		if !math.IsInf(t, 0) {
			v = t
		}
	case bool:
		if t {
			v = 1
		} else {
			v = 0
		}
	default:
		err = fmt.Errorf("expression result is %T, not a number", result)
	}
	return
}

// getEvaluatorFunctions defines functions that can be called in expressions
func getEvaluatorFunctions() (functions map[string]govaluate.ExpressionFunction) {
	functions = make(map[string]govaluate.ExpressionFunction)
	functions["max"] = func(args ...any) (any, error) {
		left, right, err := twoFloats("max", args)
		if err != nil {
			return nil, err
		}
		return max(left, right), nil
	}
	functions["min"] = func(args ...any) (any, error) {
		left, right, err := twoFloats("min", args)
		if err != nil {
			return nil, err
		}
		return min(left, right), nil
	}
	functions["abs"] = func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs expects 1 argument, got %d", len(args))
		}
		val, ok := toFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("abs argument is not a number")
		}
		return math.Abs(val), nil
	}
	return
}

func twoFloats(name string, args []any) (left float64, right float64, err error) {
	if len(args) != 2 {
		err = fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
		return
	}
	var okLeft, okRight bool
	left, okLeft = toFloat(args[0])
	right, okRight = toFloat(args[1])
	if !okLeft || !okRight {
		err = fmt.Errorf("%s arguments must be numbers", name)
	}
	return
}

func toFloat(arg any) (float64, bool) {
	switch t := arg.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
