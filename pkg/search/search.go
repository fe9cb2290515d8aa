// Package search filters and sorts in-memory collections by named fields.
package search

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrUnknownField = errors.New("unknown search field")
	ErrUnknownOp    = errors.New("unknown filter operator")
	ErrIncomparable = errors.New("values are not comparable")
)

// Field exposes one attribute of T. Get must return a string, bool, an
// integer or float kind, or a time.Time.
type Field[T any] struct {
	Name string
	Get  func(T) any
}

// Op is a filter operator.
type Op string

const (
	Equals      Op = "equals"
	Contains    Op = "includes"
	GreaterThan Op = "gt"
	LessThan    Op = "lt"
	Between     Op = "between"
)

// ParseOp accepts the operator names used in query strings. An empty name
// means Equals.
func ParseOp(s string) (Op, error) {
	switch Op(strings.ToLower(s)) {
	case "", Equals:
		return Equals, nil
	case Contains, "contains":
		return Contains, nil
	case GreaterThan:
		return GreaterThan, nil
	case LessThan:
		return LessThan, nil
	case Between:
		return Between, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOp, s)
}

// Filter keeps items whose field satisfies Op against Value. Between is
// inclusive on both ends and uses Upper as the high bound.
type Filter struct {
	Field string
	Op    Op
	Value any
	Upper any
}

// Sort orders results by a field.
type Sort struct {
	Field string
	Desc  bool
}

// Query combines a free-text match, filters applied in order and an
// optional sort.
type Query struct {
	Text       string
	TextFields []string
	Filters    []Filter
	Sort       *Sort
}

// Run returns the items of in matching q. The input slice is not modified.
// The sort is stable.
func Run[T any](in []T, fields []Field[T], q Query) ([]T, error) {
	byName := make(map[string]Field[T], len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	lookup := func(name string) (Field[T], error) {
		f, ok := byName[name]
		if !ok {
			return f, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		return f, nil
	}

	out := slices.Clone(in)

	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		var textFields []Field[T]
		for _, name := range q.TextFields {
			f, err := lookup(name)
			if err != nil {
				return nil, err
			}
			textFields = append(textFields, f)
		}
		out = slices.DeleteFunc(out, func(item T) bool {
			for _, f := range textFields {
				if strings.Contains(strings.ToLower(fmt.Sprint(f.Get(item))), text) {
					return false
				}
			}
			return true
		})
	}

	for _, flt := range q.Filters {
		f, err := lookup(flt.Field)
		if err != nil {
			return nil, err
		}
		var matchErr error
		out = slices.DeleteFunc(out, func(item T) bool {
			ok, err := match(f.Get(item), flt)
			if err != nil && matchErr == nil {
				matchErr = err
			}
			return !ok
		})
		if matchErr != nil {
			return nil, fmt.Errorf("filter %s %s: %w", flt.Field, flt.Op, matchErr)
		}
	}

	if q.Sort != nil {
		f, err := lookup(q.Sort.Field)
		if err != nil {
			return nil, err
		}
		var sortErr error
		slices.SortStableFunc(out, func(a, b T) int {
			c, err := compare(f.Get(a), f.Get(b))
			if err != nil {
				sortErr = err
				return 0
			}
			if q.Sort.Desc {
				return -c
			}
			return c
		})
		if sortErr != nil {
			return nil, fmt.Errorf("sort %s: %w", q.Sort.Field, sortErr)
		}
	}

	return out, nil
}

func match(v any, f Filter) (bool, error) {
	switch f.Op {
	case "", Equals:
		c, err := compare(v, f.Value)
		if err != nil {
			return false, nil
		}
		return c == 0, nil
	case Contains:
		return strings.Contains(fmt.Sprint(v), fmt.Sprint(f.Value)), nil
	case GreaterThan:
		c, err := compare(v, f.Value)
		return err == nil && c > 0, err
	case LessThan:
		c, err := compare(v, f.Value)
		return err == nil && c < 0, err
	case Between:
		lo, err := compare(v, f.Value)
		if err != nil {
			return false, err
		}
		hi, err := compare(v, f.Upper)
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownOp, f.Op)
}

// compare orders two values of the same kind. Numbers of different Go types
// compare by value.
func compare(a, b any) (int, error) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	default:
		xf, ok1 := toFloat(a)
		yf, ok2 := toFloat(b)
		if ok1 && ok2 {
			switch {
			case xf < yf:
				return -1, nil
			case xf > yf:
				return 1, nil
			}
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: %T and %T", ErrIncomparable, a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
