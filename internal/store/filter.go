package store

import (
	"strconv"
	"strings"
)

type filterOp int

const (
	opAll filterOp = iota
	opEq
	opArrayContains
	opIn
	opGt
	opAnd
	opOr
)

// Filter is a composable query predicate over document fields. Field paths
// may be dotted to reach nested objects ("user1.userId").
type Filter struct {
	op     filterOp
	field  string
	value  any
	values []any
	subs   []Filter
}

// All matches every document in a collection.
var All = Filter{op: opAll}

func Eq(field string, value any) Filter {
	return Filter{op: opEq, field: field, value: value}
}

func ArrayContains(field string, value any) Filter {
	return Filter{op: opArrayContains, field: field, value: value}
}

func In(field string, values ...any) Filter {
	return Filter{op: opIn, field: field, values: values}
}

// Gt matches documents whose numeric field is strictly greater than value.
func Gt(field string, value float64) Filter {
	return Filter{op: opGt, field: field, value: value}
}

func And(filters ...Filter) Filter {
	return Filter{op: opAnd, subs: filters}
}

func Or(filters ...Filter) Filter {
	return Filter{op: opOr, subs: filters}
}

// Match evaluates the filter against a decoded document.
func (f Filter) Match(doc Document) bool {
	switch f.op {
	case opAll:
		return true
	case opEq:
		return valueEq(fieldAt(doc, f.field), f.value)
	case opArrayContains:
		arr, ok := fieldAt(doc, f.field).([]any)
		if !ok {
			return false
		}
		for _, item := range arr {
			if valueEq(item, f.value) {
				return true
			}
		}
		return false
	case opIn:
		got := fieldAt(doc, f.field)
		for _, want := range f.values {
			if valueEq(got, want) {
				return true
			}
		}
		return false
	case opGt:
		got, ok := asFloat(fieldAt(doc, f.field))
		if !ok {
			return false
		}
		want, _ := asFloat(f.value)
		return got > want
	case opAnd:
		for _, sub := range f.subs {
			if !sub.Match(doc) {
				return false
			}
		}
		return true
	case opOr:
		for _, sub := range f.subs {
			if sub.Match(doc) {
				return true
			}
		}
		return false
	}
	return false
}

func fieldAt(doc Document, path string) any {
	parts := strings.Split(path, ".")
	var cur any = map[string]any(doc)
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// valueEq compares field values loosely: documents that round-trip through
// JSON hold numbers as float64, while callers pass ints and int64s.
func valueEq(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func fieldPath(field string) []string {
	return strings.Split(field, ".")
}

func (f Filter) String() string {
	switch f.op {
	case opAll:
		return "all"
	case opEq:
		return f.field + "=" + stringify(f.value)
	case opArrayContains:
		return f.field + " contains " + stringify(f.value)
	case opIn:
		parts := make([]string, len(f.values))
		for i, v := range f.values {
			parts[i] = stringify(v)
		}
		return f.field + " in [" + strings.Join(parts, ",") + "]"
	case opGt:
		return f.field + ">" + stringify(f.value)
	case opAnd, opOr:
		parts := make([]string, len(f.subs))
		for i, sub := range f.subs {
			parts[i] = sub.String()
		}
		sep := " and "
		if f.op == opOr {
			sep = " or "
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	return "?"
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	}
	return "?"
}
