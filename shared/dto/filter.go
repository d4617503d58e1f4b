package dto

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const (
	FilterOperatorEq    = "eq"
	FilterOperatorNotEq = "not_eq"
	FilterOperatorIn    = "in"
	FilterOperatorLike  = "like"
)

const (
	FilterGroupOperatorAnd = "AND"
	FilterGroupOperatorOr  = "OR"
)

// matchNothing keeps an empty IN list valid SQL while selecting no rows.
const matchNothing = "1 = 0"

// Filter is a single column predicate rendered with named parameters for sqlx.
type Filter struct {
	ArgName  string
	Field    string
	Value    any
	Operator string
	Table    string
}

// FilterGroup joins filters and nested groups with Operator, AND when unset.
type FilterGroup struct {
	Filters  []any
	Operator string
}

type binder struct {
	args map[string]any
}

func newBinder() *binder {
	return &binder{args: map[string]any{}}
}

// bind registers value under name, suffixing the name when it is already taken, and returns the placeholder.
func (b *binder) bind(name string, value any) string {
	key := name
	for i := 2; ; i++ {
		if _, taken := b.args[key]; !taken {
			break
		}

		key = name + "_" + strconv.Itoa(i)
	}

	b.args[key] = value

	return ":" + key
}

func (f *Filter) column() string {
	if f.Table == "" {
		return f.Field
	}

	return f.Table + "." + f.Field
}

func (f *Filter) argName() string {
	if f.ArgName != "" {
		return f.ArgName
	}

	return f.Field
}

func (f *Filter) render(b *binder) string {
	switch f.Operator {
	case FilterOperatorEq:
		return fmt.Sprintf("%s = %s", f.column(), b.bind(f.argName(), f.Value))
	case FilterOperatorNotEq:
		return fmt.Sprintf("%s != %s", f.column(), b.bind(f.argName(), f.Value))
	case FilterOperatorLike:
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", f.column(), b.bind(f.argName(), "%"+fmt.Sprint(f.Value)+"%"))
	case FilterOperatorIn:
		values := reflect.ValueOf(f.Value)
		if values.Kind() != reflect.Slice && values.Kind() != reflect.Array {
			return fmt.Sprintf("%s = %s", f.column(), b.bind(f.argName(), f.Value))
		}

		if values.Len() == 0 {
			return matchNothing
		}

		placeholders := make([]string, values.Len())
		for i := range values.Len() {
			placeholders[i] = b.bind(fmt.Sprintf("%s_%d", f.argName(), i), values.Index(i).Interface())
		}

		return fmt.Sprintf("%s IN (%s)", f.column(), strings.Join(placeholders, ", "))
	default:
		return ""
	}
}

func (f *FilterGroup) render(b *binder) string {
	operator := f.Operator
	if operator == "" {
		operator = FilterGroupOperatorAnd
	}

	clauses := make([]string, 0, len(f.Filters))

	for _, item := range f.Filters {
		var clause string

		switch filter := item.(type) {
		case Filter:
			clause = filter.render(b)
		case *Filter:
			clause = filter.render(b)
		case FilterGroup:
			clause = filter.render(b)
		case *FilterGroup:
			clause = filter.render(b)
		}

		if clause != "" {
			clauses = append(clauses, clause)
		}
	}

	if len(clauses) == 0 {
		return ""
	}

	return "(" + strings.Join(clauses, " "+operator+" ") + ")"
}

// GetWhereClause renders the predicate and its named arguments. Unknown operators render nothing.
func (f *Filter) GetWhereClause() (string, map[string]any) {
	b := newBinder()

	return f.render(b), b.args
}

// GetWhereClause renders the group without the WHERE keyword. An empty group renders "".
func (f *FilterGroup) GetWhereClause() (string, map[string]any) {
	b := newBinder()

	return f.render(b), b.args
}
