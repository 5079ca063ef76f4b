package filter

import (
	"fmt"
	"sort"
	"strconv"
)

// Parse converts an operator map such as
//
//	{"Title": {"$eq": "A husband for Kutani"}, "review/score": {"$gte": 4.0}}
//
// into an Expression. Top-level keys are a conjunction and a bare value is
// shorthand for $eq. Clauses are ordered by field, then operator.
func Parse(raw map[string]any) (Expression, error) {
	if len(raw) == 0 {
		return Expression{}, nil
	}

	var clauses []Clause
	for _, field := range sortedKeys(raw) {
		ops, ok := raw[field].(map[string]any)
		if !ok {
			ops = map[string]any{string(Eq): raw[field]}
		}

		for _, name := range sortedKeys(ops) {
			c, err := parseClause(field, Operator(name), ops[name])
			if err != nil {
				return Expression{}, err
			}
			clauses = append(clauses, c)
		}
	}

	return And(clauses...)
}

func parseClause(field string, op Operator, raw any) (Clause, error) {
	if !op.IsValid() {
		return Clause{}, fmt.Errorf("unsupported operator %q on %q", op, field)
	}
	if !op.TakesList() {
		v, err := operand(field, raw)
		if err != nil {
			return Clause{}, err
		}
		return NewClause(field, op, v)
	}

	list, ok := raw.([]any)
	if !ok {
		return Clause{}, fmt.Errorf("%s on %q expects a list", op, field)
	}
	values := make([]Value, 0, len(list))
	for _, item := range list {
		v, err := operand(field, item)
		if err != nil {
			return Clause{}, err
		}
		values = append(values, v)
	}
	return NewClause(field, op, values...)
}

func operand(field string, raw any) (Value, error) {
	switch n := raw.(type) {
	case float64:
		return Number(n), nil
	case float32:
		return Number(float64(n)), nil
	case int:
		return Number(float64(n)), nil
	case int64:
		return Number(float64(n)), nil
	case int32:
		return Number(float64(n)), nil
	case uint64:
		return Number(float64(n)), nil
	case string:
		return Text(n), nil
	case bool:
		return Text(strconv.FormatBool(n)), nil
	default:
		return Value{}, fmt.Errorf("unsupported value %v (%T) for %q", raw, raw, field)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
