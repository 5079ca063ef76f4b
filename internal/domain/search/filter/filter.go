// Package filter holds metadata filters: a conjunction of per-field operator clauses.
package filter

import (
	"fmt"
	"strconv"
)

// Operator is a comparison applied to one metadata field.
type Operator string

// Supported operators, named as in the operator-map syntax.
const (
	Eq  Operator = "$eq"
	Ne  Operator = "$ne"
	Gt  Operator = "$gt"
	Gte Operator = "$gte"
	Lt  Operator = "$lt"
	Lte Operator = "$lte"
	In  Operator = "$in"
	Nin Operator = "$nin"
)

// IsValid reports whether o is a supported operator.
func (o Operator) IsValid() bool {
	switch o {
	case Eq, Ne, Gt, Gte, Lt, Lte, In, Nin:
		return true
	}
	return false
}

// Negated reports whether the clause excludes the values it names.
func (o Operator) Negated() bool { return o == Ne || o == Nin }

// TakesList reports whether the operator compares against a set of values.
func (o Operator) TakesList() bool { return o == In || o == Nin }

// IsBound reports whether the operator is a one-sided numeric bound.
func (o Operator) IsBound() bool { return o == Gt || o == Gte || o == Lt || o == Lte }

// MaxClauses caps the number of clauses in one expression.
const MaxClauses = 32

// Value is a filter operand. Numbers compare as numeric ranges, text as exact tags.
type Value struct {
	text    string
	num     float64
	numeric bool
}

// Text creates a tag operand.
func Text(s string) Value { return Value{text: s} }

// Number creates a numeric operand.
func Number(f float64) Value { return Value{num: f, numeric: true} }

// IsNumber reports whether v is numeric.
func (v Value) IsNumber() bool { return v.numeric }

// Float returns the numeric operand.
func (v Value) Float() float64 { return v.num }

// String returns the operand as it is written in a query.
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.text
}

// Clause compares one field against one or more values.
type Clause struct {
	field  string
	op     Operator
	values []Value
}

// NewClause validates and creates a clause.
// List operators take one or more values, the others exactly one; bounds need a number.
func NewClause(field string, op Operator, values ...Value) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if !op.IsValid() {
		return Clause{}, fmt.Errorf("unsupported operator %q on %q", op, field)
	}
	switch {
	case op.TakesList() && len(values) == 0:
		return Clause{}, fmt.Errorf("%s on %q expects a non-empty list", op, field)
	case !op.TakesList() && len(values) != 1:
		return Clause{}, fmt.Errorf("%s on %q expects a single value", op, field)
	}
	for _, v := range values {
		if op.IsBound() && !v.numeric {
			return Clause{}, fmt.Errorf("%s on %q expects a number", op, field)
		}
		if !v.numeric && v.text == "" {
			return Clause{}, fmt.Errorf("empty value for %q", field)
		}
	}
	return Clause{field: field, op: op, values: values}, nil
}

// Equals is shorthand for a tag $eq clause.
func Equals(field, value string) (Clause, error) {
	return NewClause(field, Eq, Text(value))
}

// Field returns the compared field.
func (c Clause) Field() string { return c.field }

// Operator returns the comparison.
func (c Clause) Operator() Operator { return c.op }

// Values returns the operands.
func (c Clause) Values() []Value { return c.values }

// WithField returns a copy of the clause addressing another field.
func (c Clause) WithField(field string) Clause {
	c.field = field
	return c
}

// Expression is a conjunction of clauses. The zero value matches everything.
type Expression struct {
	clauses []Clause
}

// And creates an expression that holds when every clause holds.
func And(clauses ...Clause) (Expression, error) {
	if len(clauses) > MaxClauses {
		return Expression{}, fmt.Errorf("too many filter clauses (max %d)", MaxClauses)
	}
	return Expression{clauses: clauses}, nil
}

// Clauses returns the clauses in order.
func (e Expression) Clauses() []Clause { return e.clauses }

// IsEmpty reports whether the expression has no clauses.
func (e Expression) IsEmpty() bool { return len(e.clauses) == 0 }

// RenameFields returns a copy of the expression with every field passed through fn.
func (e Expression) RenameFields(fn func(string) string) Expression {
	if e.clauses == nil {
		return Expression{}
	}
	out := make([]Clause, len(e.clauses))
	for i, c := range e.clauses {
		out[i] = c.WithField(fn(c.field))
	}
	return Expression{clauses: out}
}
