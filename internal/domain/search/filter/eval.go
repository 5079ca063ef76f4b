package filter

import "strconv"

// Evaluate reports whether a record whose field values are returned by lookup
// satisfies every clause. A missing field fails positive clauses and passes negated ones.
func (e Expression) Evaluate(lookup func(field string) (string, bool)) bool {
	for _, c := range e.clauses {
		if !c.holds(lookup) {
			return false
		}
	}
	return true
}

func (c Clause) holds(lookup func(string) (string, bool)) bool {
	raw, ok := lookup(c.field)
	if !ok {
		return c.op.Negated()
	}

	if c.op.IsBound() {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		bound := c.values[0].num
		switch c.op {
		case Gt:
			return f > bound
		case Gte:
			return f >= bound
		case Lt:
			return f < bound
		default:
			return f <= bound
		}
	}

	hit := false
	for _, v := range c.values {
		if v.matches(raw) {
			hit = true
			break
		}
	}
	return hit != c.op.Negated()
}

func (v Value) matches(raw string) bool {
	if !v.numeric {
		return raw == v.text
	}
	f, err := strconv.ParseFloat(raw, 64)
	return err == nil && f == v.num
}
