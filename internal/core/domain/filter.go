package domain

// FilterOp is a comparison operator usable in a metadata predicate.
type FilterOp string

const (
	OpEq  FilterOp = "=="
	OpNeq FilterOp = "!="
	OpLt  FilterOp = "<"
	OpLte FilterOp = "<="
	OpGt  FilterOp = ">"
	OpGte FilterOp = ">="
	OpIn  FilterOp = "in"
)

// Predicate compares a single chunk metadata key against a literal (or, for
// OpIn, a list of literals).
type Predicate struct {
	Key   string
	Op    FilterOp
	Value any
}

// Filter is a conjunction of predicates over chunk metadata. A chunk passes
// the filter iff every predicate evaluates true against its metadata.
// Predicates referencing a missing key evaluate false, per the design: a
// nil/empty Filter matches everything.
type Filter []Predicate

// Match reports whether metadata satisfies every predicate in f.
func (f Filter) Match(metadata map[string]any) bool {
	for _, p := range f {
		if !p.match(metadata) {
			return false
		}
	}
	return true
}

func (p Predicate) match(metadata map[string]any) bool {
	actual, ok := metadata[p.Key]
	if !ok {
		return false
	}

	if p.Op == OpIn {
		values, ok := p.Value.([]any)
		if !ok {
			return false
		}
		for _, v := range values {
			if scalarEqual(actual, v) {
				return true
			}
		}
		return false
	}

	if p.Op == OpEq {
		return scalarEqual(actual, p.Value)
	}
	if p.Op == OpNeq {
		return !scalarEqual(actual, p.Value)
	}

	// Ordered comparisons only make sense between two float64s or two
	// strings; any other pairing (including a type mismatch) evaluates
	// false rather than erroring, matching the original service's
	// permissive equality-style filtering generalised to ordered operators.
	af, aok := toFloat(actual)
	bf, bok := toFloat(p.Value)
	if aok && bok {
		return compareOrdered(af, bf, p.Op)
	}

	as, aok := actual.(string)
	bs, bok := p.Value.(string)
	if aok && bok {
		return compareOrderedStrings(as, bs, p.Op)
	}

	return false
}

func compareOrdered(a, b float64, op FilterOp) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	default:
		return false
	}
}

func compareOrderedStrings(a, b string, op FilterOp) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	default:
		return false
	}
}

func scalarEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
