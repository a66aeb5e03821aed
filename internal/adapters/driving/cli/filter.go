package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

// parseMetadata turns repeated --meta key=value flags into a metadata map,
// inferring bool and float64 literals and falling back to string.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --meta %q: expected key=value", pair)
		}
		metadata[key] = parseScalar(value)
	}
	return metadata, nil
}

var filterOps = []domain.FilterOp{
	domain.OpEq, domain.OpNeq, domain.OpLte, domain.OpGte, domain.OpLt, domain.OpGt,
}

// parseFilter parses repeated --filter "key op literal" flags (and
// "key in a,b,c") into a conjunctive domain.Filter. Operators are tried
// longest-first so "<=" is not misread as "<" followed by a stray "=".
func parseFilter(exprs []string) (domain.Filter, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	filter := make(domain.Filter, 0, len(exprs))
	for _, expr := range exprs {
		pred, err := parsePredicate(expr)
		if err != nil {
			return nil, err
		}
		filter = append(filter, pred)
	}
	return filter, nil
}

func parsePredicate(expr string) (domain.Predicate, error) {
	fields := strings.Fields(expr)
	if len(fields) == 3 && fields[1] == "in" {
		values := strings.Split(fields[2], ",")
		literals := make([]any, len(values))
		for i, v := range values {
			literals[i] = parseScalar(v)
		}
		return domain.Predicate{Key: fields[0], Op: domain.OpIn, Value: literals}, nil
	}

	for _, op := range filterOps {
		marker := " " + string(op) + " "
		if idx := strings.Index(expr, marker); idx >= 0 {
			key := strings.TrimSpace(expr[:idx])
			literal := strings.TrimSpace(expr[idx+len(marker):])
			return domain.Predicate{Key: key, Op: op, Value: parseScalar(literal)}, nil
		}
	}
	return domain.Predicate{}, fmt.Errorf("invalid --filter %q: expected \"key op literal\"", expr)
}

func parseScalar(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
