package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
)

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// The filter is applied as a KNN pre-filter.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	args := []string{q.IndexName, buildKNNQuery(q.Filters, q.K)}

	if len(q.ReturnFields) > 0 {
		fields := append([]string{scoreField}, q.ReturnFields...)
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}

	args = append(args,
		"SORTBY", scoreField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw, q.Distance)
}

// SearchCount returns the number of documents matching filters via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error) {
	query := buildFilter(filters)
	if query == "" {
		query = "*"
	}
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

const scoreField = "__vector_score"

func buildKNNQuery(filters filter.Expression, k int) string {
	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", k)
	if filterStr := buildFilter(filters); filterStr != "" {
		return fmt.Sprintf("(%s)=>%s", filterStr, knnPart)
	}
	return "*=>" + knnPart
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage, distance db.DistanceMetric) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields[scoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = similarity(d, distance)
			}
			delete(entry.Fields, scoreField)
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// similarity converts a KNN distance into a score where higher is closer.
func similarity(d float64, distance db.DistanceMetric) float64 {
	switch distance {
	case db.DistanceL2:
		return d
	case db.DistanceIP:
		return 1.0 - d
	default:
		return 1.0 - d // cosine distance in [0,2] -> similarity in [-1,1]
	}
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildFilter translates a filter expression into an FT.SEARCH query string.
// Clauses are space-separated, which the query syntax reads as AND.
func buildFilter(expr filter.Expression) string {
	parts := make([]string, 0, len(expr.Clauses()))
	for _, c := range expr.Clauses() {
		parts = append(parts, buildClause(c))
	}
	return strings.Join(parts, " ")
}

func buildClause(c filter.Clause) string {
	field, values := c.Field(), c.Values()
	switch c.Operator() {
	case filter.Gt:
		return numericRange(field, "("+values[0].String(), "+inf")
	case filter.Gte:
		return numericRange(field, values[0].String(), "+inf")
	case filter.Lt:
		return numericRange(field, "-inf", "("+values[0].String())
	case filter.Lte:
		return numericRange(field, "-inf", values[0].String())
	case filter.Ne, filter.Nin:
		return "-" + anyOf(field, values)
	default:
		return anyOf(field, values)
	}
}

// anyOf matches field against any of values. All-text lists collapse into one tag set.
func anyOf(field string, values []filter.Value) string {
	if len(values) == 1 {
		return term(field, values[0])
	}

	tags := make([]string, 0, len(values))
	for _, v := range values {
		if v.IsNumber() {
			tags = nil
			break
		}
		tags = append(tags, tagEscaper.Replace(v.String()))
	}
	if tags != nil {
		return fmt.Sprintf("@%s:{%s}", field, strings.Join(tags, " | "))
	}

	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = term(field, v)
	}
	return "(" + strings.Join(terms, " | ") + ")"
}

func term(field string, v filter.Value) string {
	if v.IsNumber() {
		return numericRange(field, v.String(), v.String())
	}
	return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(v.String()))
}

func numericRange(field, lo, hi string) string {
	return fmt.Sprintf("@%s:[%s %s]", field, lo, hi)
}

// --- Query helpers ---

// tagEscaper is single pass, so the backslash entry cannot double-escape
// the output of the others.
var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	"[", "\\[",
	"]", "\\]",
	"|", "\\|",
	" ", "\\ ",
)
