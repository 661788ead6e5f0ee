package searchindex

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jkindrix/convo-core/internal/model"
)

const maxSnippetChars = 200

// equalityFields are the columns a "field:value" query override may
// target with an exact match rather than full-text search.
var equalityFields = map[string]string{
	"session_id":   "session_id",
	"project":      "project",
	"model":        "model",
	"tool_name":    "tool_name",
	"message_type": "message_type",
}

// aggregatableFields mirrors equalityFields for AggregateField, kept
// distinct so a future field could be searchable but not
// aggregatable (or vice versa) without touching both call sites.
var aggregatableFields = equalityFields

// SearchHit is one full-text match.
type SearchHit struct {
	SessionID   string
	Project     string
	UUID        string
	Timestamp   string
	MessageType string
	Model       string
	ToolName    string
	Snippet     string
	Score       float64
}

// parseQuery splits a raw query string into field:value equality
// filters and the remaining free-text terms, which are joined back
// into an FTS5 MATCH expression.
func parseQuery(raw string) (filters map[string]string, ftsQuery string) {
	filters = make(map[string]string)
	var terms []string

	for _, tok := range strings.Fields(raw) {
		if idx := strings.IndexByte(tok, ':'); idx > 0 {
			field := strings.ToLower(tok[:idx])
			value := tok[idx+1:]
			if _, ok := equalityFields[field]; ok && value != "" {
				filters[field] = value
				continue
			}
		}
		terms = append(terms, tok)
	}

	if len(terms) > 1 {
		ftsQuery = `"` + strings.Join(terms, " ") + `"`
	} else if len(terms) == 1 {
		ftsQuery = terms[0]
	}
	return filters, ftsQuery
}

// Search parses queryString for field-prefixed overrides (e.g.
// "model:opus") plus free text matched against content, thinking, and
// tool_input, and returns up to limit hits ordered by relevance, or
// newest first when the query has only field overrides.
func (idx *Index) Search(ctx context.Context, queryString string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(queryString) == "" {
		return nil, &model.InvalidArgumentError{Name: "queryString", Reason: "must not be empty"}
	}
	if limit <= 0 {
		limit = 50
	}

	filters, ftsQuery := parseQuery(queryString)

	var (
		whereClauses []string
		args         []any
	)
	joinFTS := ftsQuery != ""
	if joinFTS {
		whereClauses = append(whereClauses, "documents_fts MATCH ?")
		args = append(args, ftsQuery)
	}
	for field, value := range filters {
		whereClauses = append(whereClauses, fmt.Sprintf("d.%s = ?", field))
		args = append(args, value)
	}
	if len(whereClauses) == 0 {
		return nil, &model.InvalidArgumentError{Name: "queryString", Reason: "no usable search terms"}
	}

	selectRank := "0.0 AS rank"
	orderBy := "d.timestamp DESC"
	fromClause := "documents d"
	if joinFTS {
		selectRank = "rank"
		orderBy = "rank"
		fromClause = "documents_fts JOIN documents d ON documents_fts.rowid = d.id"
	}

	query := fmt.Sprintf(`
		SELECT d.session_id, d.project, d.uuid, d.timestamp, d.message_type,
			d.model, d.tool_name, d.content, %s
		FROM %s
		WHERE %s
		ORDER BY %s
		LIMIT ?`,
		selectRank, fromClause, strings.Join(whereClauses, " AND "), orderBy,
	)
	args = append(args, limit)

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &model.IndexError{Op: "search", Err: err}
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var content string
		if err := rows.Scan(&h.SessionID, &h.Project, &h.UUID, &h.Timestamp, &h.MessageType,
			&h.Model, &h.ToolName, &content, &h.Score); err != nil {
			return nil, &model.IndexError{Op: "search", Err: err}
		}
		h.Snippet = truncateSnippet(content, maxSnippetChars)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.IndexError{Op: "search", Err: err}
	}
	return hits, nil
}

// truncateSnippet clamps s to at most maxChars runes, never splitting
// a UTF-8 codepoint; when truncated, the last of those runes is an
// ellipsis.
func truncateSnippet(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	return string(runes[:maxChars-1]) + "…"
}

// FieldCount is one (value, count) pair for an aggregated field.
type FieldCount struct {
	Value string
	Count int
}

// AggregateField groups documents by field and returns counts
// descending, used for suggest/autocomplete. Only the known
// equality-searchable fields may be aggregated.
func (idx *Index) AggregateField(field string) ([]FieldCount, error) {
	column, ok := aggregatableFields[strings.ToLower(field)]
	if !ok {
		return nil, &model.InvalidArgumentError{Name: "field", Reason: fmt.Sprintf("unknown field %q", field)}
	}

	query := fmt.Sprintf(`
		SELECT %s AS value, COUNT(*) AS count
		FROM documents
		WHERE %s != ''
		GROUP BY %s
		ORDER BY count DESC`, column, column, column)

	rows, err := idx.db.Query(query)
	if err != nil {
		return nil, &model.IndexError{Op: "aggregateField", Err: err}
	}
	defer rows.Close()

	var out []FieldCount
	for rows.Next() {
		var fc FieldCount
		if err := rows.Scan(&fc.Value, &fc.Count); err != nil {
			return nil, &model.IndexError{Op: "aggregateField", Err: err}
		}
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.IndexError{Op: "aggregateField", Err: err}
	}
	return out, nil
}
