package sqlite

import (
	"context"
	"fmt"
	"strings"

	"worldgraph/internal/store"
)

// Search runs a full-text query over text-valued triples, optionally limited
// to one relation such as "Board.title".
func (c *Client) Search(ctx context.Context, query, relation string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	ftsQuery := convertWebsearchToFTS5(query)

	sqlQuery := `
	SELECT e.id, t.relation, t.object_value,
		   bm25(triples_fts) AS score,
		   snippet(triples_fts, 1, '**', '**', '...', 20) AS snippet
	FROM triples_fts
	JOIN triples t ON triples_fts.rowid = t.seq
	JOIN entities e ON t.subject = e.ordinal
	WHERE triples_fts MATCH ?
	  AND (? = '' OR t.relation = ?)
	ORDER BY score ASC, t.seq ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, relation, relation)
	if err != nil {
		return nil, fmt.Errorf("searching triples: %w", err)
	}
	defer rows.Close()

	var results []store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.Subject, &r.Relation, &r.Text, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	if results == nil {
		results = []store.SearchResult{}
	}

	return results, nil
}

// convertWebsearchToFTS5 turns a web-search style query (implicit AND,
// quoted phrases, -term negation) into FTS5 syntax.
func convertWebsearchToFTS5(query string) string {
	var result strings.Builder
	var inQuote bool
	var current strings.Builder

	flushToken := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		upper := strings.ToUpper(token)
		switch upper {
		case "AND", "OR", "NOT":
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString(upper)
			return
		}

		// FTS5 NOT is binary, so a negated term replaces the implicit AND.
		if strings.HasPrefix(token, "-") && len(token) > 1 {
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString("NOT ")
			result.WriteString(token[1:])
			return
		}

		if result.Len() > 0 {
			last := lastWord(result.String())
			if last != "AND" && last != "OR" && last != "NOT" && last != "" {
				result.WriteString(" AND ")
			} else {
				result.WriteString(" ")
			}
		}
		result.WriteString(token)
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				token := current.String()
				current.Reset()
				if token != "" {
					if result.Len() > 0 {
						result.WriteString(" AND ")
					}
					result.WriteString(`"`)
					result.WriteString(token)
					result.WriteString(`"`)
				}
			} else {
				flushToken()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushToken()
		default:
			current.WriteByte(ch)
		}
	}

	flushToken()

	return result.String()
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
