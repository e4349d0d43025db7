package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"signstore/internal/entity"
)

const defaultPageSize = 50

// pageArgs normalizes pagination inputs.
func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a contains pattern for ILIKE, escaping the LIKE
// metacharacters in the user's term.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// encodeMeta serializes entity metadata for a JSONB column. A nil map
// stores the empty object.
func encodeMeta(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

func decodeMeta(b []byte) (map[string]any, error) {
	if len(b) == 0 || string(b) == "{}" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

// encodeTokens serializes the token list for the translations JSONB
// column.
func encodeTokens(tokens []entity.Token) ([]byte, error) {
	b, err := json.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("encode tokens: %w", err)
	}
	return b, nil
}

func decodeTokens(b []byte) ([]entity.Token, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var tokens []entity.Token
	if err := json.Unmarshal(b, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	return tokens, nil
}

// collectStrings drains a single-column string result set.
func collectStrings(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
