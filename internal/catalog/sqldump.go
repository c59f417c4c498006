package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"apriori-backend/internal/models"
)

// DumpError reports a structured dump that yielded no usable rows.
type DumpError struct {
	Reason string
}

func (e *DumpError) Error() string {
	return fmt.Sprintf("invalid catalog dump: %s", e.Reason)
}

var insertPattern = regexp.MustCompile("(?is)INSERT\\s+INTO\\s+[`\"\\w.]+\\s*(\\(([^)]*)\\))?\\s*VALUES\\s*")

// dumpShape is the fixed tuple layout when an INSERT has no column list.
var dumpShape = []string{"id", "name", "description", "price", "image"}

// ParseSQLDump reads literal row tuples from INSERT statements. Without a
// column list each tuple must be (id, name, description, price, image).
func ParseSQLDump(data []byte) ([]models.CatalogEntry, error) {
	text := string(data)
	locs := insertPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, &DumpError{Reason: "no INSERT ... VALUES statement found"}
	}

	var entries []models.CatalogEntry
	skipped := 0
	for _, loc := range locs {
		columns := dumpShape
		if loc[4] >= 0 {
			columns = splitColumnList(text[loc[4]:loc[5]])
		}
		tuples := scanTuples(text[loc[1]:])
		var rows [][]string
		for _, t := range tuples {
			if len(t) != len(columns) {
				skipped++
				continue
			}
			rows = append(rows, t)
		}
		entries = append(entries, FromTable(columns, rows)...)
	}
	if len(entries) == 0 {
		return nil, &DumpError{Reason: fmt.Sprintf("no tuple matched the expected shape (%d skipped)", skipped)}
	}
	return entries, nil
}

func splitColumnList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(strings.TrimSpace(p), "`\"[]"))
	}
	return out
}

// scanTuples reads "(a, 'b', ...), (...);" until the statement ends.
func scanTuples(s string) [][]string {
	var tuples [][]string
	i := 0
	for {
		i = skipSpace(s, i)
		if i >= len(s) || s[i] != '(' {
			return tuples
		}
		fields, next, ok := scanTuple(s, i+1)
		if !ok {
			return tuples
		}
		tuples = append(tuples, fields)
		i = skipSpace(s, next)
		if i >= len(s) || s[i] != ',' {
			return tuples
		}
		i++
	}
}

func scanTuple(s string, i int) ([]string, int, bool) {
	var fields []string
	for {
		i = skipSpace(s, i)
		if i >= len(s) {
			return nil, i, false
		}
		var val string
		if s[i] == '\'' || s[i] == '"' {
			quote := s[i]
			var b strings.Builder
			i++
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					b.WriteByte(unescape(s[i+1]))
					i += 2
					continue
				}
				if c == quote {
					if i+1 < len(s) && s[i+1] == quote {
						b.WriteByte(quote)
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				b.WriteByte(c)
				i++
			}
			if !closed {
				return nil, i, false
			}
			val = b.String()
		} else {
			start := i
			for i < len(s) && s[i] != ',' && s[i] != ')' {
				i++
			}
			val = strings.TrimSpace(s[start:i])
			if strings.EqualFold(val, "NULL") {
				val = ""
			}
		}
		fields = append(fields, val)

		i = skipSpace(s, i)
		if i >= len(s) {
			return nil, i, false
		}
		switch s[i] {
		case ',':
			i++
		case ')':
			return fields, i + 1, true
		default:
			return nil, i, false
		}
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return c
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\r' || s[i] == '\t') {
		i++
	}
	return i
}
