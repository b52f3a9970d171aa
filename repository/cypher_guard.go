package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnsafeQuery is returned when a query string is not a single read-only statement
var ErrUnsafeQuery = errors.New("unsafe query")

// MaxQueryRows caps the rows any synthesized query may return
const MaxQueryRows = 50

var (
	writeClausePattern = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|LOAD\s+CSV|PERIODIC|TERMINATE|GRANT|REVOKE|DENY|ALTER|RENAME)\b`)
	callPattern        = regexp.MustCompile(`(?i)\bCALL\s*(\{|[\w.]+)`)
	apocPattern        = regexp.MustCompile(`(?i)\bapoc\.`)
	returnPattern      = regexp.MustCompile(`(?i)\bRETURN\b`)
	limitPattern       = regexp.MustCompile(`(?i)\bLIMIT\s+(\$?\w+)`)
)

var allowedProcedures = map[string]bool{
	"db.index.fulltext.querynodes": true,
	"db.index.vector.querynodes":   true,
}

// blankLiterals replaces the body of every string literal, quoted identifier
// and comment with spaces, keeping byte offsets aligned with the original text.
// It scans left to right so a quote inside one construct never pairs with a
// quote in another. ok is false when a literal or comment is left open.
func blankLiterals(q string) (blanked string, ok bool) {
	out := []byte(q)
	for i := 0; i < len(out); {
		switch {
		case q[i] == '\'' || q[i] == '"':
			end, closed := scanQuoted(q, i, q[i])
			if !closed {
				return "", false
			}
			blankRange(out, i+1, end)
			i = end + 1
		case q[i] == '`':
			end, closed := scanBacktick(q, i)
			if !closed {
				return "", false
			}
			blankRange(out, i+1, end)
			i = end + 1
		case strings.HasPrefix(q[i:], "//"):
			end := strings.IndexByte(q[i:], '\n')
			if end < 0 {
				end = len(q)
			} else {
				end += i
			}
			blankRange(out, i, end)
			i = end
		case strings.HasPrefix(q[i:], "/*"):
			end := strings.Index(q[i+2:], "*/")
			if end < 0 {
				return "", false
			}
			end += i + 4
			blankRange(out, i, end)
			i = end
		default:
			i++
		}
	}
	return string(out), true
}

// scanQuoted returns the index of the quote closing the literal opened at start
func scanQuoted(q string, start int, quote byte) (int, bool) {
	for i := start + 1; i < len(q); i++ {
		switch q[i] {
		case '\\':
			i++
		case quote:
			return i, true
		}
	}
	return 0, false
}

// scanBacktick returns the index of the backtick closing the identifier opened
// at start. A doubled backtick is an escaped one.
func scanBacktick(q string, start int) (int, bool) {
	for i := start + 1; i < len(q); i++ {
		if q[i] != '`' {
			continue
		}
		if i+1 < len(q) && q[i+1] == '`' {
			i++
			continue
		}
		return i, true
	}
	return 0, false
}

func blankRange(b []byte, from, to int) {
	for i := from; i < to; i++ {
		b[i] = ' '
	}
}

// ValidateReadOnlyQuery rejects anything that is not one read-only statement.
// Words inside string literals and comments are ignored.
func ValidateReadOnlyQuery(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("%w: empty query", ErrUnsafeQuery)
	}

	code, ok := blankLiterals(q)
	if !ok {
		return fmt.Errorf("%w: unterminated literal or comment", ErrUnsafeQuery)
	}

	if strings.Contains(strings.TrimRight(strings.TrimSpace(code), ";"), ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}
	if m := writeClausePattern.FindString(code); m != "" {
		return fmt.Errorf("%w: write clause %s", ErrUnsafeQuery, strings.ToUpper(m))
	}
	if apocPattern.MatchString(code) {
		return fmt.Errorf("%w: procedure library not allowed", ErrUnsafeQuery)
	}
	for _, m := range callPattern.FindAllStringSubmatch(code, -1) {
		if !allowedProcedures[strings.ToLower(m[1])] {
			return fmt.Errorf("%w: CALL %s not allowed", ErrUnsafeQuery, m[1])
		}
	}
	if !returnPattern.MatchString(code) {
		return fmt.Errorf("%w: no RETURN clause", ErrUnsafeQuery)
	}
	return nil
}

// EnforceRowCap makes sure the final LIMIT of query is at most maxRows,
// appending one when the query has none
func EnforceRowCap(query string, maxRows int) string {
	q := strings.TrimRight(strings.TrimSpace(query), "; \n\t")
	code, ok := blankLiterals(q)
	if !ok {
		// unparseable text gets a trailing cap; validation rejects it anyway
		return fmt.Sprintf("%s\nLIMIT %d", q, maxRows)
	}

	// only a LIMIT after the final RETURN bounds the result
	returnAt := 0
	if rets := returnPattern.FindAllStringIndex(code, -1); len(rets) > 0 {
		returnAt = rets[len(rets)-1][0]
	}

	locs := limitPattern.FindAllStringSubmatchIndex(code, -1)
	if len(locs) == 0 || locs[len(locs)-1][0] < returnAt {
		return fmt.Sprintf("%s\nLIMIT %d", q, maxRows)
	}

	last := locs[len(locs)-1]
	start, end := last[2], last[3]
	if n, err := strconv.Atoi(q[start:end]); err == nil && n <= maxRows {
		return q
	}
	return q[:start] + strconv.Itoa(maxRows) + q[end:]
}
