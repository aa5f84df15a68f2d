// Package condition parses and evaluates the restricted
// "path (==|!=) literal" expression language used for poll success and
// failure checks.
package condition

import (
	"log/slog"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/showkit/showrunner/internal/extract"
)

// Outcome is the tagged result of evaluating a condition. Unparsable
// behaves as NotMatched for control flow but remains separately
// observable for diagnostics.
type Outcome int

const (
	NotMatched Outcome = iota
	Matched
	Unparsable
)

// responsePrefix may optionally qualify the left side of an expression;
// both forms are equivalent
const responsePrefix = "response."

var exprPattern = regexp.MustCompile(`^\s*(\S+)\s*(==|!=)\s*(.+?)\s*$`)

// Evaluate checks expr against doc. The left side is resolved as an
// extraction path; the right side is parsed as a literal. Comparison is
// strict on both type and value, so the string "5" never equals the
// number 5. An expression that does not match the grammar is reported as
// Unparsable with a diagnostic warning; Evaluate never fails, because it
// runs inside a retry loop where an error would abort the whole poll
// rather than fail one iteration.
func Evaluate(expr string, doc any) Outcome {
	m := exprPattern.FindStringSubmatch(expr)
	if m == nil {
		slog.Warn("Unparsable condition expression",
			slog.String("expression", expr))
		return Unparsable
	}

	path := strings.TrimPrefix(m[1], responsePrefix)
	want := parseLiteral(m[3])

	got, found := extract.Extract(doc, path)
	equal := found && reflect.DeepEqual(got, want)

	if m[2] == "!=" {
		equal = !equal
	}
	if equal {
		return Matched
	}
	return NotMatched
}

// Match reports whether the outcome should drive the matched branch
func (o Outcome) Match() bool {
	return o == Matched
}

// parseLiteral interprets the right side of an expression. Precedence:
// the exact tokens true/false/null, then a fully quoted string, then a
// number, then the raw token itself. A bare empty or whitespace-only
// token never parses as numeric; only a quoted empty string yields ""
func parseLiteral(tok string) any {
	switch tok {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if len(tok) >= 2 {
		first, last := tok[0], tok[len(tok)-1]
		if first == last && (first == '\'' || first == '"') {
			return tok[1 : len(tok)-1]
		}
	}

	if strings.TrimSpace(tok) == "" {
		return tok
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return tok
}
