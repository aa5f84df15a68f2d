// Package template implements $name-style variable substitution over
// strings and JSON-shaped values. Unresolved references are left verbatim
// so a demo degrades gracefully when a variable is missing, rather than
// failing the step.
package template

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/showkit/showrunner/pkg/api"
)

var varPattern = regexp.MustCompile(`\$(\w+)`)

// Substitute replaces every $identifier token bound in vars with the
// string form of its value. Unbound tokens remain unchanged, including
// the dollar sign. Substitute never fails.
func Substitute(s string, vars api.Vars) string {
	return varPattern.ReplaceAllStringFunc(s, func(tok string) string {
		val, ok := vars.Lookup(tok[1:])
		if !ok {
			return tok
		}
		return stringify(val)
	})
}

// SubstituteValue returns a deep copy of v with every string leaf
// substituted. Maps and slices are recursed into; other leaves are copied
// unchanged. Map keys are not substituted.
func SubstituteValue(v any, vars api.Vars) any {
	switch val := v.(type) {
	case string:
		return Substitute(val, vars)
	case map[string]any:
		res := make(map[string]any, len(val))
		for k, elem := range val {
			res[k] = SubstituteValue(elem, vars)
		}
		return res
	case []any:
		res := make([]any, len(val))
		for i, elem := range val {
			res[i] = SubstituteValue(elem, vars)
		}
		return res
	default:
		return v
	}
}

// stringify renders a bound value for inclusion in a template. JSON
// numbers arrive as float64; integral ones must not pick up a decimal
// point or exponent when spliced into an endpoint
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
