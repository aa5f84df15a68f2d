// Package extract resolves dotted/bracketed path expressions against
// JSON-shaped documents.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the value at path within doc, using dot-separated keys
// with optional integer bracket indices (e.g. "data.items[0].id"). The
// empty path returns the whole document. A missing key, an index into a
// non-array, an out-of-range index, or a non-container subject all report
// not-found. Extract never panics for a malformed path.
func Extract(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}

	res := gjson.GetBytes(data, toGJSONPath(path))
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// toGJSONPath rewrites bracket indices into gjson's dotted form
// ("a.b[1].c" becomes "a.b.1.c") and escapes gjson's wildcard characters
// so keys are always matched literally
func toGJSONPath(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			b.WriteByte('.')
		case ']':
			// consumed; a following ".key" supplies its own dot
		case '*', '?', '#':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
