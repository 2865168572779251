package filter

import "strings"

/* Dotted-path resolution over decoded JSON values
 * A short recursive key walk, deliberately not a JSONPath engine:
 * "$.a.b" and "a.b" both step through nested objects, arrays are
 * never indexed
 */

// Resolve walks a dotted path through a decoded JSON document.
// The second return reports whether every segment resolved.
func Resolve(doc any, path string) (any, bool) {
	clean := strings.TrimPrefix(path, "$.")
	current := doc

	for _, segment := range strings.Split(clean, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
