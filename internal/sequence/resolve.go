package sequence

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderRe matches {ref} and {ref.field} placeholders.
var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// ResolveString replaces every {name} and {name.field} placeholder in s
// with values from the context. Unresolved references are left verbatim,
// braces included, so later steps or a human can see what did not bind.
func ResolveString(s string, ctx Context) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		ref := match[1 : len(match)-1]
		name, field, dotted := strings.Cut(ref, ".")

		result, ok := ctx[name]
		if !ok {
			return match
		}
		if !dotted {
			return stringify(map[string]any(result))
		}

		value, ok := result[field]
		if !ok {
			return match
		}
		return stringify(value)
	})
}

// Resolve applies ResolveString recursively through nested mappings and
// sequences. Map keys are never rewritten; non-string leaves pass
// through unchanged. Resolve never fails.
func Resolve(value any, ctx Context) any {
	switch v := value.(type) {
	case string:
		return ResolveString(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = Resolve(elem, ctx)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Resolve(elem, ctx)
		}
		return out
	default:
		return value
	}
}

// stringify renders a context value for substitution into a template.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case nil:
		return "null"
	default:
		if data, err := json.Marshal(t); err == nil {
			return string(data)
		}
		return fmt.Sprint(t)
	}
}
