package sequence

import (
	"strconv"
	"strings"
)

// comparators in scan priority order. Two-character operators come
// before their one-character prefixes so ">=" is never misread as ">";
// the first operator found in this order wins, and the text is split on
// its first occurrence only.
var comparators = []string{">=", "<=", "!=", "==", ">", "<"}

// Evaluate resolves template references in the expression and evaluates
// it as a single binary comparison. Without an operator the resolved
// text is treated as a truthiness probe.
func Evaluate(expression string, ctx Context) bool {
	resolved := ResolveString(expression, ctx)

	for _, op := range comparators {
		left, right, found := strings.Cut(resolved, op)
		if !found {
			continue
		}
		return compare(op, strings.TrimSpace(left), strings.TrimSpace(right))
	}

	return truthy(resolved)
}

func compare(op, left, right string) bool {
	lf, lerr := strconv.ParseFloat(left, 64)
	rf, rerr := strconv.ParseFloat(right, 64)

	if lerr == nil && rerr == nil {
		switch op {
		case ">=":
			return lf >= rf
		case "<=":
			return lf <= rf
		case "!=":
			return lf != rf
		case "==":
			return lf == rf
		case ">":
			return lf > rf
		case "<":
			return lf < rf
		}
	}

	// Non-numeric operands: equality falls back to exact string
	// comparison, ordering has no defined answer and is false.
	switch op {
	case "==":
		return left == right
	case "!=":
		return left != right
	}
	return false
}

// truthy is false exactly for the fixed falsy spellings and true for
// everything else.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "none", "null", "":
		return false
	}
	return true
}
