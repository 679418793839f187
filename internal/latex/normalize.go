// Package latex repairs and validates raw recognizer output.
//
// Recognizers emit LaTeX-like strings with predictable damage: array
// environments wrapping several formulas, alignment ampersands standing in
// for equals signs, doubled or unbalanced braces, broken subscripts. The
// normalizer rewrites those into clean single-formula strings; the
// validator decides whether a cleaned string is a plausible mathematical
// expression and scores it.
package latex

import (
	"regexp"
	"strings"
)

var (
	arrayHeaderRe   = regexp.MustCompile(`\\begin\{array\}(\{[^}]*\})?`)
	arrayFooterRe   = regexp.MustCompile(`\\end\{array\}`)
	equalsGroupRe   = regexp.MustCompile(`=\{\}=`)
	openRunRe       = regexp.MustCompile(`\{\{+`)
	closeRunRe      = regexp.MustCompile(`\}\}+`)
	equalsCloseRe   = regexp.MustCompile(`=\}=`)
	equalsOpenRe    = regexp.MustCompile(`=\{=`)
	equalsRunRe     = regexp.MustCompile(`=+`)
	bareSubscriptRe = regexp.MustCompile(`([a-zA-Z])_(\d+)\}`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	outerBraceRe    = regexp.MustCompile(`^\{|\}$`)
	equalsSpaceRe   = regexp.MustCompile(`\s*=\s*`)
)

// Clean splits a raw recognizer string into zero or more repaired formulas.
//
// A string containing an array environment is treated as one formula per
// array row; anything else is a single formula. Each formula is passed
// through repairStructure and empty results are dropped.
//
// Clean is idempotent: running it on its own output changes nothing.
func Clean(raw string) []string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return nil
	}

	var parts []string
	if strings.Contains(raw, `\begin{array}`) {
		content := arrayHeaderRe.ReplaceAllString(raw, "")
		content = arrayFooterRe.ReplaceAllString(content, "")
		parts = strings.Split(content, `\\`)
	} else {
		parts = []string{raw}
	}

	formulas := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := repairStructure(part); len(cleaned) >= 2 {
			formulas = append(formulas, cleaned)
		}
	}
	return formulas
}

// repairStructure applies the rewrite sequence to a single formula. Every
// rewrite is a fixpoint of itself, so the sequence as a whole is idempotent
// and never increases malformedness; it is a best-effort repair, not a
// parser.
func repairStructure(formula string) string {
	formula = strings.TrimSpace(formula)

	// Alignment artifacts from array rows.
	formula = strings.ReplaceAll(formula, "&{}", "=")
	formula = strings.ReplaceAll(formula, "&", "=")
	formula = equalsGroupRe.ReplaceAllString(formula, "=")

	// Brace damage.
	formula = openRunRe.ReplaceAllString(formula, "{")
	formula = closeRunRe.ReplaceAllString(formula, "}")
	formula = removeEmptyGroups(formula)
	formula = equalsCloseRe.ReplaceAllString(formula, "=")
	formula = equalsOpenRe.ReplaceAllString(formula, "=")
	formula = equalsRunRe.ReplaceAllString(formula, "=")

	// Malformed subscripts like x_12} become x_{12}.
	formula = bareSubscriptRe.ReplaceAllString(formula, "${1}_{${2}}")

	formula = whitespaceRe.ReplaceAllString(formula, " ")
	formula = strings.TrimSpace(formula)
	formula = outerBraceRe.ReplaceAllString(formula, "")
	formula = equalsSpaceRe.ReplaceAllString(formula, "=")

	return rebalanceBraces(formula)
}

// removeEmptyGroups deletes {} pairs unless they touch an equals sign;
// those come from alignment rewrites and are collapsed separately.
func removeEmptyGroups(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '{' && i+1 < len(s) && s[i+1] == '}' {
			prevEquals := i > 0 && s[i-1] == '='
			nextEquals := i+2 < len(s) && s[i+2] == '='
			if !prevEquals && !nextEquals {
				i++ // skip the pair
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// rebalanceBraces pads the short side: missing closers are appended,
// missing openers are prepended.
func rebalanceBraces(s string) string {
	open := strings.Count(s, "{")
	closed := strings.Count(s, "}")
	switch {
	case open > closed:
		return s + strings.Repeat("}", open-closed)
	case closed > open:
		return strings.Repeat("{", closed-open) + s
	default:
		return s
	}
}
