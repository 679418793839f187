package classify

// patternRule pairs a label with the regular expressions that select it.
// Rules are evaluated in slice order and the first match wins, so more
// specific categories must precede the ones they overlap with (probability
// shares its P(...) and \binom patterns with statistics, for example).
type patternRule struct {
	label    TopicLabel
	patterns []string
}

// topicRules is the ordered topic classification table. Patterns are
// compiled case-insensitively because recognizers are inconsistent about
// the casing of function names.
var topicRules = []patternRule{
	{TopicQuadratic, []string{
		`ax\^\{?2\}?\s*[+-]\s*bx\s*[+-]\s*c\s*=\s*0`,
		`x\^\{?2\}?`,
		`[+-]?\d*x\^\{?2\}?\s*[+-]\s*\d*x\s*[+-]\s*\d+\s*=\s*0`,
		`\\frac\{-b\s*\\pm\s*\\sqrt\{b\^\{?2\}?\s*-\s*4ac\}\}\{2a\}`,
		`[+-]?\d*[a-zA-Z]\^\{?2\}?`,
	}},
	{TopicBasicAlgebra, []string{
		`^\d+\s*[+\-*/]\s*\d+$`,
		`^\\frac\{\d+\}\{\d+\}$`,
		`[a-zA-Z]\s*[+\-*/]\s*[a-zA-Z]`,
	}},
	{TopicCalculus, []string{
		`\\int`,
		`\\frac\{d\}\{d[a-z]\}`,
		`\\lim_\{[^}]*\}`,
		`\\sum_\{[^}]*\}`,
		`\\prod_\{[^}]*\}`,
	}},
	{TopicTrigonometry, []string{
		`\\sin|\\cos|\\tan|\\csc|\\sec|\\cot`,
		`\\theta|\\alpha|\\beta`,
		`\\pi`,
	}},
	{TopicGeometry, []string{
		`\\triangle|\\square|\\circle`,
		`\\angle`,
		`\\parallel|\\perp`,
		`area|perimeter|volume`,
	}},
	{TopicLogarithm, []string{
		`\\log|\\ln`,
		`\\log_[^{]*\{[^}]*\}`,
	}},
	{TopicStatistics, []string{
		`\\bar\{[^}]*\}`,
		`\\sigma`,
		`P\([^)]*\)`,
		`\\binom`,
	}},
	{TopicProbability, []string{
		`P\([^)]*\)`,
		`\\binom`,
		`\\frac\{P[^}]*\}\{P[^}]*\}`,
	}},
}

// difficultyRule pairs a difficulty with its selecting patterns.
type difficultyRule struct {
	label    DifficultyLabel
	patterns []string
}

// difficultyRules is the ordered difficulty table; first match wins.
var difficultyRules = []difficultyRule{
	{DifficultyEasy, []string{
		`^\d+\s*[+\-*/]\s*\d+$`,
		`^\\frac\{\d+\}\{\d+\}$`,
		`^\\sqrt\{\d+\}$`,
		`^[a-zA-Z]\s*[+-]\s*\d+$`,
	}},
	{DifficultyModerate, []string{
		`x\^\{?2\}?\s*[+-]\s*\d*x\s*[+-]\s*\d+\s*=\s*0`,
		`\\frac\{[^}]{1,20}\}\{[^}]{1,20}\}`,
		`\\sin|\\cos|\\tan`,
		`\\log`,
	}},
	{DifficultyHard, []string{
		`\\int.*d[a-z]`,
		`\\lim_\{[^}]*\}`,
		`\\sum_\{[^}]*\}`,
		`\\frac\{d\}\{d[a-z]\}`,
		`\\sqrt\{[^}]{20,}\}`,
		`\\frac\{[^}]{20,}\}\{[^}]{20,}\}`,
	}},
}

// complexityFactor weights a syntactic feature in the difficulty fallback
// score. Integrals and sums dominate because they almost always indicate
// multi-step work.
type complexityFactor struct {
	pattern string
	weight  int
}

var complexityFactors = []complexityFactor{
	{`x\^\{?2\}?`, 5},
	{`\\sqrt`, 3},
	{`\\frac`, 5},
	{`\\int`, 10},
	{`\\sum`, 8},
	{`\\prod`, 8},
	{`\\lim`, 7},
	{`\\log`, 4},
	{`\\sin|\\cos|\\tan`, 4},
	{`\{`, 2},
	{`_`, 1},
	{`\^`, 1},
}
