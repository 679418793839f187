package latex

import (
	"image"
	"math"
	"regexp"
	"strings"
)

const (
	// minLength rejects fragments too short to be an expression.
	minLength = 3
	// maxLength is a generous sanity bound; legitimately long multi-term
	// expressions must survive it.
	maxLength = 500
	// contrastNorm is the empirical denominator that maps a region's pixel
	// standard deviation onto [0,1].
	contrastNorm = 50.0
)

// knownCommands is the allow-list of backslash commands the validator
// recognizes outright. Commands outside the list are still tolerated when
// they at least look like commands (backslash plus two or more letters),
// since recognizers regularly emit valid-but-uncommon macros.
var knownCommands = map[string]bool{
	`\frac`: true, `\sqrt`: true, `\sum`: true, `\int`: true,
	`\prod`: true, `\lim`: true, `\log`: true, `\ln`: true,
	`\sin`: true, `\cos`: true, `\tan`: true, `\csc`: true,
	`\sec`: true, `\cot`: true, `\alpha`: true, `\beta`: true,
	`\pi`: true, `\theta`: true, `\sigma`: true, `\infty`: true,
	`\partial`: true, `\nabla`: true, `\Delta`: true, `\pm`: true,
	`\cdot`: true, `\times`: true, `\div`: true, `\leq`: true,
	`\geq`: true, `\neq`: true, `\approx`: true, `\rightarrow`: true,
	`\leftarrow`: true, `\bar`: true, `\vec`: true, `\binom`: true,
	`\cup`: true, `\cap`: true,
}

// mathIndicators are the content cues the plausibility check looks for.
var mathIndicators = []string{
	"=", "_", "^", "+", "-", "*", "/",
	`\frac`, `\sqrt`, `\int`, `\sum`, `\prod`, `\lim`,
	`\sin`, `\cos`, `\tan`, `\log`, `\ln`,
	`\alpha`, `\beta`, `\pi`, `\theta`, `\sigma`,
}

// confidenceSymbols is the fixed checklist the confidence score counts
// against; matched symbols scale the score up to its cap.
var confidenceSymbols = []string{
	`\frac`, `\sqrt`, "^", "_", "+", "-", "=", `\int`, `\sum`,
}

var (
	commandRe     = regexp.MustCompile(`\\[a-zA-Z]+`)
	commandShape  = regexp.MustCompile(`^\\[a-zA-Z]{2,}$`)
	scriptGroupRe = regexp.MustCompile(`[_^]\{([^}]*)\}`)
	digitRe       = regexp.MustCompile(`\d`)
)

// Valid reports whether a cleaned string is a structurally sound, plausible
// mathematical expression. It applies the structural check first and the
// content plausibility check second; both must pass.
func Valid(latex string) bool {
	latex = strings.TrimSpace(latex)
	if len(latex) < minLength || len(latex) > maxLength {
		return false
	}
	return structurallySound(latex) && plausible(latex)
}

// structurallySound checks brace nesting, command shape, and script groups.
func structurallySound(latex string) bool {
	depth := 0
	for _, r := range latex {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	if depth != 0 {
		return false
	}

	for _, cmd := range commandRe.FindAllString(latex, -1) {
		if !knownCommands[cmd] && !commandShape.MatchString(cmd) {
			return false
		}
	}

	for _, group := range scriptGroupRe.FindAllStringSubmatch(latex, -1) {
		if strings.TrimSpace(group[1]) == "" {
			return false
		}
	}

	return true
}

// plausible requires at least one mathematical content cue.
func plausible(latex string) bool {
	if digitRe.MatchString(latex) {
		return true
	}
	for _, ind := range mathIndicators {
		if strings.Contains(latex, ind) {
			return true
		}
	}
	return false
}

// Confidence scores a candidate in [0,1] for ranking and filtering.
//
// The score starts at 1.0 and is scaled down for very short or very long
// strings, scaled by the fraction of the symbol checklist present, boosted
// when braces balance exactly, and, when the originating region image is
// available, scaled by its local contrast (pixel standard deviation over
// an empirical norm). Pass a nil region to skip the contrast factor.
func Confidence(latex string, region image.Image) float64 {
	confidence := 1.0

	switch {
	case len(latex) < 5:
		confidence *= 0.5
	case len(latex) > 100:
		confidence *= 0.8
	}

	matched := 0
	for _, sym := range confidenceSymbols {
		if strings.Contains(latex, sym) {
			matched++
		}
	}
	confidence *= math.Min(1.0, float64(matched)*0.2)

	if region != nil {
		confidence *= math.Min(1.0, contrastStdDev(region)/contrastNorm)
	}

	if strings.Count(latex, "{") == strings.Count(latex, "}") {
		confidence *= 1.2
	}

	return math.Max(0.0, math.Min(1.0, confidence))
}

// contrastStdDev computes the standard deviation of grayscale intensities
// over an image, a cheap proxy for how much stroke contrast the recognizer
// had to work with.
func contrastStdDev(img image.Image) float64 {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0
	}

	// Two passes: the textbook sumSq/n - mean*mean shortcut leaves a
	// rounding residue on flat images, and callers compare against zero.
	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += luminance(img.At(x, y).RGBA())
		}
	}
	mean := sum / n

	var variance float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := luminance(img.At(x, y).RGBA()) - mean
			variance += d * d
		}
	}
	return math.Sqrt(variance / n)
}

// luminance converts a color.Color's RGBA channels to BT.601 gray.
func luminance(r, g, b, _ uint32) float64 {
	return float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114
}
