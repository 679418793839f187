package classify

import (
	"errors"
	"math"
	"sort"
)

// maxVocabulary caps the n-gram feature space so the model stays small and
// startup stays fast regardless of how the example set grows.
const maxVocabulary = 1000

var errNoKnownFeatures = errors.New("classify: no known n-grams in input")

// trainingExample is one labeled formula used to fit the fallback model.
type trainingExample struct {
	latex string
	label TopicLabel
}

// trainingExamples is the fixed, versioned example set the statistical
// fallback is trained on at startup. Keep it small; it only has to break
// ties the pattern table cannot, not cover the whole curriculum.
var trainingExamples = []trainingExample{
	{`x^{2} + 5x + 6 = 0`, TopicQuadratic},
	{`2x^{2} - 7x + 3 = 0`, TopicQuadratic},
	{`ax^{2} + bx + c = 0`, TopicQuadratic},
	{`\frac{-b \pm \sqrt{b^{2} - 4ac}}{2a}`, TopicQuadratic},
	{`x^{2} = 25`, TopicQuadratic},
	{`3x^{2} + 2 = 14`, TopicQuadratic},
	{`x + y = 10`, TopicBasicAlgebra},
	{`2x - 3 = 7`, TopicBasicAlgebra},
	{`\frac{x}{y} + 2`, TopicBasicAlgebra},
	{`a + b = c`, TopicBasicAlgebra},
	{`\sin(x)`, TopicTrigonometry},
	{`\cos(x)`, TopicTrigonometry},
	{`\tan(x)`, TopicTrigonometry},
	{`\triangle ABC`, TopicGeometry},
	{`\square ABCD`, TopicGeometry},
	{`\circle O`, TopicGeometry},
	{`\log(x)`, TopicLogarithm},
	{`\log_{10}(x)`, TopicLogarithm},
	{`\bar{x}`, TopicStatistics},
	{`\sigma`, TopicStatistics},
	{`P(A \cap B)`, TopicStatistics},
	{`P(A \cup B)`, TopicProbability},
	{`P(A \cap B)`, TopicProbability},
	{`\int`, TopicCalculus},
	{`\int_{a}^{b}`, TopicCalculus},
	{`\sum`, TopicCalculus},
	{`\sum_{a}^{b}`, TopicCalculus},
	{`\frac{d}{dx}`, TopicCalculus},
	{`\frac{d^2}{dx^2}`, TopicCalculus},
}

// ngramVectorizer turns a string into character n-gram counts over a fixed
// vocabulary. The vocabulary is frozen at fit time; unseen n-grams are
// ignored at transform time.
type ngramVectorizer struct {
	minN, maxN int
	vocab      map[string]int
}

func newNgramVectorizer(minN, maxN int) *ngramVectorizer {
	return &ngramVectorizer{minN: minN, maxN: maxN, vocab: make(map[string]int)}
}

// ngrams extracts every n-gram of length minN..maxN from s.
func (v *ngramVectorizer) ngrams(s string) []string {
	runes := []rune(s)
	var grams []string
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+n]))
		}
	}
	return grams
}

// fit builds the vocabulary from the corpus. The most frequent n-grams win
// the cap; ties break lexicographically so the index assignment is
// deterministic across runs.
func (v *ngramVectorizer) fit(corpus []string) {
	freq := make(map[string]int)
	for _, doc := range corpus {
		for _, g := range v.ngrams(doc) {
			freq[g]++
		}
	}

	grams := make([]string, 0, len(freq))
	for g := range freq {
		grams = append(grams, g)
	}
	sort.Slice(grams, func(i, j int) bool {
		if freq[grams[i]] != freq[grams[j]] {
			return freq[grams[i]] > freq[grams[j]]
		}
		return grams[i] < grams[j]
	})

	if len(grams) > maxVocabulary {
		grams = grams[:maxVocabulary]
	}
	for i, g := range grams {
		v.vocab[g] = i
	}
}

// transform maps s onto the fixed vocabulary. Returns errNoKnownFeatures
// when nothing in s appears in the vocabulary, which the caller treats as
// an unclassifiable input rather than a hard failure.
func (v *ngramVectorizer) transform(s string) ([]float64, error) {
	counts := make([]float64, len(v.vocab))
	seen := false
	for _, g := range v.ngrams(s) {
		if idx, ok := v.vocab[g]; ok {
			counts[idx]++
			seen = true
		}
	}
	if !seen {
		return nil, errNoKnownFeatures
	}
	return counts, nil
}

// multinomialNB is a multinomial naive Bayes classifier with Laplace
// smoothing, fitted once and then read-only.
type multinomialNB struct {
	classes   []TopicLabel
	logPrior  []float64
	logLikeli [][]float64 // [class][feature]
}

// fitNB trains the classifier on pre-vectorized documents.
func fitNB(docs [][]float64, labels []TopicLabel, features int) *multinomialNB {
	classSet := make(map[TopicLabel]bool)
	for _, l := range labels {
		classSet[l] = true
	}
	classes := make([]TopicLabel, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	classIdx := make(map[TopicLabel]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	counts := make([][]float64, len(classes))
	totals := make([]float64, len(classes))
	docCounts := make([]float64, len(classes))
	for i := range counts {
		counts[i] = make([]float64, features)
	}

	for i, doc := range docs {
		ci := classIdx[labels[i]]
		docCounts[ci]++
		for f, c := range doc {
			counts[ci][f] += c
			totals[ci] += c
		}
	}

	nb := &multinomialNB{
		classes:   classes,
		logPrior:  make([]float64, len(classes)),
		logLikeli: make([][]float64, len(classes)),
	}
	for i := range classes {
		nb.logPrior[i] = math.Log(docCounts[i] / float64(len(docs)))
		nb.logLikeli[i] = make([]float64, features)
		denom := totals[i] + float64(features) // Laplace smoothing, alpha=1
		for f := 0; f < features; f++ {
			nb.logLikeli[i][f] = math.Log((counts[i][f] + 1) / denom)
		}
	}
	return nb
}

// predict returns the most likely class for a feature vector. Classes are
// scanned in sorted order, so equal scores resolve the same way every run.
func (nb *multinomialNB) predict(features []float64) TopicLabel {
	best := 0
	bestScore := math.Inf(-1)
	for i := range nb.classes {
		score := nb.logPrior[i]
		for f, c := range features {
			if c > 0 {
				score += c * nb.logLikeli[i][f]
			}
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return nb.classes[best]
}
