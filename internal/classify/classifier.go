// Package classify assigns topic and difficulty labels to LaTeX formulas.
//
// Classification is two-tier: an ordered table of regular expression rules
// is consulted first, and a small character n-gram naive Bayes model breaks
// the cases no rule covers. Difficulty falls back to a weighted complexity
// score instead of a statistical model.
package classify

import (
	"fmt"
	"regexp"
)

// Classifier labels formulas by topic and difficulty. It is immutable after
// construction and safe for concurrent use; build one at startup and share
// it.
type Classifier struct {
	topics     []compiledTopicRule
	difficulty []compiledDifficultyRule
	complexity []compiledFactor
	vectorizer *ngramVectorizer
	topicModel *multinomialNB
}

type compiledTopicRule struct {
	label    TopicLabel
	patterns []*regexp.Regexp
}

type compiledDifficultyRule struct {
	label    DifficultyLabel
	patterns []*regexp.Regexp
}

type compiledFactor struct {
	pattern *regexp.Regexp
	weight  int
}

// NewClassifier compiles the rule tables and trains the statistical
// fallback on the fixed example set. Construction is deterministic: the
// same binary always produces the same model.
func NewClassifier() (*Classifier, error) {
	c := &Classifier{}

	for _, rule := range topicRules {
		compiled := compiledTopicRule{label: rule.label}
		for _, p := range rule.patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile topic pattern %q: %w", p, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		c.topics = append(c.topics, compiled)
	}

	for _, rule := range difficultyRules {
		compiled := compiledDifficultyRule{label: rule.label}
		for _, p := range rule.patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("compile difficulty pattern %q: %w", p, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		c.difficulty = append(c.difficulty, compiled)
	}

	for _, f := range complexityFactors {
		re, err := regexp.Compile(f.pattern)
		if err != nil {
			return nil, fmt.Errorf("compile complexity pattern %q: %w", f.pattern, err)
		}
		c.complexity = append(c.complexity, compiledFactor{pattern: re, weight: f.weight})
	}

	c.vectorizer = newNgramVectorizer(2, 4)
	corpus := make([]string, len(trainingExamples))
	labels := make([]TopicLabel, len(trainingExamples))
	for i, ex := range trainingExamples {
		corpus[i] = ex.latex
		labels[i] = ex.label
	}
	c.vectorizer.fit(corpus)

	docs := make([][]float64, len(corpus))
	for i, doc := range corpus {
		vec, err := c.vectorizer.transform(doc)
		if err != nil {
			return nil, fmt.Errorf("vectorize training example %q: %w", doc, err)
		}
		docs[i] = vec
	}
	c.topicModel = fitNB(docs, labels, len(c.vectorizer.vocab))

	return c, nil
}

// ClassifyType returns the topic label for a formula. Rules are checked in
// table order and the first matching rule wins; when no rule matches the
// naive Bayes model decides, and an unvectorizable input comes back as
// TopicUncategorized.
func (c *Classifier) ClassifyType(latex string) TopicLabel {
	for _, rule := range c.topics {
		for _, re := range rule.patterns {
			if re.MatchString(latex) {
				return rule.label
			}
		}
	}

	vec, err := c.vectorizer.transform(latex)
	if err != nil {
		return TopicUncategorized
	}
	return c.topicModel.predict(vec)
}

// ClassifyDifficulty returns the difficulty label for a formula, using the
// pattern table first and the complexity score as fallback.
func (c *Classifier) ClassifyDifficulty(latex string) DifficultyLabel {
	for _, rule := range c.difficulty {
		for _, re := range rule.patterns {
			if re.MatchString(latex) {
				return rule.label
			}
		}
	}

	score := c.ComplexityScore(latex)
	switch {
	case score < 30:
		return DifficultyEasy
	case score < 100:
		return DifficultyModerate
	default:
		return DifficultyHard
	}
}

// ComplexityScore computes the weighted syntactic complexity of a formula.
// The base score is the string length; each structural feature adds its
// weight per occurrence.
func (c *Classifier) ComplexityScore(latex string) int {
	score := len(latex)
	for _, f := range c.complexity {
		score += len(f.pattern.FindAllString(latex, -1)) * f.weight
	}
	return score
}
