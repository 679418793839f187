package classify

// TopicLabel identifies the mathematical topic of a formula.
type TopicLabel string

const (
	TopicQuadratic     TopicLabel = "quadratic"
	TopicBasicAlgebra  TopicLabel = "basic_algebra"
	TopicCalculus      TopicLabel = "calculus"
	TopicTrigonometry  TopicLabel = "trigonometry"
	TopicGeometry      TopicLabel = "geometry"
	TopicLogarithm     TopicLabel = "logarithm"
	TopicStatistics    TopicLabel = "statistics"
	TopicProbability   TopicLabel = "probability"
	TopicUncategorized TopicLabel = "uncategorized"
)

// DifficultyLabel is a coarse difficulty rating for a formula.
type DifficultyLabel string

const (
	DifficultyEasy     DifficultyLabel = "easy"
	DifficultyModerate DifficultyLabel = "moderate"
	DifficultyHard     DifficultyLabel = "hard"
)
