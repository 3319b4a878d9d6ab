package questiongen

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run in order on every generated question. A fatal finding
	// rejects the question; penalties lower its quality score.
	Validators []Validator

	// MinQuality rejects questions whose quality score falls below it.
	MinQuality float64

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxPriorQuestions is the maximum number of prior prompts
	// to include in the prompt for deduplication.
	MaxPriorQuestions int

	// MaxWeakTopics caps the learner topics listed in the prompt.
	MaxWeakTopics int

	// Concurrency bounds in-flight requests during batch generation.
	Concurrency int

	// ProviderName is recorded in question provenance.
	ProviderName string
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionsValidator{},
			&AnswerKeyValidator{},
		},
		MinQuality:        0.5,
		MaxTokens:         1024,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
		MaxWeakTopics:     5,
		Concurrency:       4,
	}
}
