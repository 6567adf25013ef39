package enrichment

import "context"

// DefaultCity is the city hint used when a request does not name one.
const DefaultCity = "Dallas"

//go:generate go run go.uber.org/mock/mockgen -source=enrichment.go -destination=mocks/mock.go

// Narrator is the enhanced enrichment tier: a language model that turns a
// candidate's text into a place description.
type Narrator interface {
	// Narrate returns the model's raw reply. It is expected to be a JSON object
	// but may be anything, including empty.
	Narrate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is a single narrator request.
type Prompt struct {
	System string
	User   string
}
