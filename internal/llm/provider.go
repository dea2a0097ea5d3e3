package llm

import "context"

// DefaultMaxTokens caps every completion's output.
const DefaultMaxTokens = 500

// Completer turns one prompt into one completion. Implementations carry no
// conversation state and are safe for concurrent use.
type Completer interface {
	GetModel() string
	Complete(ctx context.Context, prompt string) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var SupportedProviders = []string{"openai", "ollama", "gemini"}
