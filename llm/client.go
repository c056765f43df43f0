package llm

import (
	"context"

	"github.com/AleutianAI/AleutianMemory/datatypes"
)

// GenerationParams are optional generation knobs passed through to the
// backend. Nil fields use the backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Chat receives the full bounded transcript on every call; the backend is
// stateless with respect to conversations. Implementations must be safe for
// concurrent use and must honor ctx cancellation.
type LLMClient interface {
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}
