package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/llm"
	"github.com/AleutianAI/AleutianMemory/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var conversationTracer = otel.Tracer("aleutian.memory.conversation")

// =============================================================================
// Reformulator
// =============================================================================

// Reformulator rewrites follow-up questions into standalone queries.
//
// # Description
//
// A follow-up like "how much does it cost?" carries almost no semantic
// signal for embeddings search. Reformulator sends the question to the
// LLM together with the conversation transcript and asks for a rewrite
// that names the subject explicitly. The reformulation exchange itself
// is recorded in the transcript, so later rewrites see earlier ones.
//
// # Thread Safety
//
// Safe for concurrent use as long as the underlying Store is.
type Reformulator struct {
	store Store
	llm   llm.LLMClient
}

// NewReformulator creates a Reformulator over the given store and LLM.
func NewReformulator(store Store, client llm.LLMClient) *Reformulator {
	return &Reformulator{store: store, llm: client}
}

// Reformulate rewrites question using the transcript of conversationID.
//
// # Description
//
// Loads the conversation window, builds the reformulation prompt, and
// asks the LLM for a standalone rewrite. On success the prompt and the
// rewrite are appended to the transcript. On any failure the transcript
// is left untouched and an error is returned; callers decide whether to
// fall back to the original question.
//
// # Inputs
//
//   - ctx: Context for cancellation and timeout.
//   - conversationID: The conversation whose transcript provides context.
//   - question: The user's question as submitted.
//
// # Outputs
//
//   - string: The standalone rewrite.
//   - error: Non-nil if the transcript cannot be read, the LLM call
//     fails, or the LLM returns a blank reply.
func (r *Reformulator) Reformulate(ctx context.Context, conversationID, question string) (string, error) {
	ctx, span := conversationTracer.Start(ctx, "Reformulator.Reformulate")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	turns, err := r.store.Get(ctx, conversationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history read failed")
		return "", fmt.Errorf("read conversation history: %w", err)
	}
	span.SetAttributes(attribute.Int("conversation.turns", len(turns)))

	prompt := reformulationPrompt(question)
	messages := turnsToMessages(turns)
	messages = append(messages, datatypes.Message{Role: RoleUser, Content: prompt})

	start := time.Now()
	reply, err := r.llm.Chat(ctx, messages, llm.GenerationParams{})
	observability.ReformulationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reformulation failed")
		return "", fmt.Errorf("reformulate question: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		err := fmt.Errorf("reformulation returned an empty reply")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty reformulation")
		return "", err
	}

	err = r.store.Append(ctx, conversationID,
		Turn{Role: RoleUser, Text: prompt},
		Turn{Role: RoleAssistant, Text: reply},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history write failed")
		return "", fmt.Errorf("record reformulation: %w", err)
	}

	return reply, nil
}

// reformulationPrompt wraps the question in the rewrite instruction.
func reformulationPrompt(question string) string {
	return fmt.Sprintf(`Reformulate the following question taking into account the context of the chat to perform embeddings search:
---
%s
---
You must reformulate the question in the same language of the user's question.
Never add "in this chat", "in the context of this chat", "in the context of this conversation", "search in our chat history" or something like that in your answer.
The reformulation must always explicitly contain the subject of the question.`, question)
}

// turnsToMessages converts stored turns into LLM chat messages.
func turnsToMessages(turns []Turn) []datatypes.Message {
	messages := make([]datatypes.Message, 0, len(turns)+1)
	for _, t := range turns {
		messages = append(messages, datatypes.Message{Role: t.Role, Content: t.Text})
	}
	return messages
}
