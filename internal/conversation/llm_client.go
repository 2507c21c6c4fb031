package conversation

import "context"

// Chat roles as stored in session history and transcripts. The Gemini
// client maps these onto the provider's own role names.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation. System-role messages carry
// the sales persona prompt and are never shown to the customer.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports the provider's token accounting for one completion.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is a provider-neutral completion request. Zero values for
// MaxTokens, Temperature and TopP leave the provider defaults in place.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse is the raw completion before payload extraction. StopReason
// lets the gateway tell a finished reply from a truncated one.
type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the single-call surface the generation gateway wraps with
// retries and timeouts. GeminiClient implements it.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
