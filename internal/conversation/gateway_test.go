package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

// scriptedClient returns canned responses/errors in order, then repeats the
// last entry.
type scriptedClient struct {
	responses []LLMResponse
	errs      []error
	calls     int
}

func (c *scriptedClient) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	i := c.calls
	if i >= len(c.errs) {
		i = len(c.errs) - 1
	}
	c.calls++
	return c.responses[i], c.errs[i]
}

func newTestGateway(client LLMClient, maxRetries int) *Gateway {
	g := NewGateway(client, GatewayConfig{
		MaxRetries:     maxRetries,
		BaseDelay:      time.Millisecond,
		BackoffFactor:  2,
		RequestTimeout: time.Second,
	}, nil)
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestGenerateSucceedsAfterTransientFailures(t *testing.T) {
	overloaded := &googleapi.Error{Code: 503, Message: "model overloaded"}
	client := &scriptedClient{
		responses: []LLMResponse{{}, {}, {}, {Text: "hola"}},
		errs:      []error{overloaded, overloaded, overloaded, nil},
	}

	gen, genErr := newTestGateway(client, 3).Generate(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	require.Nil(t, genErr)
	assert.Equal(t, "hola", gen.Text)
	assert.Equal(t, 4, client.calls)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	overloaded := &googleapi.Error{Code: 429, Message: "rate limited"}
	client := &scriptedClient{
		responses: []LLMResponse{{}},
		errs:      []error{overloaded},
	}

	gen, genErr := newTestGateway(client, 3).Generate(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	assert.Nil(t, gen)
	require.NotNil(t, genErr)
	assert.Equal(t, KindOverloaded, genErr.Kind)
	// Initial attempt plus three retries.
	assert.Equal(t, 4, client.calls)
}

func TestGenerateDoesNotRetryBadRequest(t *testing.T) {
	bad := &googleapi.Error{Code: 400, Message: "invalid request"}
	client := &scriptedClient{
		responses: []LLMResponse{{}},
		errs:      []error{bad},
	}

	_, genErr := newTestGateway(client, 3).Generate(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	require.NotNil(t, genErr)
	assert.Equal(t, KindBadRequest, genErr.Kind)
	assert.Equal(t, 1, client.calls)
}

func TestGenerateTimeoutIsNetworkError(t *testing.T) {
	client := &scriptedClient{
		responses: []LLMResponse{{}},
		errs:      []error{context.DeadlineExceeded},
	}

	_, genErr := newTestGateway(client, 1).Generate(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	require.NotNil(t, genErr)
	assert.Equal(t, KindNetworkError, genErr.Kind)
	assert.Equal(t, 2, client.calls)
}

func TestGenerateAnnotatesTruncation(t *testing.T) {
	client := &scriptedClient{
		responses: []LLMResponse{{Text: "respuesta parcial", StopReason: "FinishReasonMaxTokens"}},
		errs:      []error{nil},
	}

	gen, genErr := newTestGateway(client, 3).Generate(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	require.Nil(t, genErr)
	assert.True(t, gen.Truncated)
	assert.Equal(t, "respuesta parcial", gen.Text)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{&googleapi.Error{Code: 503}, KindOverloaded},
		{&googleapi.Error{Code: 429}, KindOverloaded},
		{&googleapi.Error{Code: 400}, KindBadRequest},
		{&googleapi.Error{Code: 500}, KindUnknown},
		{context.DeadlineExceeded, KindNetworkError},
		{errors.New("conversation: gemini returned no candidates"), KindMalformedResponse},
		{errors.New("something odd"), KindUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, classify(tc.err).Kind, "err=%v", tc.err)
	}
}
