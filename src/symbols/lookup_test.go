package symbols

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/username/tradenorm/src/anthropic"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: s}}}
}

func byModel(model string) interface{} {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool { return req.Model == model })
}

func TestAnthropicLookup_PrimaryModel(t *testing.T) {
	client := new(MockClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "primary" && req.MaxTokens == 10 && *req.Temperature == 0.1 &&
			len(req.Messages) == 1 && req.Messages[0].Content == "prompt"
	})).Return(textResponse(` "SPCE" `), nil)

	l := NewAnthropicLookup(client, LookupConfig{Models: []string{"primary", "backup"}, Temperature: 0.1})
	reply, err := l.Lookup(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `"SPCE"`, reply)
	client.AssertNotCalled(t, "CreateMessage", mock.Anything, byModel("backup"))
}

func TestAnthropicLookup_KeepsJSONQuotes(t *testing.T) {
	client := new(MockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{"current_symbol": "NKLA"}`+"\n"), nil)

	l := NewAnthropicLookup(client, LookupConfig{Models: []string{"primary"}, MaxTokens: 500})
	reply, err := l.Lookup(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"current_symbol": "NKLA"}`, reply)
}

func TestAnthropicLookup_FallsBackToBackup(t *testing.T) {
	client := new(MockClient)
	client.On("CreateMessage", mock.Anything, byModel("primary")).Return(nil, errors.New("overloaded"))
	client.On("CreateMessage", mock.Anything, byModel("backup")).Return(textResponse("LCID"), nil)

	l := NewAnthropicLookup(client, LookupConfig{Models: []string{"primary", "backup"}})
	reply, err := l.Lookup(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "LCID", reply)
	client.AssertExpectations(t)
}

func TestAnthropicLookup_AllModelsFail(t *testing.T) {
	client := new(MockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("  "), nil)

	l := NewAnthropicLookup(client, LookupConfig{Models: []string{"primary", "backup"}})
	_, err := l.Lookup(context.Background(), "prompt")
	assert.Error(t, err)
	client.AssertNumberOfCalls(t, "CreateMessage", 2)

	_, err = NewAnthropicLookup(client, LookupConfig{}).Lookup(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestAnthropicLookup_RateLimitHonorsContext(t *testing.T) {
	client := new(MockClient)
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow()) // drain the only token

	l := NewAnthropicLookup(client, LookupConfig{Models: []string{"primary"}, Timeout: 20 * time.Millisecond, Limiter: limiter})
	_, err := l.Lookup(context.Background(), "prompt")
	assert.Error(t, err)
	client.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestNoopLookup(t *testing.T) {
	_, err := NoopLookup{}.Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrLookupDisabled)
}
