package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	keys   []string
	events []RequestEvent
	err    error
}

func (s *recordingSink) Append(_ context.Context, typ, key string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if typ == EventTypeRequest {
		s.keys = append(s.keys, key)
		s.events = append(s.events, data.(RequestEvent))
	}
	return s.err
}

func TestLoggingProvider_RecordsSuccessAndFailure(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: []byte(`{"ok":true}`), Usage: Usage{InputTokens: 3, OutputTokens: 4}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	sink := &recordingSink{}
	p := WithLogging(mock, sink, nil)

	ctx := WithPurpose(context.Background(), "remedial_lesson")
	_, err := p.Generate(ctx, UserPrompt("sys", "hello", 10, 0))
	require.NoError(t, err)
	_, err = p.Generate(ctx, UserPrompt("sys", "again", 10, 0))
	require.Error(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, []string{"remedial_lesson", "remedial_lesson"}, sink.keys)
	assert.True(t, sink.events[0].Success)
	assert.Equal(t, 3, sink.events[0].InputTokens)
	assert.Contains(t, sink.events[0].RequestBody, "[system]\nsys")
	assert.False(t, sink.events[1].Success)
	assert.Contains(t, sink.events[1].ErrorMessage, "down")
}

func TestLoggingProvider_SinkFailureDoesNotFailCall(t *testing.T) {
	p := WithLogging(NewMockProvider(MockText(`{}`)), &recordingSink{err: errors.New("disk full")}, nil)
	resp, err := p.Generate(context.Background(), UserPrompt("", "x", 10, 0))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(resp.Content))
	assert.Equal(t, "mock", p.ModelID())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	p, err = NewProvider(context.Background(), Config{Provider: "mock"}, &recordingSink{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LoggingProvider{}, p)

	_, err = NewProvider(context.Background(), Config{Provider: "watson"}, nil, nil)
	assert.Error(t, err)

	_, err = NewProvider(context.Background(), Config{Provider: "openai"}, nil, nil)
	assert.Error(t, err, "missing key")
}

func TestMockProvider_DelayHonoursContext(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: []byte(`{}`), Delay: 1 << 40})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, m.CallCount())
}
