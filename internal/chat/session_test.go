package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/llm/llmtest"
	"github.com/bimmerbailey/aura/internal/prompt"
)

const instruction = "You are an expert AI analyst named Aura."

func started(t *testing.T, fake *llmtest.Provider, opts ...Option) *Session {
	t.Helper()
	s, err := New(fake, instruction, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	s.Wait()
	return s
}

func TestNew(t *testing.T) {
	_, err := New(nil, instruction)
	assert.Error(t, err)

	_, err = New(llmtest.New(), "  ")
	assert.Error(t, err)

	s, err := New(llmtest.New(), instruction)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingGreeting, s.State())
	assert.Empty(t, s.Messages())
}

func TestGreetingIsNotAUserMessage(t *testing.T) {
	fake := llmtest.New(
		llmtest.Reply{Fragments: []string{"Hi, I'm Aura. ", "Ask me anything."}},
		llmtest.Reply{Fragments: []string{"The ROI is ", "35%."}},
	)
	s := started(t, fake)

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, []Message{{Role: RoleModel, Text: "Hi, I'm Aura. Ask me anything."}}, s.Messages())

	require.NoError(t, s.Send(context.Background(), "What is the ROI?"))
	s.Wait()

	assert.Equal(t, []Message{
		{Role: RoleModel, Text: "Hi, I'm Aura. Ask me anything."},
		{Role: RoleUser, Text: "What is the ROI?"},
		{Role: RoleModel, Text: "The ROI is 35%."},
	}, s.Messages())

	calls := fake.Calls()
	require.Len(t, calls, 2)

	greeting := calls[0]
	assert.True(t, greeting.Stream)
	assert.Equal(t, Temperature, greeting.Options.Temperature)
	require.Len(t, greeting.Messages, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: instruction}, greeting.Messages[0])
	assert.Equal(t, prompt.GreetingRequest, greeting.Messages[1].Content)

	followUp := calls[1].Messages
	require.Len(t, followUp, 4)
	assert.Equal(t, llm.RoleAssistant, followUp[2].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "What is the ROI?"}, followUp[3])
}

func TestSnapshotsAreNotMutated(t *testing.T) {
	var mu sync.Mutex
	var snapshots [][]Message
	record := func(m []Message) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, m)
	}

	fake := llmtest.New(llmtest.Reply{Fragments: []string{"Hel", "lo"}})
	started(t, fake, OnUpdate(record))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots, 4, "placeholder, two fragments and the final reply")
	assert.Equal(t, "", snapshots[0][0].Text)
	assert.Equal(t, "Hel", snapshots[1][0].Text)
	assert.Equal(t, "Hello", snapshots[2][0].Text)
	assert.Equal(t, "Hello", snapshots[3][0].Text)
}

func TestSendWhileStreaming(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: "Hello"})
	fake.Gate = make(chan struct{})

	s, err := New(fake, instruction)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Send(context.Background(), "too early"), ErrBusy)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateStreaming, s.State())
	assert.ErrorIs(t, s.Start(context.Background()), ErrBusy)
	assert.ErrorIs(t, s.Send(context.Background(), "second"), ErrBusy)

	close(fake.Gate)
	s.Wait()

	assert.Equal(t, StateIdle, s.State())
	assert.Len(t, fake.Calls(), 1, "a rejected send must not start a stream")
	require.NoError(t, s.Send(context.Background(), "now"))
	s.Wait()
	assert.Len(t, s.Messages(), 3)
}

func TestSendEmpty(t *testing.T) {
	s := started(t, llmtest.New(llmtest.Reply{Content: "Hello"}))
	assert.ErrorIs(t, s.Send(context.Background(), " \n"), ErrEmptyMessage)
	assert.Len(t, s.Messages(), 1)
}

func TestStreamError(t *testing.T) {
	fake := llmtest.New(
		llmtest.Reply{Content: "Hello"},
		llmtest.Reply{Fragments: []string{"partial"}, Err: errors.New("stream reset")},
		llmtest.Reply{Content: "Recovered"},
	)
	s := started(t, fake)

	require.NoError(t, s.Send(context.Background(), "question one"))
	s.Wait()

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{Role: RoleModel, Text: FailureText}, msgs[2])
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Send(context.Background(), "question two"))
	s.Wait()
	msgs = s.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, "Recovered", msgs[4].Text)

	// The failed exchange is not replayed to the model.
	last := fake.Calls()[2].Messages
	for _, m := range last {
		assert.NotEqual(t, "question one", m.Content)
	}
}

func TestEmptyReplyIsAFailure(t *testing.T) {
	s := started(t, llmtest.New(llmtest.Reply{}))
	assert.Equal(t, []Message{{Role: RoleModel, Text: FailureText}}, s.Messages())
}

func TestClose(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Fragments: []string{"Hel"}})
	fake.Gate = make(chan struct{})
	defer close(fake.Gate)

	var mu sync.Mutex
	updates := 0
	s, err := New(fake, instruction, OnUpdate(func([]Message) {
		mu.Lock()
		updates++
		mu.Unlock()
	}))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		msgs := s.Messages()
		return len(msgs) == 1 && msgs[0].Text == "Hel"
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Close())
	s.Wait()

	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, []Message{{Role: RoleModel, Text: "Hel"}}, s.Messages())
	mu.Lock()
	assert.Equal(t, 2, updates, "no updates after close")
	mu.Unlock()

	assert.ErrorIs(t, s.Send(context.Background(), "hello?"), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestWithHistory(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: "Welcome back."})
	prior := []Message{
		{Role: RoleModel, Text: "Hi."},
		{Role: RoleUser, Text: "Summarize."},
		{Role: RoleModel, Text: "Done."},
	}
	s := started(t, fake, WithHistory(prior), WithModel("gemini-2.5-pro"))

	assert.Len(t, s.Messages(), 4)
	call := fake.Calls()[0]
	assert.Equal(t, "gemini-2.5-pro", call.Options.Model)
	require.Len(t, call.Messages, 5)
	assert.Equal(t, llm.RoleAssistant, call.Messages[1].Role)
	assert.Equal(t, llm.RoleUser, call.Messages[2].Role)
}

func TestWithHistorySkipsFailedExchanges(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: "Welcome back."})
	prior := []Message{
		{Role: RoleModel, Text: "Hi."},
		{Role: RoleUser, Text: "What drives the ROI?"},
		{Role: RoleModel, Text: FailureText},
		{Role: RoleUser, Text: "Summarize."},
		{Role: RoleModel, Text: "Done."},
	}
	s := started(t, fake, WithHistory(prior))

	assert.Equal(t, prior, s.Messages()[:len(prior)], "the visible transcript keeps the failure")

	sent := fake.Calls()[0].Messages
	require.Len(t, sent, 5)
	for _, m := range sent {
		assert.NotEqual(t, FailureText, m.Content)
		assert.NotEqual(t, "What drives the ROI?", m.Content)
	}
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Hi."}, sent[1])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Summarize."}, sent[2])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Done."}, sent[3])
}

func TestSystemInstruction(t *testing.T) {
	text, err := SystemInstruction(prompt.KindROIForecast, map[string]any{"predictedRoiPercentage": 35})
	require.NoError(t, err)
	assert.Contains(t, text, "Aura")
	assert.Contains(t, text, "Forecast Training ROI")
}
