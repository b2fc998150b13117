// Package chat runs a follow-up conversation about a generated report.
//
// A Session moves through AwaitingGreeting, then Streaming and Idle in
// turn, until it is closed. Only one reply streams at a time. The visible
// transcript is a sequence of immutable snapshots: every change produces a
// new slice, so an observer holding an older snapshot never sees it change.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/prompt"
)

// Temperature used for every chat turn.
const Temperature float32 = 0.7

// FailureText replaces a model reply whose stream failed.
const FailureText = "Sorry, something went wrong. Please try again."

// Role identifies the author of a visible message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of the visible transcript.
type Message struct {
	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// State is the session's position in its lifecycle.
type State int

const (
	StateAwaitingGreeting State = iota
	StateStreaming
	StateIdle
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingGreeting:
		return "awaiting_greeting"
	case StateStreaming:
		return "streaming"
	case StateIdle:
		return "idle"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned while a reply is still streaming, or before the
	// greeting has been requested.
	ErrBusy = errors.New("chat: a reply is still in progress")

	ErrEmptyMessage = errors.New("chat: message is empty")
	ErrClosed       = errors.New("chat: session is closed")
)

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(s *Session) { s.model = model }
}

// WithHistory preloads earlier messages, e.g. from a saved transcript.
// A preloaded session still greets on Start. Failed exchanges stay in the
// transcript but are not replayed to the model.
func WithHistory(messages []Message) Option {
	return func(s *Session) {
		s.messages = append([]Message(nil), messages...)
		s.history = replayable(messages)
	}
}

// replayable converts a transcript to model history, dropping each
// failure notice together with the user turn it answered.
func replayable(messages []Message) []llm.Message {
	var history []llm.Message
	for _, m := range messages {
		if m.Role == RoleModel && (m.Text == FailureText || strings.TrimSpace(m.Text) == "") {
			if n := len(history); n > 0 && history[n-1].Role == llm.RoleUser {
				history = history[:n-1]
			}
			continue
		}
		history = append(history, toLLM(m))
	}
	return history
}

// OnUpdate registers fn to receive every new transcript snapshot. It is
// called from the streaming goroutine, never with the session locked.
func OnUpdate(fn func([]Message)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// Session is a streaming conversation grounded in one report. It is safe
// for concurrent use.
type Session struct {
	provider llm.Provider
	system   string
	model    string
	logger   *slog.Logger
	onUpdate func([]Message)

	mu       sync.Mutex
	state    State
	messages []Message
	history  []llm.Message
	cancel   context.CancelFunc
	done     chan struct{}
}

// SystemInstruction builds the instruction that grounds a session in the
// report of kind k.
func SystemInstruction(k prompt.Kind, result any) (string, error) {
	return prompt.ChatInstruction(k, result)
}

// New returns a session in StateAwaitingGreeting. Call Start to request
// the greeting.
func New(provider llm.Provider, systemInstruction string, opts ...Option) (*Session, error) {
	if provider == nil {
		return nil, errors.New("provider cannot be nil")
	}
	if strings.TrimSpace(systemInstruction) == "" {
		return nil, errors.New("system instruction cannot be empty")
	}

	s := &Session{
		provider: provider,
		system:   systemInstruction,
		logger:   slog.New(slog.DiscardHandler),
		state:    StateAwaitingGreeting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start sends the greeting request. The request itself never appears in
// the transcript; the reply becomes the first visible model message.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateAwaitingGreeting:
	default:
		s.mu.Unlock()
		return ErrBusy
	}
	s.logger.Debug("requesting chat greeting")
	return s.begin(ctx, llm.Message{Role: llm.RoleUser, Content: prompt.GreetingRequest}, nil)
}

// Send appends text as a user message and streams the reply. It fails with
// ErrBusy unless the session is idle.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateIdle:
	default:
		s.mu.Unlock()
		return ErrBusy
	}
	s.logger.Debug("sending chat message", "chars", len(text))
	return s.begin(ctx, llm.Message{Role: llm.RoleUser, Content: text}, &Message{Role: RoleUser, Text: text})
}

// begin must be called with s.mu held; it releases it.
func (s *Session) begin(ctx context.Context, request llm.Message, visible *Message) error {
	next := make([]Message, 0, len(s.messages)+2)
	next = append(next, s.messages...)
	if visible != nil {
		next = append(next, *visible)
	}
	next = append(next, Message{Role: RoleModel})
	s.messages = next

	conversation := make([]llm.Message, 0, len(s.history)+2)
	conversation = append(conversation, llm.Message{Role: llm.RoleSystem, Content: s.system})
	conversation = append(conversation, s.history...)
	conversation = append(conversation, request)

	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.state = StateStreaming
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.notify(next)
	go s.stream(streamCtx, cancel, conversation, request, done)
	return nil
}

func (s *Session) stream(ctx context.Context, cancel context.CancelFunc, conversation []llm.Message, request llm.Message, done chan struct{}) {
	defer close(done)
	defer cancel()

	opts := &llm.ChatOptions{Model: s.model, Temperature: Temperature}
	events, err := s.provider.ChatStream(ctx, conversation, opts)
	if err != nil {
		s.finish(request, "", err)
		return
	}

	var reply strings.Builder
	var streamErr error
	for ev := range events {
		if streamErr != nil {
			continue
		}
		if ev.Error != nil {
			streamErr = ev.Error
			continue
		}
		if ev.Content != "" {
			reply.WriteString(ev.Content)
			s.replaceLast(reply.String())
		}
	}
	s.finish(request, reply.String(), streamErr)
}

// replaceLast swaps the trailing model message for one holding text.
func (s *Session) replaceLast(text string) {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	next := append([]Message(nil), s.messages...)
	next[len(next)-1] = Message{Role: RoleModel, Text: text}
	s.messages = next
	s.mu.Unlock()

	s.notify(next)
}

func (s *Session) finish(request llm.Message, reply string, err error) {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrInvalidResponse
	}

	next := append([]Message(nil), s.messages...)
	if err != nil {
		s.logger.Warn("chat reply failed", "error", err)
		next[len(next)-1] = Message{Role: RoleModel, Text: FailureText}
	} else {
		next[len(next)-1] = Message{Role: RoleModel, Text: reply}
		s.history = append(s.history, request, llm.Message{Role: llm.RoleAssistant, Content: reply})
	}
	s.messages = next
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()

	s.notify(next)
}

func (s *Session) notify(snapshot []Message) {
	if s.onUpdate != nil {
		s.onUpdate(snapshot)
	}
}

// Messages returns the current transcript snapshot.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the reply in progress, if any, has finished.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close abandons any reply in progress. The transcript is not changed after
// Close returns.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.logger.Debug("chat session closed", "messages", len(s.messages))
	return nil
}

func toLLM(m Message) llm.Message {
	if m.Role == RoleModel {
		return llm.Message{Role: llm.RoleAssistant, Content: m.Text}
	}
	return llm.Message{Role: llm.RoleUser, Content: m.Text}
}
