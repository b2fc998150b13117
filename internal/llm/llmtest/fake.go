// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/bimmerbailey/aura/internal/llm"
)

// Call records one request made to the fake.
type Call struct {
	Messages []llm.Message
	Options  llm.ChatOptions
	Stream   bool
}

// Reply scripts one response. For streams, Fragments are sent in order and
// Err, if set, is delivered after them as the terminal event.
type Reply struct {
	Content   string
	Fragments []string
	Err       error
}

// Provider replays Replies in order; once exhausted it repeats the last.
// Gate, when non-nil, holds every stream open until it is closed.
type Provider struct {
	mu      sync.Mutex
	Replies []Reply
	Gate    chan struct{}
	calls   []Call
}

// New returns a Provider with the given script.
func New(replies ...Reply) *Provider {
	return &Provider{Replies: replies}
}

func (p *Provider) next(c Call) Reply {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := len(p.calls)
	p.calls = append(p.calls, c)
	if len(p.Replies) == 0 {
		return Reply{}
	}
	if i >= len(p.Replies) {
		i = len(p.Replies) - 1
	}
	return p.Replies[i]
}

// Calls returns a copy of the recorded calls.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

func record(messages []llm.Message, opts *llm.ChatOptions, stream bool) Call {
	c := Call{Messages: append([]llm.Message(nil), messages...), Stream: stream}
	if opts != nil {
		c.Options = *opts
	}
	return c
}

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	r := p.next(record(messages, opts, false))
	if r.Err != nil {
		return nil, r.Err
	}
	content := r.Content
	for _, f := range r.Fragments {
		content += f
	}
	return &llm.Response{Content: content, Model: "fake"}, nil
}

func (p *Provider) ChatStream(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (<-chan llm.StreamEvent, error) {
	r := p.next(record(messages, opts, true))

	fragments := r.Fragments
	if len(fragments) == 0 && r.Content != "" {
		fragments = []string{r.Content}
	}

	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		for _, f := range fragments {
			select {
			case ch <- llm.StreamEvent{Content: f}:
			case <-ctx.Done():
				ch <- llm.StreamEvent{Error: ctx.Err(), Done: true}
				return
			}
		}
		if p.Gate != nil {
			select {
			case <-p.Gate:
			case <-ctx.Done():
				ch <- llm.StreamEvent{Error: ctx.Err(), Done: true}
				return
			}
		}
		ch <- llm.StreamEvent{Error: r.Err, Done: true}
	}()
	return ch, nil
}

func (p *Provider) Heartbeat(context.Context) error { return nil }

func (p *Provider) ModelAvailable(context.Context, string) (bool, error) { return true, nil }
