package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrScriptExhausted = errors.New("llm: fake script exhausted")

// Fake is a scripted client for tests and offline runs. JSON and text
// responses are consumed in FIFO order; a queued error is returned in place
// of the next response of its kind.
type Fake struct {
	mu       sync.Mutex
	jsonQ    []json.RawMessage
	jsonErrQ []error
	textQ    []string
	textErrQ []error

	// Prompts records every prompt seen, for assertions.
	Prompts []string
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "FakeLLM" }
func (f *Fake) Close() error { return nil }

// QueueJSON appends a scripted JSON response.
func (f *Fake) QueueJSON(raw string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonQ = append(f.jsonQ, json.RawMessage(raw))
	f.jsonErrQ = append(f.jsonErrQ, nil)
	return f
}

// QueueJSONErr appends a scripted failure for the next GenerateJSON call.
func (f *Fake) QueueJSONErr(err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonQ = append(f.jsonQ, nil)
	f.jsonErrQ = append(f.jsonErrQ, err)
	return f
}

// QueueText appends a scripted free-text response.
func (f *Fake) QueueText(s string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textQ = append(f.textQ, s)
	f.textErrQ = append(f.textErrQ, nil)
	return f
}

func (f *Fake) GenerateJSON(_ context.Context, prompt string, _ any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if len(f.jsonQ) == 0 {
		return nil, ErrScriptExhausted
	}
	raw, err := f.jsonQ[0], f.jsonErrQ[0]
	f.jsonQ, f.jsonErrQ = f.jsonQ[1:], f.jsonErrQ[1:]
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *Fake) GenerateText(_ context.Context, prompt string, _ any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if len(f.textQ) == 0 {
		return "", ErrScriptExhausted
	}
	s, err := f.textQ[0], f.textErrQ[0]
	f.textQ, f.textErrQ = f.textQ[1:], f.textErrQ[1:]
	if err != nil {
		return "", err
	}
	return s, nil
}
