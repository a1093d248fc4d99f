// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/trade-hire/internal/llm"
)

// Stub returns canned output and records every request it receives.
type Stub struct {
	Output string
	Err    error

	mu       sync.Mutex
	requests []llm.Request
	closed   bool
}

// Generate records req and returns the canned output or error.
func (s *Stub) Generate(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Output, nil
}

// Close marks the stub closed.
func (s *Stub) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Requests returns a copy of the recorded requests.
func (s *Stub) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

// Calls is the number of Generate calls made.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
