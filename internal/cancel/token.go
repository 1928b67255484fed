// Package cancel provides per-load tokens used to discard results that
// arrive after their view moved on or was torn down.
package cancel

import "sync"

// Token is issued for one load invocation
type Token struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

func newToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel marks the token stale. Further calls are no-ops.
func (t *Token) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cancelled {
		t.cancelled = true
		close(t.done)
	}
}

// Cancelled reports whether the result of this load must be discarded
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done is closed once the token is cancelled
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Scope owns the tokens issued for one view
type Scope struct {
	mu     sync.Mutex
	tokens map[*Token]struct{}
	closed bool
}

// NewScope creates an open scope
func NewScope() *Scope {
	return &Scope{tokens: make(map[*Token]struct{})}
}

// Begin issues a token for a new load. A closed scope returns tokens that
// are already cancelled.
func (s *Scope) Begin() *Token {
	t := newToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		t.Cancel()
		return t
	}
	s.tokens[t] = struct{}{}
	return t
}

// End releases a token once its load has settled
func (s *Scope) End(t *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, t)
}

// Outstanding counts tokens whose load has not settled
func (s *Scope) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// Close cancels every outstanding token; later Begin calls yield
// cancelled tokens.
func (s *Scope) Close() {
	s.mu.Lock()
	tokens := s.tokens
	s.tokens = make(map[*Token]struct{})
	s.closed = true
	s.mu.Unlock()

	for t := range tokens {
		t.Cancel()
	}
}

// Closed reports whether Close has been called
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
