// Package session holds the client-side lifecycle of analysis requests:
// Idle -> Loading -> Success | Error, re-entering Loading on every submit.
//
// Overlapping submits are not ordered. By default the response resolved last
// overwrites the result, whichever request it belongs to. WithStaleGuard
// makes the session drop responses to anything but the latest submit.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agusespa/devassist/internal/highlight"
	"github.com/agusespa/devassist/internal/types"
)

// ErrorPrefix marks a result as an error message.
const ErrorPrefix = "🚨 Error: "

var ErrNoResult = errors.New("no analysis result to copy")

type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is the current phase with the payload that belongs to it. Result
// holds the raw analysis text on Success and the prefixed error message on
// Error; it is empty otherwise.
type State struct {
	Phase  Phase
	Result string
	Seq    uint64
}

// Analyzer performs one analysis round trip.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (string, error)
}

type ClipboardWriter func(text string) error

type Option func(*Session)

func WithStaleGuard() Option {
	return func(s *Session) { s.staleGuard = true }
}

func WithHighlighter(h highlight.Highlighter) Option {
	return func(s *Session) { s.highlighter = h }
}

func WithLanguage(language string) Option {
	return func(s *Session) { s.language = language }
}

type Session struct {
	analyzer    Analyzer
	highlighter highlight.Highlighter
	staleGuard  bool

	mu         sync.Mutex
	code       string
	language   string
	state      State
	issued     uint64
	observers  []func(State)
	pending    []State
	delivering bool
}

func New(analyzer Analyzer, opts ...Option) *Session {
	s := &Session{
		analyzer:    analyzer,
		highlighter: highlight.HTML,
		language:    types.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) SetCode(code string) {
	s.mu.Lock()
	s.code = code
	s.mu.Unlock()
}

func (s *Session) SetLanguage(language string) {
	s.mu.Lock()
	s.language = language
	s.mu.Unlock()
}

// OnChange registers fn to be called with every new state. States reach
// observers one at a time and in the order the transitions happened.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.SessionState{
		Code:     s.code,
		Language: s.language,
		Result:   s.state.Result,
		Loading:  s.state.Phase == Loading,
	}
}

// Ticket tracks one submitted request.
type Ticket struct {
	Seq     uint64
	Kind    types.AnalysisKind
	done    chan struct{}
	applied bool
}

// Done is closed once the response has been handled.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Applied reports whether the response changed the session state. Only
// meaningful after Done is closed.
func (t *Ticket) Applied() bool {
	<-t.done
	return t.applied
}

// Submit enters Loading, captures the current code and language and sends
// the request on its own goroutine. It never blocks on the network and
// nothing cancels the request except ctx.
func (s *Session) Submit(ctx context.Context, kind types.AnalysisKind) *Ticket {
	s.mu.Lock()
	s.issued++
	ticket := &Ticket{Seq: s.issued, Kind: kind, done: make(chan struct{})}
	req := types.AnalysisRequest{Code: s.code, Type: kind.String(), Language: s.language}
	s.transition(State{Phase: Loading, Seq: ticket.Seq})
	s.mu.Unlock()

	s.deliver()

	go func() {
		defer close(ticket.done)

		var text string
		var err error
		if kind.Valid() {
			text, err = s.analyzer.Analyze(ctx, req)
		} else {
			err = fmt.Errorf("%w: unsupported analysis type %q", types.ErrInvalidRequest, kind.String())
		}
		s.resolve(ticket, text, err)
	}()

	return ticket
}

func (s *Session) resolve(ticket *Ticket, text string, err error) {
	s.mu.Lock()
	if s.staleGuard && ticket.Seq < s.issued {
		s.mu.Unlock()
		return
	}

	next := State{Phase: Success, Result: text, Seq: ticket.Seq}
	if err != nil {
		next = State{Phase: Error, Result: ErrorPrefix + errorMessage(err), Seq: ticket.Seq}
	}
	s.transition(next)
	ticket.applied = true
	s.mu.Unlock()

	s.deliver()
}

// transition sets the state and queues it for observers. Callers hold s.mu.
func (s *Session) transition(next State) {
	s.state = next
	if len(s.observers) > 0 {
		s.pending = append(s.pending, next)
	}
}

// deliver hands queued states to observers in transition order. Only one
// goroutine delivers at a time; the others leave their states to it.
func (s *Session) deliver() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true

	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		observers := s.observers
		s.mu.Unlock()

		for _, fn := range observers {
			fn(next)
		}

		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

// Rendered is the result as it should be displayed: highlighted on Success,
// verbatim on Error, empty otherwise.
func (s *Session) Rendered() string {
	state := s.State()
	switch state.Phase {
	case Success:
		if state.Result == "" {
			return ""
		}
		return s.highlighter(state.Result)
	case Error:
		return state.Result
	default:
		return ""
	}
}

// Copy hands the current result to w without changing state.
func (s *Session) Copy(w ClipboardWriter) error {
	result := s.State().Result
	if result == "" {
		return ErrNoResult
	}
	if err := w(result); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return nil
}

// errorMessage keeps engine internals out of the user-facing text.
func errorMessage(err error) string {
	var te *types.TransportError
	var ce *types.CompletionError
	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.As(err, &te):
		return te.UserMessage()
	case errors.As(err, &ce):
		return "analysis failed"
	case errors.Is(err, types.ErrInvalidRequest):
		return err.Error()
	default:
		return "Server error"
	}
}
