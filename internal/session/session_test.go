package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agusespa/devassist/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreAnyFunction("github.com/dlclark/regexp2.runClock"),
	)
}

type reply struct {
	text string
	err  error
}

// gatedAnalyzer blocks each request until its analysis type is released.
type gatedAnalyzer struct {
	mu    sync.Mutex
	calls []types.AnalysisRequest
	gates map[string]chan reply
}

func newGatedAnalyzer(kinds ...types.AnalysisKind) *gatedAnalyzer {
	g := &gatedAnalyzer{gates: make(map[string]chan reply)}
	for _, k := range kinds {
		g.gates[k.String()] = make(chan reply, 1)
	}
	return g
}

func (g *gatedAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	gate := g.gates[req.Type]
	g.mu.Unlock()

	r := <-gate
	return r.text, r.err
}

func (g *gatedAnalyzer) release(kind types.AnalysisKind, text string, err error) {
	g.gates[kind.String()] <- reply{text: text, err: err}
}

func (g *gatedAnalyzer) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fixedAnalyzer struct {
	text string
	err  error
}

func (f fixedAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (string, error) {
	return f.text, f.err
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var phases []Phase
	for _, s := range r.states {
		phases = append(phases, s.Phase)
	}
	return phases
}

func wait(t *testing.T, ticket *Ticket) {
	t.Helper()
	select {
	case <-ticket.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("request %d never resolved", ticket.Seq)
	}
}

func TestNew_InitialState(t *testing.T) {
	s := New(fixedAnalyzer{})

	assert.Equal(t, State{Phase: Idle}, s.State())
	assert.Equal(t, types.SessionState{Language: "typescript"}, s.Snapshot())
	assert.Equal(t, "", s.Rendered())
}

func TestSubmit_Success(t *testing.T) {
	s := New(fixedAnalyzer{text: "OK RESULT"}, WithHighlighter(strings.ToUpper))
	rec := &recorder{}
	s.OnChange(rec.record)
	s.SetCode("print(1)")
	s.SetLanguage("python")

	ticket := s.Submit(context.Background(), types.KindExplain)
	wait(t, ticket)

	if diff := cmp.Diff([]Phase{Loading, Success}, rec.phases()); diff != "" {
		t.Errorf("phase sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, State{Phase: Success, Result: "OK RESULT", Seq: 1}, s.State())
	assert.Equal(t, types.SessionState{Code: "print(1)", Language: "python", Result: "OK RESULT"}, s.Snapshot())
	assert.True(t, ticket.Applied())
}

func TestSubmit_LoadingClearsPreviousResult(t *testing.T) {
	g := newGatedAnalyzer(types.KindReview, types.KindRefactor)
	s := New(g)

	first := s.Submit(context.Background(), types.KindReview)
	g.release(types.KindReview, "first result", nil)
	wait(t, first)
	require.Equal(t, "first result", s.State().Result)

	second := s.Submit(context.Background(), types.KindRefactor)
	assert.Equal(t, State{Phase: Loading, Seq: 2}, s.State())
	assert.True(t, s.Snapshot().Loading)
	assert.Equal(t, "", s.Rendered())

	g.release(types.KindRefactor, "second result", nil)
	wait(t, second)
	assert.Equal(t, "second result", s.State().Result)
}

func TestSubmit_CompletionError(t *testing.T) {
	internals := errors.New("upstream 401: invalid api key sk-live-123")
	s := New(fixedAnalyzer{err: types.NewCompletionError("openai", internals)})
	rec := &recorder{}
	s.OnChange(rec.record)

	wait(t, s.Submit(context.Background(), types.KindReview))

	state := s.State()
	assert.Equal(t, Error, state.Phase)
	assert.Equal(t, []Phase{Loading, Error}, rec.phases())
	assert.True(t, strings.HasPrefix(state.Result, ErrorPrefix))
	assert.NotEqual(t, ErrorPrefix, state.Result)
	assert.NotContains(t, state.Result, "sk-live-123")
	assert.NotContains(t, state.Result, internals.Error())
	assert.False(t, s.Snapshot().Loading)
}

func TestSubmit_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"server message", &types.TransportError{StatusCode: 502, Message: "analysis failed"}, "🚨 Error: analysis failed"},
		{"bare status", &types.TransportError{StatusCode: 500}, "🚨 Error: Internal Server Error"},
		{"unreachable", &types.TransportError{Err: errors.New("dial tcp")}, "🚨 Error: Server unreachable"},
		{"cancelled", context.Canceled, "🚨 Error: request cancelled"},
		{"transport deadline", &types.TransportError{Err: fmt.Errorf("failed to make request: %w", context.DeadlineExceeded)}, "🚨 Error: request timed out"},
		{"unknown", errors.New("boom"), "🚨 Error: Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(fixedAnalyzer{err: tt.err})
			wait(t, s.Submit(context.Background(), types.KindOptimize))

			assert.Equal(t, Error, s.State().Phase)
			assert.Equal(t, tt.expected, s.State().Result)
			assert.Equal(t, tt.expected, s.Rendered(), "errors are shown verbatim")
		})
	}
}

func TestSubmit_InvalidKindNeverReachesAnalyzer(t *testing.T) {
	g := newGatedAnalyzer()
	s := New(g)

	wait(t, s.Submit(context.Background(), types.AnalysisKind(99)))

	assert.Equal(t, 0, g.callCount())
	assert.Equal(t, Error, s.State().Phase)
	assert.Contains(t, s.State().Result, "unsupported analysis type")
}

func TestSubmit_CapturesInputAtSubmitTime(t *testing.T) {
	g := newGatedAnalyzer(types.KindExplain)
	s := New(g)
	s.SetCode("x = 1")
	s.SetLanguage("python")

	ticket := s.Submit(context.Background(), types.KindExplain)
	s.SetCode("edited while loading")
	s.SetLanguage("ruby")
	g.release(types.KindExplain, "done", nil)
	wait(t, ticket)

	require.Len(t, g.calls, 1)
	assert.Equal(t, types.AnalysisRequest{Code: "x = 1", Type: "explain", Language: "python"}, g.calls[0])
	assert.Equal(t, "edited while loading", s.Snapshot().Code)
}

// Overlapping submits are not ordered: the response resolved last wins, even
// when it belongs to the request issued first.
func TestSubmit_LastResolvedWins(t *testing.T) {
	g := newGatedAnalyzer(types.KindReview, types.KindExplain)
	s := New(g)

	a := s.Submit(context.Background(), types.KindReview)
	b := s.Submit(context.Background(), types.KindExplain)

	g.release(types.KindExplain, "result B", nil)
	wait(t, b)
	assert.Equal(t, "result B", s.Snapshot().Result)

	g.release(types.KindReview, "result A", nil)
	wait(t, a)
	assert.Equal(t, "result A", s.Snapshot().Result)
	assert.Equal(t, State{Phase: Success, Result: "result A", Seq: 1}, s.State())
	assert.True(t, a.Applied())
	assert.True(t, b.Applied())
}

func TestSubmit_StaleGuardKeepsLatest(t *testing.T) {
	g := newGatedAnalyzer(types.KindReview, types.KindExplain)
	s := New(g, WithStaleGuard())

	a := s.Submit(context.Background(), types.KindReview)
	b := s.Submit(context.Background(), types.KindExplain)

	g.release(types.KindExplain, "result B", nil)
	wait(t, b)
	g.release(types.KindReview, "result A", nil)
	wait(t, a)

	assert.Equal(t, State{Phase: Success, Result: "result B", Seq: 2}, s.State())
	assert.False(t, a.Applied())
	assert.True(t, b.Applied())
}

func TestSubmit_StaleGuardKeepsLoadingUntilLatest(t *testing.T) {
	g := newGatedAnalyzer(types.KindReview, types.KindExplain)
	s := New(g, WithStaleGuard())

	a := s.Submit(context.Background(), types.KindReview)
	b := s.Submit(context.Background(), types.KindExplain)

	g.release(types.KindReview, "result A", nil)
	wait(t, a)
	assert.Equal(t, State{Phase: Loading, Seq: 2}, s.State())

	g.release(types.KindExplain, "", errors.New("late failure"))
	wait(t, b)
	assert.Equal(t, Error, s.State().Phase)
}

func TestOnChange_DeliversInTransitionOrder(t *testing.T) {
	g := newGatedAnalyzer(types.KindReview, types.KindExplain)
	s := New(g)

	paused := make(chan struct{})
	resume := make(chan struct{})
	rec := &recorder{}
	first := true
	s.OnChange(func(state State) {
		if state.Phase == Success && first {
			first = false
			close(paused)
			<-resume
		}
		rec.record(state)
	})

	a := s.Submit(context.Background(), types.KindReview)
	g.release(types.KindReview, "result A", nil)
	<-paused

	// A's Success is mid-delivery while B enters Loading.
	b := s.Submit(context.Background(), types.KindExplain)
	close(resume)
	wait(t, a)

	if diff := cmp.Diff([]Phase{Loading, Success, Loading}, rec.phases()); diff != "" {
		t.Errorf("phase sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Loading, s.State().Phase)

	g.release(types.KindExplain, "result B", nil)
	wait(t, b)
	assert.Equal(t, []Phase{Loading, Success, Loading, Success}, rec.phases())
}

func TestRendered_HighlightsOnlyAtRender(t *testing.T) {
	raw := "func main() {}"
	s := New(fixedAnalyzer{text: raw}, WithHighlighter(func(text string) string {
		return "<mark>" + text + "</mark>"
	}))

	wait(t, s.Submit(context.Background(), types.KindRefactor))

	assert.Equal(t, "<mark>func main() {}</mark>", s.Rendered())
	assert.Equal(t, raw, s.Snapshot().Result)
	assert.Equal(t, raw, s.State().Result)
}

func TestRendered_DefaultHighlighterEscapes(t *testing.T) {
	s := New(fixedAnalyzer{text: "<script>alert(1)</script>"})
	wait(t, s.Submit(context.Background(), types.KindReview))

	assert.NotContains(t, s.Rendered(), "<script>")
	assert.Equal(t, "<script>alert(1)</script>", s.State().Result)
}

func TestCopy(t *testing.T) {
	s := New(fixedAnalyzer{text: "copy me"})

	var copied []string
	writer := func(text string) error {
		copied = append(copied, text)
		return nil
	}

	assert.ErrorIs(t, s.Copy(writer), ErrNoResult)
	assert.Empty(t, copied)

	wait(t, s.Submit(context.Background(), types.KindExplain))
	before := s.State()

	require.NoError(t, s.Copy(writer))
	assert.Equal(t, []string{"copy me"}, copied)
	assert.Equal(t, before, s.State(), "copy must not transition the session")

	err := s.Copy(func(string) error { return errors.New("no clipboard") })
	assert.ErrorContains(t, err, "copy failed")
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
