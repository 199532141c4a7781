package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/port4k/port4k/internal/domain"
)

type recordingSink struct {
	lines  []string
	system []string
}

func (s *recordingSink) Line(text string)   { s.lines = append(s.lines, text) }
func (s *recordingSink) System(text string) { s.system = append(s.system, text) }

func TestEngineSayAndSysRoundTrip(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	sink := &recordingSink{}
	res := e.Submit(context.Background(), Job{
		Kind:   KindOnCommand,
		Source: `say("hello there") sys("a bell chimes") return true`,
		Output: sink,
	})
	require.NoError(t, res.Err)
	require.True(t, res.Handled())
	require.Equal(t, []string{"hello there"}, sink.lines)
	require.Equal(t, []string{"a bell chimes"}, sink.system)
}

func TestEngineStateGetSetRoundTrip(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	obj := domain.ObjectView{ID: "lever", State: map[string]any{"pulled": false}}
	res := e.Submit(context.Background(), Job{
		Kind:   KindOnObject,
		Source: `local was = state.get("pulled") state.set("pulled", true) return was`,
		Object: &obj,
	})
	require.NoError(t, res.Err)
	require.Equal(t, ValueBool, res.Kind)
	require.False(t, res.Bool)
	require.Equal(t, true, res.Mutations.StateSet["pulled"])
}

func TestEnginePlayerRewardMutationsAccumulate(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	res := e.Submit(context.Background(), Job{
		Kind:   KindOnEnter,
		Source: `player.xp_add(10) player.coins_add(3)`,
	})
	require.NoError(t, res.Err)
	require.Equal(t, 10, res.Mutations.XPDelta)
	require.Equal(t, 3, res.Mutations.CoinsDelta)
}

func TestEngineTimeoutRecoversInterpreterForNextJob(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	res := e.Submit(context.Background(), Job{
		Kind:    KindOnCommand,
		Source:  `while true do end`,
		Timeout: 20 * time.Millisecond,
	})
	require.True(t, res.TimedOut)
	require.ErrorIs(t, res.Err, domain.ErrScriptTimedOut)

	done := make(chan Result, 1)
	go func() {
		done <- e.Submit(context.Background(), Job{Kind: KindOnCommand, Source: `return 42`})
	}()

	select {
	case res2 := <-done:
		require.NoError(t, res2.Err)
		require.Equal(t, ValueInt, res2.Kind)
		require.Equal(t, 42, res2.Int)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not recover within margin after a timed-out job")
	}
}

func TestEngineReplPersistsStateAcrossCalls(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	res1 := e.Submit(context.Background(), Job{Kind: KindRepl, SessionID: "sess-1", Source: `x = 41`})
	require.NoError(t, res1.Err)

	res2 := e.Submit(context.Background(), Job{Kind: KindRepl, SessionID: "sess-1", Source: `return x + 1`})
	require.NoError(t, res2.Err)
	require.Equal(t, ValueInt, res2.Kind)
	require.Equal(t, 42, res2.Int)
}

func TestEngineReplSessionsAreIsolated(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	res1 := e.Submit(context.Background(), Job{Kind: KindRepl, SessionID: "a", Source: `y = 1`})
	require.NoError(t, res1.Err)

	res2 := e.Submit(context.Background(), Job{Kind: KindRepl, SessionID: "b", Source: `return y`})
	require.NoError(t, res2.Err)
	require.Equal(t, ValueNil, res2.Kind)
}

func TestEngineCompileCheckDoesNotExecute(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	sink := &recordingSink{}
	res := e.Submit(context.Background(), Job{Kind: KindCompileCheck, Source: `say("should not run")`, Output: sink})
	require.NoError(t, res.Err)
	require.Empty(t, sink.lines)
}
