package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/port4k/port4k/internal/domain"
)

func TestNewSessionStartsInPreLogin(t *testing.T) {
	s := New("conn-1")
	require.Equal(t, PhasePreLogin, s.Phase())
	require.Equal(t, "conn-1", s.ID())
	_, ok := s.Account()
	require.False(t, ok)
}

func TestSetAccountMovesIntoLoggedInPhase(t *testing.T) {
	s := New("conn-1")
	s.SetAccount(domain.Account{Username: "rin"})
	s.SetPhase(PhaseLoggedIn)

	acct, ok := s.Account()
	require.True(t, ok)
	require.Equal(t, "rin", acct.Username)
	require.Equal(t, PhaseLoggedIn, s.Phase())
}

func TestPlaytestStackPushPopRestoresPriorCursor(t *testing.T) {
	s := New("conn-1")
	live := domain.Cursor{RoomKey: "cell_block"}
	s.SetCursor(live)

	draft := domain.Cursor{RoomKey: "draft_room"}
	s.PushPlaytest(draft)
	require.Equal(t, 1, s.PlaytestDepth())
	cur, _ := s.Cursor()
	require.Equal(t, domain.RoomKey("draft_room"), cur.RoomKey)

	restored, ok := s.PopPlaytest()
	require.True(t, ok)
	require.Equal(t, domain.RoomKey("cell_block"), restored.RoomKey)
	require.Equal(t, 0, s.PlaytestDepth())
}

func TestPopPlaytestOnEmptyStackReportsFalse(t *testing.T) {
	s := New("conn-1")
	_, ok := s.PopPlaytest()
	require.False(t, ok)
}

func TestEditorBufferAccumulatesLinesUntilEnd(t *testing.T) {
	s := New("conn-1")
	s.BeginEditor(EditorBuffer{BlueprintKey: "bp-1", RoomKey: "cell_block", Event: "on_enter"})
	s.SetPhase(PhaseInEditor)

	s.AppendEditorLine("sys.say('hi')")
	s.AppendEditorLine("player.xp_add(1)")

	buf, ok := s.EndEditor()
	require.True(t, ok)
	require.Equal(t, []string{"sys.say('hi')", "player.xp_add(1)"}, buf.Lines)

	_, ok = s.Editor()
	require.False(t, ok)
}

func TestNextHintIndexCyclesAndWraps(t *testing.T) {
	s := New("conn-1")
	require.Equal(t, 0, s.NextHintIndex("cell_block", 3))
	require.Equal(t, 1, s.NextHintIndex("cell_block", 3))
	require.Equal(t, 2, s.NextHintIndex("cell_block", 3))
	require.Equal(t, 0, s.NextHintIndex("cell_block", 3), "wraps back to the first hint")
}

func TestNextHintIndexTracksEachRoomIndependently(t *testing.T) {
	s := New("conn-1")
	require.Equal(t, 0, s.NextHintIndex("a", 2))
	require.Equal(t, 0, s.NextHintIndex("b", 5))
	require.Equal(t, 1, s.NextHintIndex("a", 2))
}

func TestResetClearsAccountCursorAndEditor(t *testing.T) {
	s := New("conn-1")
	s.SetAccount(domain.Account{Username: "rin"})
	s.SetCursor(domain.Cursor{RoomKey: "cell_block"})
	s.SetPhase(PhaseLoggedIn)
	s.BeginEditor(EditorBuffer{Event: "on_enter"})

	s.Reset()

	require.Equal(t, PhasePreLogin, s.Phase())
	_, hasAccount := s.Account()
	require.False(t, hasAccount)
	_, hasCursor := s.Cursor()
	require.False(t, hasCursor)
	_, hasEditor := s.Editor()
	require.False(t, hasEditor)
}
