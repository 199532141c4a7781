// Package session holds the per-connection state machine of spec.md §4.1:
// login phase, the active Cursor, the playtest cursor stack, and the
// script-editor buffer. Sessions are shared between one reader task and
// one writer task per connection (spec.md §5, §9 "Session as a mutable
// shared resource"), grounded on the teacher's accounts.go/world.go
// mutex-guarded record pattern but generalised to a richer state machine.
package session

import (
	"sync"

	"github.com/port4k/port4k/internal/domain"
)

// Phase is the connection's position in the login/command/editor/REPL
// state machine of spec.md §4.1.
type Phase int

const (
	PhasePreLogin Phase = iota
	PhaseAwaitingUsername
	PhaseAwaitingPassword
	PhaseLoggedIn
	PhaseInLuaRepl
	PhaseInEditor
)

// EditorBuffer accumulates a draft script between "@script edit" and the
// terminating ".end" line (spec.md §4.1, §6).
type EditorBuffer struct {
	BlueprintKey string
	RoomKey      domain.RoomKey
	Event        string
	Lines        []string
}

// Session is the mutex-guarded per-connection record. Every field access
// goes through a method that takes the lock for the shortest span needed;
// callers must never hold the lock across a suspension point that can
// block on I/O (spec.md §9).
type Session struct {
	mu sync.RWMutex

	id    string
	phase Phase

	account    domain.Account
	hasAccount bool

	cursor     domain.Cursor
	hasCursor  bool
	prevStack  []domain.Cursor
	pendingUsername string

	editor   *EditorBuffer
	replID   string
	width    int
	terminal string
	hintIdx  map[string]int
}

// New creates a fresh session in PhasePreLogin, identified by id (the
// connection's transport-assigned identifier, used for logging and as the
// script REPL environment key).
func New(id string) *Session {
	return &Session{id: id, phase: PhasePreLogin, replID: id}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

func (s *Session) Account() (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account, s.hasAccount
}

func (s *Session) SetAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = a
	s.hasAccount = true
}

func (s *Session) ClearAccount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = domain.Account{}
	s.hasAccount = false
}

// PendingUsername holds the username typed at PhaseAwaitingPassword,
// bridging the two-line login prompt (spec.md §4.1).
func (s *Session) PendingUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingUsername
}

func (s *Session) SetPendingUsername(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingUsername = u
}

func (s *Session) Cursor() (domain.Cursor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, s.hasCursor
}

func (s *Session) SetCursor(c domain.Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = c
	s.hasCursor = true
}

// PushPlaytest saves the current cursor on the LIFO playtest stack and
// installs next as the active cursor (spec.md §4.2 "Playtest stack").
func (s *Session) PushPlaytest(next domain.Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCursor {
		s.prevStack = append(s.prevStack, s.cursor)
	}
	s.cursor = next
	s.hasCursor = true
}

// PopPlaytest restores the cursor beneath the top of the playtest stack.
// ok is false when the stack is empty (bare "playtest" outside any frame).
func (s *Session) PopPlaytest() (domain.Cursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prevStack) == 0 {
		return domain.Cursor{}, false
	}
	n := len(s.prevStack) - 1
	restored := s.prevStack[n]
	s.prevStack = s.prevStack[:n]
	s.cursor = restored
	s.hasCursor = true
	return restored, true
}

func (s *Session) PlaytestDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prevStack)
}

func (s *Session) BeginEditor(buf EditorBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := buf
	s.editor = &b
}

func (s *Session) Editor() (EditorBuffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.editor == nil {
		return EditorBuffer{}, false
	}
	return *s.editor, true
}

// AppendEditorLine appends one line of script source to the in-progress
// editor buffer (spec.md §4.1 "each non-sentinel input line appended with
// newline to buffer").
func (s *Session) AppendEditorLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return
	}
	s.editor.Lines = append(s.editor.Lines, line)
}

// EndEditor clears the buffer and returns its final contents.
func (s *Session) EndEditor() (EditorBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return EditorBuffer{}, false
	}
	b := *s.editor
	s.editor = nil
	return b, true
}

func (s *Session) ReplID() string { return s.replID }

func (s *Session) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

func (s *Session) SetWidth(w int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = w
}

// Terminal reports the client terminal type negotiated by the transport
// (e.g. via telnet MTTS/TTYPE), or "" if the transport never identified one.
func (s *Session) Terminal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminal
}

func (s *Session) SetTerminal(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal = name
}

// NextHintIndex advances and returns the hint cursor for roomKey, wrapping
// around modulo count (spec.md §3 BlueprintRoom.Hints; the "hint" verb
// cycles one hint per invocation per room).
func (s *Session) NextHintIndex(roomKey string, count int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hintIdx == nil {
		s.hintIdx = make(map[string]int)
	}
	idx := s.hintIdx[roomKey] % count
	s.hintIdx[roomKey] = idx + 1
	return idx
}

// Reset drops cursor, playtest stack, and editor buffer, used on logout
// and on disconnect (spec.md §5 "Cancellation/timeouts").
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCursor = false
	s.cursor = domain.Cursor{}
	s.prevStack = nil
	s.editor = nil
	s.phase = PhasePreLogin
	s.hasAccount = false
	s.account = domain.Account{}
}
