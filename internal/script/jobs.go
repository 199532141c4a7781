package script

import (
	"time"

	"github.com/port4k/port4k/internal/domain"
)

// Kind discriminates the LuaJob variants of spec.md §4.3. There is no
// generic "run arbitrary code" entry point from untrusted callers (spec.md
// §9): every kind here carries only copy-safe data.
type Kind int

const (
	KindOnEnter Kind = iota
	KindOnCommand
	KindOnObject
	KindRepl
	KindCompileCheck
)

// Intent mirrors the parser's command.Intent without importing the
// command package (which itself depends on script for dispatch), per
// spec.md's Glossary definition of "Intent".
type Intent struct {
	Verb      string
	Args      []string
	Direct    string
	Direction string
}

// OutputSink is the narrow slice of the session's output channel exposed
// to scripts as say()/sys() (spec.md §4.1, §4.3).
type OutputSink interface {
	Line(text string)
	System(text string)
}

// Job is a single unit of work submitted to the interpreter thread. The
// async caller pushes a Job and awaits Reply over a one-shot channel
// (spec.md §4.3 "Threading model").
type Job struct {
	Kind Kind

	SessionID string // used to key the persistent REPL environment
	Source    string

	Cursor    domain.Cursor
	AccountID domain.AccountID
	Intent    Intent
	Object    *domain.ObjectView

	Output OutputSink

	Timeout time.Duration

	Reply chan Result
}

// ValueKind discriminates Result.Value's dynamic type per spec.md §4.3
// "Reply value types: boolean (handled?), integer (narrow numeric),
// string (narrative), or nil."
type ValueKind int

const (
	ValueNil ValueKind = iota
	ValueBool
	ValueInt
	ValueString
)

// Mutations are gathered from host-bridge calls during a script run and
// applied by the caller after the script returns (spec.md §4.3 "Host
// bridge"): state:set values, and clamped xp/coin deltas.
type Mutations struct {
	StateSet   map[string]any
	XPDelta    int
	CoinsDelta int
}

// Result is the reply delivered over a Job's one-shot channel.
type Result struct {
	Kind      ValueKind
	Bool      bool
	Int       int
	Str       string
	TimedOut  bool
	Err       error
	Mutations Mutations
}

// Handled reports the boolean reply a fallback on_command hook uses to
// decide whether the command was handled (spec.md §4.1 "fallback path").
func (r Result) Handled() bool {
	return r.Kind == ValueBool && r.Bool
}
