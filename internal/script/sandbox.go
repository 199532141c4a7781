// Package script is the single-threaded embedded Lua-dialect interpreter
// of spec.md §4.3, grounded on the per-zone sandboxed VM pattern of
// _examples/other_examples' cory-johannsen-mud scripting manager (which
// pairs gopher-lua with exactly this job-queue/host-bridge shape for a
// server of this kind), adapted from the teacher's yaegi-based NPC script
// engine (internal/game/npc_scripts.go) into a single dedicated
// interpreter goroutine per spec.md §5.
package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/port4k/port4k/internal/domain"
)

// MaxSourceBytes is the import-time size cap from spec.md §4.3 and the
// boundary scenario of spec.md §8 ("Script size at exactly 65,536 bytes:
// accept; at 65,537: reject").
const MaxSourceBytes = 65536

// blacklistedTokens is matched case-insensitively as a substring search
// (spec.md §4.3, §8 "IO.open rejected").
var blacklistedTokens = []string{
	"require", "dofile", "loadfile", "loadstring", "package",
	"io.", "os.", "debug.", "ffi", "collectgarbage", "setfenv", "getfenv",
}

// Validate applies the size cap and token blacklist that every script
// chunk must pass before it is ever compiled or executed (spec.md §4.3).
func Validate(source string) error {
	if len(source) > MaxSourceBytes {
		return domain.ErrScriptTooLarge
	}
	lower := strings.ToLower(source)
	for _, tok := range blacklistedTokens {
		if strings.Contains(lower, tok) {
			return domain.ErrScriptBlacklisted
		}
	}
	return nil
}

// newSandboxedState creates a fresh interpreter state without gopher-lua's
// default library set — no io, os, package or debug library, so no file,
// process, or network access (spec.md §4.3 "Isolation"). Only the base
// library (for language primitives like pairs/ipairs/tostring), the table,
// string and math libraries, and the narrow host API registered by the
// caller are available.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(pair.fn), NRet: 0, Protect: true}, lua.LString(pair.name)); err != nil {
			// Opening a built-in base library can't fail in practice; if it
			// ever does, scripts simply run without that helper table.
			continue
		}
	}
	// Remove the sliver of the base library that still reaches the host:
	// dofile/loadfile/load are registered by OpenBase but are blocked again
	// here as defense in depth alongside the source-level blacklist.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// CompileCheck compiles source in a disposable interpreter and discards
// the result, catching syntax errors before any player can trigger them
// (spec.md §4.3 "Compilation", used by the import pipeline).
func CompileCheck(source string) error {
	if err := Validate(source); err != nil {
		return err
	}
	L := newSandboxedState()
	defer L.Close()
	if _, err := L.LoadString(source); err != nil {
		return wrapCompileError(err)
	}
	return nil
}

func wrapCompileError(err error) error {
	return &compileError{err}
}

type compileError struct{ err error }

func (e *compileError) Error() string { return "compile: " + e.err.Error() }
func (e *compileError) Unwrap() error { return domain.ErrScriptCompileFailed }
