package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/port4k/port4k/internal/domain"
)

func TestValidateSizeBoundary(t *testing.T) {
	atLimit := "--" + strings.Repeat("a", MaxSourceBytes-2)
	require.Len(t, atLimit, MaxSourceBytes)
	require.NoError(t, Validate(atLimit))

	overLimit := atLimit + "a"
	require.Len(t, overLimit, MaxSourceBytes+1)
	err := Validate(overLimit)
	require.ErrorIs(t, err, domain.ErrScriptTooLarge)
}

func TestValidateBlacklistIsCaseInsensitive(t *testing.T) {
	err := Validate(`local f = IO.open("/etc/passwd")`)
	require.ErrorIs(t, err, domain.ErrScriptBlacklisted)
}

func TestValidateBlacklistCatchesEachToken(t *testing.T) {
	for _, src := range []string{
		`require("socket")`,
		`dofile("x.lua")`,
		`loadfile("x.lua")`,
		`loadstring("return 1")()`,
		`local p = package.loaded`,
		`os.execute("rm -rf /")`,
		`debug.getinfo(1)`,
		`collectgarbage("collect")`,
	} {
		require.ErrorIsf(t, Validate(src), domain.ErrScriptBlacklisted, "source: %s", src)
	}
}

func TestValidateAllowsOrdinarySource(t *testing.T) {
	require.NoError(t, Validate(`say("hello")
return true`))
}

func TestCompileCheckRejectsSyntaxError(t *testing.T) {
	err := CompileCheck("say(")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrScriptCompileFailed)
}

func TestCompileCheckAcceptsValidSource(t *testing.T) {
	require.NoError(t, CompileCheck(`local x = 1
return x == 1`))
}

func TestCompileCheckRejectsBlacklistedSourceBeforeCompiling(t *testing.T) {
	err := CompileCheck(`os.remove("/tmp/x")`)
	require.ErrorIs(t, err, domain.ErrScriptBlacklisted)
}

func TestSandboxedStateHasNoFileAccess(t *testing.T) {
	L := newSandboxedState()
	defer L.Close()

	fn, err := L.LoadString(`return io`)
	require.NoError(t, err)
	L.Push(fn)
	require.NoError(t, L.PCall(0, 1, nil))
	require.Equal(t, "nil", L.Get(-1).Type().String())
}
