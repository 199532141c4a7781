package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/port4k/port4k/internal/domain"
)

func TestParseQuotedTokenIsAtomic(t *testing.T) {
	intent := Parse(`examine "rusty key"`)
	require.Equal(t, VerbExamine, intent.Verb)
	require.Equal(t, "rusty key", intent.Direct)
}

func TestParseBareDirectionActsAsGo(t *testing.T) {
	for _, word := range []string{"n", "north", "NORTH", "North"} {
		intent := Parse(word)
		require.Equal(t, VerbGo, intent.Verb)
		require.True(t, intent.HasDir)
		require.Equal(t, domain.North, intent.Direction)
	}
}

func TestParseGoVerbWithDirectionArg(t *testing.T) {
	intent := Parse("go south")
	require.Equal(t, VerbGo, intent.Verb)
	require.True(t, intent.HasDir)
	require.Equal(t, domain.South, intent.Direction)
}

func TestParseAdminCommandBypassesVerbTable(t *testing.T) {
	intent := Parse(`@bp new "My World"`)
	require.True(t, intent.Admin)
	require.Equal(t, "@bp", intent.Raw)
	require.Equal(t, []string{"new", "My World"}, intent.Args)
}

func TestParseEmptyLine(t *testing.T) {
	intent := Parse("   ")
	require.Equal(t, VerbCustom, intent.Verb)
	require.Empty(t, intent.Raw)
}

func TestParseUnknownVerbIsCustom(t *testing.T) {
	intent := Parse("frobnicate widget")
	require.Equal(t, VerbCustom, intent.Verb)
	require.Equal(t, "frobnicate", intent.Raw)
	require.Equal(t, "widget", intent.Direct)
}

func TestParseSingleQuoteGroupsWithoutEscapes(t *testing.T) {
	intent := Parse(`use 'the big lever'`)
	require.Equal(t, "the big lever", intent.Direct)
}

func TestParseBalanceAndHintVerbs(t *testing.T) {
	require.Equal(t, VerbBalance, Parse("balance").Verb)
	require.Equal(t, VerbBalance, Parse("bal").Verb)
	require.Equal(t, VerbHint, Parse("hint").Verb)
}
