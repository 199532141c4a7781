package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeLineStripsControlCharsAndCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "look north", sanitizeLine("look\tnorth"))
	require.Equal(t, "say hi", sanitizeLine("say hi\r"))
	require.Equal(t, "quit", sanitizeLine("qu\x07it"))
}

func TestSanitizeLineLeavesPlainInputUnchanged(t *testing.T) {
	require.Equal(t, "look", sanitizeLine("look"))
	require.Equal(t, "", sanitizeLine(""))
}
