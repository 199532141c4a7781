package telnet

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/port4k/port4k/internal/session"
)

func TestTranslateForTelnet(t *testing.T) {
	input := []byte("Hello\nWorld" + string([]byte{telnetIAC}) + "!")
	got := translateForTelnet(input)
	expected := []byte{'H', 'e', 'l', 'l', 'o', '\r', '\n', 'W', 'o', 'r', 'l', 'd', telnetIAC, telnetIAC, '!'}
	if string(got) != string(expected) {
		t.Fatalf("unexpected translation: %v", got)
	}
}

func TestNormalizeToken(t *testing.T) {
	if got := normalizeToken("Utf-8"); got != "UTF8" {
		t.Fatalf("expected UTF8, got %q", got)
	}
}

func TestEncodeDecodeCharmap(t *testing.T) {
	cm := charmap.CodePage437
	encoded := encodeWithCharmap(cm, []byte("é"))
	if len(encoded) != 1 {
		t.Fatalf("expected single byte encoding, got %d", len(encoded))
	}
	expected, ok := cm.EncodeRune('é')
	if !ok {
		t.Fatalf("failed to encode rune with charmap")
	}
	if encoded[0] != expected {
		t.Fatalf("expected %d, got %d", expected, encoded[0])
	}
	decoded := decodeWithCharmap(cm, encoded)
	if decoded != "é" {
		t.Fatalf("expected to decode to é, got %q", decoded)
	}
}

func TestParseCharsetList(t *testing.T) {
	result := parseCharsetList(";UTF-8; ISO88591; ")
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if result[0] != "UTF-8" || result[1] != "ISO88591" {
		t.Fatalf("unexpected parse result: %#v", result)
	}
}

func TestSanitizeTelnetString(t *testing.T) {
	raw := []byte{0x01, 'H', 'i', 0x7f, '!'}
	if got := sanitizeTelnetString(raw); got != "Hi!" {
		t.Fatalf("unexpected sanitized string: %q", got)
	}
}

func TestHandleWindowSizeUpdatesBoundSession(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()
	go io.Copy(io.Discard, clientConn)

	sess := session.New("conn-1")
	ts := NewTelnetSession(serverConn, sess)
	require.Equal(t, 80, sess.Width(), "starts at the default width until negotiated")

	ts.handleWindowSize([]byte{0, 120, 0, 40})
	require.Equal(t, 120, sess.Width())
}

func TestHandleTerminalTypeUpdatesBoundSession(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	sess := session.New("conn-1")
	ts := NewTelnetSession(serverConn, sess)

	ts.handleTerminalType(append([]byte{telnetSbIs}, []byte("xterm")...))
	require.Equal(t, "XTERM", sess.Terminal())
}
