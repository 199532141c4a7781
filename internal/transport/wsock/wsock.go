// Package wsock is the web-socket transport of spec.md §6: one text frame
// per command, newline + "> " prompt framing on output, ping/pong, and
// close-frame handling. New relative to the teacher (whose telnet.go has
// no web equivalent); grounded on gorilla/websocket's standard
// upgrade-then-loop shape.
package wsock

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/command"
	"github.com/port4k/port4k/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const pongWait = 60 * time.Second

// conn adapts a *websocket.Conn to session.Writer: each WriteString call
// becomes one text frame.
type conn struct {
	ws *websocket.Conn
}

func (c *conn) WriteString(s string) error {
	return c.ws.WriteMessage(websocket.TextMessage, []byte(s))
}

func (c *conn) Size() (int, int) { return 80, 24 }

// Handler returns an http.Handler that upgrades each request to a
// websocket connection and runs it through dispatcher.
func Handler(dispatcher *command.Dispatcher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade", zap.Error(err))
			return
		}
		go serve(r.Context(), ws, dispatcher, log)
	}
}

func serve(ctx context.Context, ws *websocket.Conn, dispatcher *command.Dispatcher, log *zap.Logger) {
	defer ws.Close()
	id := ws.RemoteAddr().String()
	sess := session.New(id)
	c := &conn{ws: ws}
	out := session.NewOutputChannel(c)

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	out.System("Welcome to Port4k. Type 'login <name> <password>' or 'register <name> <password>'.")
	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.CloseMessage:
			return
		case websocket.PingMessage:
			_ = ws.WriteMessage(websocket.PongMessage, nil)
			continue
		}

		line := strings.TrimRight(decodeLossy(data), "\r\n")
		if quit := dispatcher.Dispatch(ctx, sess, out, line); quit {
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
		out.SetPrompt("\n> ")
	}
}

// decodeLossy decodes a frame as UTF-8, replacing invalid sequences
// (spec.md §6 "Binary frames are decoded as UTF-8 lossily").
func decodeLossy(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
