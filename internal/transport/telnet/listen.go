// Package telnet adapts the teacher's option-negotiation state machine
// (originally internal/game/telnet.go) into a transport that feeds the
// new session/command pipeline of spec.md §4.1/§6, rather than writing
// world text directly the way the teacher's handleConn did.
package telnet

import (
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/command"
	"github.com/port4k/port4k/internal/session"
)

// Serve accepts connections on ln until ctx is cancelled, running each one
// through newSession/dispatcher. It never returns a non-nil error except
// for a bind-stage failure surfaced by the caller before Serve is called;
// a per-connection read error ends only that connection and is not logged (spec.md
// §7 "Fatal vs recoverable").
func Serve(ctx context.Context, ln net.Listener, dispatcher *command.Dispatcher, log *zap.Logger) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warn("telnet accept", zap.Error(err))
				continue
			}
		}
		go handleConn(ctx, conn, dispatcher, log)
	}
}

func handleConn(ctx context.Context, conn net.Conn, dispatcher *command.Dispatcher, log *zap.Logger) {
	id := conn.RemoteAddr().String()
	sess := session.New(id)
	ts := NewTelnetSession(conn, sess)
	defer ts.Close()

	out := session.NewOutputChannel(ts)

	out.System("Welcome to Port4k. Type 'login <name> <password>' or 'register <name> <password>'.")
	for {
		line, err := ts.ReadLine()
		if err != nil {
			return
		}
		if quit := dispatcher.Dispatch(ctx, sess, out, line); quit {
			return
		}
		out.SetPrompt("> ")
	}
}
