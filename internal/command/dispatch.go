package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/logx"
	"github.com/port4k/port4k/internal/script"
	"github.com/port4k/port4k/internal/session"
	"github.com/port4k/port4k/internal/store"
	"github.com/port4k/port4k/internal/world"
)

// RealmLookup resolves a RealmID to its Realm; the Dispatcher needs this
// for every handler that touches the current cursor's realm.
type RealmLookup func(ctx context.Context, id domain.RealmID) (domain.Realm, error)

// Dispatcher wires the store, the script runtime, and a logger into the
// per-command routing of spec.md §4.1: login state machine, editor mode,
// REPL mode, verb table, and the script fallback path. One Dispatcher is
// shared by every session (it is the "registry" handlers borrow, per
// spec.md §9).
type Dispatcher struct {
	Store  store.Store
	Runner *script.Runner
	Log    *zap.Logger

	// Online tracks the process-wide online-user set (spec.md §5 "Shared
	// state"). It is optional: nil leaves "who" reporting only the caller.
	Online OnlineTracker
}

// OnlineTracker is the slice of internal/registry.Registry the Dispatcher
// needs to keep the online-user set in sync with login/logout.
type OnlineTracker interface {
	MarkOnline(id domain.AccountID, username string)
	MarkOffline(id domain.AccountID)
	OnlineUsernames() []string
}

// Dispatch consumes one line of input for sess and writes its effect to
// out. quit reports whether the connection should close (the "quit" verb
// or an unrecoverable read state).
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, out *session.OutputChannel, line string) (quit bool) {
	line = sanitizeLine(line)
	switch sess.Phase() {
	case session.PhaseInEditor:
		d.dispatchEditorLine(sess, out, line)
		return false
	case session.PhaseInLuaRepl:
		d.dispatchReplLine(ctx, sess, out, line)
		return false
	}

	intent := Parse(line)
	if intent.Verb == VerbCustom && intent.Raw == "" {
		return false // blank line in command mode: ignored (spec.md §4.1)
	}

	if intent.Admin {
		return d.dispatchAdmin(ctx, sess, out, intent)
	}

	if sess.Phase() != session.PhaseLoggedIn {
		return d.dispatchPreLogin(ctx, sess, out, intent)
	}

	return d.dispatchLoggedIn(ctx, sess, out, intent)
}

func (d *Dispatcher) dispatchPreLogin(ctx context.Context, sess *session.Session, out *session.OutputChannel, intent Intent) bool {
	switch intent.Verb {
	case VerbLogin:
		if len(intent.Args) < 2 {
			out.System("Usage: login <name> <password>")
			return false
		}
		d.handleLogin(ctx, sess, out, intent.Args[0], intent.Args[1])
		return false
	case VerbRegister:
		if len(intent.Args) < 2 {
			out.System("Usage: register <name> <password>")
			return false
		}
		d.handleRegister(ctx, sess, out, intent.Args[0], intent.Args[1])
		return false
	case VerbQuit:
		return true
	default:
		out.System("Please login or register first.")
		return false
	}
}

func (d *Dispatcher) handleLogin(ctx context.Context, sess *session.Session, out *session.OutputChannel, username, password string) {
	acct, ok := Authenticate(ctx, d.Store, username, password)
	if !ok {
		out.System("Login failed. Check your username and password.")
		return
	}
	realm, roomKey, err := ResolveSpawn(ctx, d.Store, acct)
	if err != nil {
		d.Log.Error("resolve spawn", zap.Error(err), logx.AccountField(acct.Username))
		out.System("Something went wrong.")
		return
	}
	view, err := world.BuildRoomView(ctx, d.Store, realm, acct.ID, roomKey)
	if err != nil {
		d.Log.Error("build room view", zap.Error(err), logx.AccountField(acct.Username))
		out.System("Something went wrong.")
		return
	}

	_ = d.Store.RecordLogin(ctx, acct.ID, acct.LastLogin)
	sess.SetAccount(acct)
	sess.SetPhase(session.PhaseLoggedIn)
	sess.SetCursor(domain.Cursor{RealmID: realm.ID, Room: view, RoomKey: roomKey, AccountID: acct.ID})
	if d.Online != nil {
		d.Online.MarkOnline(acct.ID, acct.Username)
	}

	if acct.ShowMOTD {
		out.System("Welcome back to Port4k.")
	}
	d.describeRoom(out, view)
}

func (d *Dispatcher) handleRegister(ctx context.Context, sess *session.Session, out *session.OutputChannel, username, password string) {
	acct, err := Register(ctx, d.Store, username, password)
	if err != nil {
		out.System(fmt.Sprintf("Registration failed: %s", err))
		return
	}
	out.System(fmt.Sprintf("Account %q created. Use 'login %s <password>' to connect.", acct.Username, acct.Username))
}

func (d *Dispatcher) dispatchLoggedIn(ctx context.Context, sess *session.Session, out *session.OutputChannel, intent Intent) bool {
	cur, ok := sess.Cursor()
	if !ok {
		out.System("You have no cursor. Contact an administrator.")
		return false
	}
	realm, err := d.Store.GetRealm(ctx, cur.RealmID)
	if err != nil {
		out.System("Something went wrong.")
		return false
	}

	h, known := handlers[intent.Verb]
	if !known {
		if d.tryScriptFallback(ctx, sess, out, cur, intent) {
			return false
		}
		out.System("Unknown command.")
		return false
	}
	return h(d, ctx, sess, out, realm, cur, intent)
}

// tryScriptFallback asks the current room's on_command hook whether it
// recognises intent (spec.md §4.1 "fallback path").
func (d *Dispatcher) tryScriptFallback(ctx context.Context, sess *session.Session, out *session.OutputChannel, cur domain.Cursor, intent Intent) bool {
	res, ran := d.Runner.RunOnCommand(ctx, cur, toScriptIntent(intent), out)
	if !ran {
		return false
	}
	if res.Err != nil {
		if res.TimedOut {
			out.System("[script timed out]")
		} else {
			d.Log.Warn("on_command script error", zap.Error(res.Err))
		}
		return true
	}
	d.applyMutations(ctx, sess, res.Mutations)
	return res.Handled()
}

func toScriptIntent(i Intent) script.Intent {
	return script.Intent{Verb: i.Raw, Args: i.Args, Direct: i.Direct, Direction: string(i.Direction)}
}

// applyMutations persists the xp/coin deltas gathered from a script run
// (spec.md §4.3 "mutations are gathered ... and applied by the host after
// the script returns"), clamping both balances at zero. Object state
// written through state:set (m.StateSet) is not persisted.
func (d *Dispatcher) applyMutations(ctx context.Context, sess *session.Session, m script.Mutations) {
	if m.XPDelta == 0 && m.CoinsDelta == 0 {
		return
	}
	acct, ok := sess.Account()
	if !ok {
		return
	}
	acct.XP = domain.ClampNonNegative(acct.XP + m.XPDelta)
	acct.Coins = domain.ClampNonNegative(acct.Coins + m.CoinsDelta)
	if err := d.Store.UpdateAccount(ctx, acct); err == nil {
		sess.SetAccount(acct)
	}
}

func (d *Dispatcher) describeRoom(out *session.OutputChannel, view domain.RoomView) {
	out.Line(fmt.Sprintf("{c:cyan}%s{c}", view.Title))
	out.Line(view.Body)
	if len(view.Exits) > 0 {
		dirs := make([]string, 0, len(view.Exits))
		for _, e := range view.Exits {
			dirs = append(dirs, string(e.Direction))
		}
		out.Line(fmt.Sprintf("Exits: %s", joinWithSpaces(dirs)))
	} else {
		out.Line("Exits: none")
	}
}

func joinWithSpaces(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func (d *Dispatcher) dispatchEditorLine(sess *session.Session, out *session.OutputChannel, line string) {
	if line == ".end" {
		buf, ok := sess.EndEditor()
		sess.SetPhase(session.PhaseLoggedIn)
		if !ok {
			return
		}
		source := joinLines(buf.Lines)
		bpID, err := domain.ParseBlueprintID(buf.BlueprintKey)
		if err != nil {
			out.System("editor: invalid blueprint id")
			return
		}
		if err := d.Store.SaveDraftScript(context.Background(), bpID, buf.RoomKey, buf.Event, source); err != nil {
			out.System(fmt.Sprintf("editor: %s", err))
			return
		}
		out.System("Draft saved. Use '@script publish' to activate it.")
		return
	}
	sess.AppendEditorLine(line)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func (d *Dispatcher) dispatchReplLine(ctx context.Context, sess *session.Session, out *session.OutputChannel, line string) {
	if line == ".quit" || line == ".exit" {
		sess.SetPhase(session.PhaseLoggedIn)
		out.System("Leaving REPL.")
		return
	}
	res := d.Runner.Repl(ctx, sess.ReplID(), line, out)
	if res.Err != nil {
		if res.TimedOut {
			out.System("[script timed out]")
		} else {
			out.System(fmt.Sprintf("error: %s", res.Err))
		}
		return
	}
	switch res.Kind {
	case script.ValueBool:
		out.System(fmt.Sprintf("=> %v", res.Bool))
	case script.ValueInt:
		out.System(fmt.Sprintf("=> %d", res.Int))
	case script.ValueString:
		out.System(fmt.Sprintf("=> %q", res.Str))
	}
}
