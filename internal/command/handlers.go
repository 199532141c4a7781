package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/session"
	"github.com/port4k/port4k/internal/world"
)

// handlerFunc is a logged-in verb handler. It returns true when the
// connection should close (only the Quit handler does).
type handlerFunc func(d *Dispatcher, ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool

var handlers = map[Verb]handlerFunc{
	VerbHelp:      (*Dispatcher).handleHelp,
	VerbLook:      (*Dispatcher).handleLook,
	VerbExamine:   (*Dispatcher).handleExamine,
	VerbSearch:    (*Dispatcher).handleExamine,
	VerbTake:      (*Dispatcher).handleTake,
	VerbOpen:      (*Dispatcher).handleLockVerb,
	VerbClose:     (*Dispatcher).handleLockVerb,
	VerbUnlock:    (*Dispatcher).handleLockVerb,
	VerbLock:      (*Dispatcher).handleLockVerb,
	VerbUse:       (*Dispatcher).handleUse,
	VerbPut:       (*Dispatcher).handleUse,
	VerbTalk:      (*Dispatcher).handleUse,
	VerbGo:        (*Dispatcher).handleGo,
	VerbInventory: (*Dispatcher).handleInventory,
	VerbQuit:      (*Dispatcher).handleQuit,
	VerbWho:       (*Dispatcher).handleWho,
	VerbLogout:    (*Dispatcher).handleLogout,
	VerbLuaRepl:   (*Dispatcher).handleLuaRepl,
	VerbBalance:   (*Dispatcher).handleBalance,
	VerbHint:      (*Dispatcher).handleHint,
}

func (d *Dispatcher) handleHelp(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	out.Line("Commands: look, examine <obj>, take <item> [n], go <dir>, use <obj>, " +
		"inventory, talk <obj>, balance, hint, who, logout, quit, lua")
	return false
}

func (d *Dispatcher) handleLook(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	d.describeRoom(out, cur.Room)
	return false
}

func (d *Dispatcher) handleExamine(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	if intent.Direct == "" {
		out.System("Examine what?")
		return false
	}
	id, ok := world.ResolveNoun(cur.Room, intent.Direct)
	if !ok {
		out.System("You don't see that here.")
		return false
	}
	for _, obj := range cur.Room.Objects {
		if obj.ID == id {
			if obj.HasExamine {
				out.Line(obj.Examine)
			} else {
				out.Line(obj.Description)
			}
			return false
		}
	}
	out.System("You don't see that here.")
	return false
}

// handleTake implements "take coin [n]" against the race-free loot pickup
// of spec.md §4.5; any other direct object is reported as not takeable
// (object pickup into an inventory is outside spec.md's scope).
func (d *Dispatcher) handleTake(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	if len(intent.Args) == 0 {
		out.System("Take what?")
		return false
	}
	item := strings.ToLower(intent.Args[0])
	if item != "coin" && item != "coins" {
		out.System("You can't take that.")
		return false
	}
	want := 1
	if len(intent.Args) > 1 {
		if n, err := strconv.Atoi(intent.Args[1]); err == nil {
			want = n
		}
	}
	claimed, err := d.Store.PickupCoins(ctx, cur.RealmID, cur.RoomKey, "coin", cur.AccountID, want)
	if err != nil {
		out.System("Something went wrong.")
		return false
	}
	if claimed == 0 {
		out.System("There are no coins to pick up.")
		return false
	}
	out.Line(fmt.Sprintf("You pick up %d coin(s).", claimed))
	if acct, ok := sess.Account(); ok {
		acct.Coins = domain.ClampNonNegative(acct.Coins + claimed)
		sess.SetAccount(acct)
	}
	return false
}

// handleLockVerb routes open/close/unlock/lock through the object's
// on_use script, since lock state belongs to blueprint exits/objects and
// spec.md leaves per-verb lock semantics to authored scripts.
func (d *Dispatcher) handleLockVerb(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	return d.handleUse(ctx, sess, out, realm, cur, intent)
}

func (d *Dispatcher) handleUse(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	if intent.Direct == "" {
		out.System("Use what?")
		return false
	}
	id, ok := world.ResolveNoun(cur.Room, intent.Direct)
	if !ok {
		out.System("You don't see that here.")
		return false
	}
	var obj domain.ObjectView
	for _, o := range cur.Room.Objects {
		if o.ID == id {
			obj = o
			break
		}
	}
	if !obj.HasOnUse {
		out.System("Nothing happens.")
		return false
	}
	bp, err := d.Store.GetRealm(ctx, cur.RealmID)
	if err != nil {
		out.System("Something went wrong.")
		return false
	}
	room, err := d.Store.GetRoom(ctx, bp.BlueprintID, cur.RoomKey)
	if err != nil {
		out.System("Something went wrong.")
		return false
	}
	source := room.Objects[indexOfObject(room.Objects, id)].OnUse.Source
	res := d.Runner.RunOnUse(ctx, cur, obj, source, toScriptIntent(intent), out)
	if res.Err != nil {
		if res.TimedOut {
			out.System("[script timed out]")
		} else {
			out.System("Something went wrong.")
		}
		return false
	}
	d.applyMutations(ctx, sess, res.Mutations)
	return false
}

func indexOfObject(objs []domain.BlueprintObject, id domain.ObjectID) int {
	for i, o := range objs {
		if o.ID == id {
			return i
		}
	}
	return 0
}

func (d *Dispatcher) handleGo(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	if !intent.HasDir {
		out.System("Go where?")
		return false
	}
	next, err := world.Move(ctx, d.Store, d.Runner, realm, cur, intent.Direction)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSuchExit):
			out.System("You can't go that way.")
		case errors.Is(err, domain.ErrExitLocked):
			out.System("The way is locked.")
		case errors.Is(err, domain.ErrBlocked):
			out.System("Something stops you.")
		default:
			d.Log.Warn("move failed", zap.Error(err))
			out.System("Something went wrong.")
		}
		return false
	}
	sess.SetCursor(next)
	if acct, ok := sess.Account(); ok {
		acct.HasCurrent = true
		acct.CurrentRealmID = next.RealmID
		acct.CurrentRoomID = next.RoomKey
		if err := d.Store.UpdateAccount(ctx, acct); err == nil {
			sess.SetAccount(acct)
		}
	}
	d.describeRoom(out, next.Room)
	return false
}

func (d *Dispatcher) handleInventory(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	acct, ok := sess.Account()
	if !ok {
		out.System("Not logged in.")
		return false
	}
	out.Line(fmt.Sprintf("Health: %d  XP: %d  Coins: %d", acct.Health, acct.XP, acct.Coins))
	return false
}

func (d *Dispatcher) handleQuit(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	out.System("Goodbye.")
	if d.Online != nil {
		d.Online.MarkOffline(cur.AccountID)
	}
	return true
}

// handleWho lists every account the registry's online-user set knows
// about; with no Online tracker wired it falls back to just the caller.
func (d *Dispatcher) handleWho(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	var names []string
	if d.Online != nil {
		names = d.Online.OnlineUsernames()
	}
	if len(names) == 0 {
		if acct, ok := sess.Account(); ok {
			names = []string{acct.Username}
		}
	}
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	out.Table([]string{"Name"}, rows)
	return false
}

func (d *Dispatcher) handleLogout(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	if d.Online != nil {
		d.Online.MarkOffline(cur.AccountID)
	}
	sess.Reset()
	out.System("You have logged out.")
	return false
}

// handleBalance reports the account's coin/xp/health counters (supplement
// from the original implementation's balance command, not in spec.md's
// verb table but an obvious companion to the loot economy of spec.md §4.5).
func (d *Dispatcher) handleBalance(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	acct, ok := sess.Account()
	if !ok {
		out.System("Not logged in.")
		return false
	}
	out.Line(fmt.Sprintf("Coins: %d  XP: %d  Health: %d", acct.Coins, acct.XP, acct.Health))
	return false
}

// handleHint cycles through the current room's authored hints one at a
// time, wrapping around (supplement from the original implementation's
// hint command, carried because spec.md §3 defines BlueprintRoom.Hints
// without specifying how a player reads them).
func (d *Dispatcher) handleHint(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	bp, err := d.Store.GetRealm(ctx, cur.RealmID)
	if err != nil {
		out.System("Something went wrong.")
		return false
	}
	room, err := d.Store.GetRoom(ctx, bp.BlueprintID, cur.RoomKey)
	if err != nil {
		out.System("Something went wrong.")
		return false
	}
	if len(room.Hints) == 0 {
		out.System("There are no hints here.")
		return false
	}
	idx := sess.NextHintIndex(string(cur.RoomKey), len(room.Hints))
	out.Line(room.Hints[idx])
	return false
}

func (d *Dispatcher) handleLuaRepl(ctx context.Context, sess *session.Session, out *session.OutputChannel, realm domain.Realm, cur domain.Cursor, intent Intent) bool {
	sess.SetPhase(session.PhaseInLuaRepl)
	out.System("Entering Lua REPL. Type '.quit' to leave.")
	return false
}
