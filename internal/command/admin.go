package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/session"
	"github.com/port4k/port4k/internal/world"
)

// dispatchAdmin implements the "@..." administrative command tree of
// spec.md §6, using the UUID-based blueprint tree per spec.md §9's Open
// Question resolution (the string-key tree from the original source's
// commands/bp.rs is not carried forward).
func (d *Dispatcher) dispatchAdmin(ctx context.Context, sess *session.Session, out *session.OutputChannel, intent Intent) bool {
	acct, loggedIn := sess.Account()
	if !loggedIn {
		out.System("You must be logged in.")
		return false
	}
	if acct.Role != domain.RoleAdmin && acct.Role != domain.RoleBuilder {
		out.System("Permission denied.")
		return false
	}

	switch intent.Raw {
	case "@bp":
		d.adminBlueprint(ctx, sess, out, intent.Args)
	case "@script":
		d.adminScript(ctx, sess, out, intent.Args)
	case "@debug":
		d.adminDebug(sess, out, intent.Args)
	case "@playtest":
		d.adminPlaytest(ctx, sess, out, intent.Args)
	default:
		out.System("Unknown administrative command.")
	}
	return false
}

func usageErr(out *session.OutputChannel, usage string) {
	out.System("Usage: " + usage)
}

// splitBPRoom splits a "<bp-uuid>:<room-key>" reference (spec.md §6).
func splitBPRoom(ref string) (domain.BlueprintID, domain.RoomKey, error) {
	parts := strings.SplitN(ref, ":", 2)
	if len(parts) != 2 {
		return domain.BlueprintID{}, "", fmt.Errorf("%w: expected <bp>:<room>", domain.ErrUsage)
	}
	bpID, err := domain.ParseBlueprintID(parts[0])
	if err != nil {
		return domain.BlueprintID{}, "", fmt.Errorf("%w: bad blueprint id", domain.ErrUsage)
	}
	return bpID, domain.RoomKey(parts[1]), nil
}

func (d *Dispatcher) adminBlueprint(ctx context.Context, sess *session.Session, out *session.OutputChannel, args []string) {
	if len(args) == 0 {
		usageErr(out, "@bp new|room|exit|entry|submit|import <...>")
		return
	}
	acct, _ := sess.Account()
	switch args[0] {
	case "new":
		if len(args) < 2 {
			usageErr(out, "@bp new \"Title\"")
			return
		}
		title := strings.Join(args[1:], " ")
		bp, err := d.Store.CreateBlueprint(ctx, domain.Blueprint{
			ID: domain.NewBlueprintID(), Key: slugify(title), Title: title,
			OwnerID: acct.ID, Status: domain.StatusDraft,
		})
		if err != nil {
			out.System(fmt.Sprintf("@bp new: %s", err))
			return
		}
		out.System(fmt.Sprintf("Created blueprint %s (%s)", bp.Key, bp.ID))

	case "room":
		d.adminBPRoom(ctx, out, args[1:])

	case "exit":
		d.adminBPExit(ctx, out, args[1:])

	case "entry":
		if len(args) < 2 {
			usageErr(out, "@bp entry <bp>:<room>")
			return
		}
		bpID, room, err := splitBPRoom(args[1])
		if err != nil {
			out.System(err.Error())
			return
		}
		if err := d.Store.SetEntryRoom(ctx, bpID, room); err != nil {
			out.System(fmt.Sprintf("@bp entry: %s", err))
			return
		}
		out.System("Entry room set.")

	case "submit":
		if len(args) < 2 {
			usageErr(out, "@bp submit <bp-uuid>")
			return
		}
		bpID, err := domain.ParseBlueprintID(args[1])
		if err != nil {
			out.System("@bp submit: bad blueprint id")
			return
		}
		bp, err := d.Store.GetBlueprintByID(ctx, bpID)
		if err != nil {
			out.System(fmt.Sprintf("@bp submit: %s", err))
			return
		}
		bp.Status = domain.StatusSubmitted
		if err := d.Store.UpdateBlueprint(ctx, bp); err != nil {
			out.System(fmt.Sprintf("@bp submit: %s", err))
			return
		}
		out.System("Blueprint submitted.")

	case "import":
		out.System("Use the import-yaml CLI for filesystem imports.")

	default:
		usageErr(out, "@bp new|room|exit|entry|submit|import <...>")
	}
}

func (d *Dispatcher) adminBPRoom(ctx context.Context, out *session.OutputChannel, args []string) {
	if len(args) < 2 {
		usageErr(out, "@bp room add|lock|unlock <bp>:<room> [...]")
		return
	}
	bpID, room, err := splitBPRoom(args[1])
	if err != nil {
		out.System(err.Error())
		return
	}
	switch args[0] {
	case "add":
		title, body := "", ""
		if len(args) > 2 {
			title = args[2]
		}
		if len(args) > 3 {
			body = strings.Join(args[3:], " ")
		}
		if err := d.Store.UpsertRoom(ctx, domain.BlueprintRoom{BlueprintID: bpID, Key: room, Title: title, Body: body}); err != nil {
			out.System(fmt.Sprintf("@bp room add: %s", err))
			return
		}
		out.System("Room saved.")
	case "lock", "unlock":
		if err := d.Store.SetRoomLocked(ctx, bpID, room, args[0] == "lock"); err != nil {
			out.System(fmt.Sprintf("@bp room %s: %s", args[0], err))
			return
		}
		out.System("Room lock state updated.")
	default:
		usageErr(out, "@bp room add|lock|unlock <bp>:<room> [...]")
	}
}

func (d *Dispatcher) adminBPExit(ctx context.Context, out *session.OutputChannel, args []string) {
	if len(args) < 1 || args[0] != "add" || len(args) < 4 {
		usageErr(out, "@bp exit add <bp>:<from> <dir> <bp>:<to> [locked]")
		return
	}
	bpID, from, err := splitBPRoom(args[1])
	if err != nil {
		out.System(err.Error())
		return
	}
	dir, ok := domain.NormalizeDirection(args[2])
	if !ok {
		out.System("@bp exit add: unknown direction")
		return
	}
	_, to, err := splitBPRoom(args[3])
	if err != nil {
		out.System(err.Error())
		return
	}
	locked := len(args) > 4 && args[4] == "locked"
	exit := domain.BlueprintExit{BlueprintID: bpID, FromRoomKey: from, Direction: dir, ToRoomKey: to, Locked: locked, VisibleWhenLocked: true}
	if err := d.Store.UpsertExit(ctx, exit); err != nil {
		out.System(fmt.Sprintf("@bp exit add: %s", err))
		return
	}
	out.System("Exit saved.")
}

func (d *Dispatcher) adminScript(ctx context.Context, sess *session.Session, out *session.OutputChannel, args []string) {
	if len(args) < 2 {
		usageErr(out, "@script edit|publish <bp>:<room> <event>")
		return
	}
	switch args[0] {
	case "edit":
		if len(args) < 3 {
			usageErr(out, "@script edit <bp>:<room> <on_enter|on_command|on_timer>")
			return
		}
		bpID, room, err := splitBPRoom(args[1])
		if err != nil {
			out.System(err.Error())
			return
		}
		sess.BeginEditor(session.EditorBuffer{BlueprintKey: bpID.String(), RoomKey: room, Event: args[2]})
		sess.SetPhase(session.PhaseInEditor)
		out.System("Entering editor. End with a line containing only '.end'.")
	case "publish":
		bpID, room, err := splitBPRoom(args[1])
		if err != nil {
			out.System(err.Error())
			return
		}
		if err := d.Store.PublishScript(ctx, bpID, room, args[2]); err != nil {
			out.System(fmt.Sprintf("@script publish: %s", err))
			return
		}
		out.System("Script published.")
	default:
		usageErr(out, "@script edit|publish <bp>:<room> <event>")
	}
}

func (d *Dispatcher) adminDebug(sess *session.Session, out *session.OutputChannel, args []string) {
	if len(args) == 0 {
		usageErr(out, "@debug where|col")
		return
	}
	switch args[0] {
	case "where":
		cur, ok := sess.Cursor()
		if !ok {
			out.System("No active cursor.")
			return
		}
		out.System(fmt.Sprintf("realm=%s room=%s playtest-depth=%d", cur.RealmID, cur.RoomKey, sess.PlaytestDepth()))
	case "col":
		out.System(fmt.Sprintf("terminal width: %d", out.Width()))
	default:
		usageErr(out, "@debug where|col")
	}
}

// adminPlaytest implements spec.md §4.2's playtest stack: "@playtest <bp>"
// enters an ephemeral realm at the blueprint's entry room; bare
// "@playtest" pops back to the previous cursor.
func (d *Dispatcher) adminPlaytest(ctx context.Context, sess *session.Session, out *session.OutputChannel, args []string) {
	if len(args) == 0 {
		if _, ok := sess.PopPlaytest(); !ok {
			out.System("Not in a playtest.")
			return
		}
		cur, _ := sess.Cursor()
		d.describeRoom(out, cur.Room)
		return
	}

	bp, err := d.Store.GetBlueprintByKey(ctx, args[0])
	if err != nil {
		out.System(fmt.Sprintf("@playtest: %s", err))
		return
	}
	if !bp.HasEntry {
		out.System("@playtest: blueprint has no entry room")
		return
	}
	acct, _ := sess.Account()
	realm, err := d.Store.CreateRealm(ctx, domain.Realm{
		ID: domain.NewRealmID(), Key: fmt.Sprintf("playtest-%s", domain.NewRealmID()),
		Title: "Playtest: " + bp.Title, OwnerID: acct.ID, Kind: domain.RealmEphemeral, BlueprintID: bp.ID,
	})
	if err != nil {
		out.System(fmt.Sprintf("@playtest: %s", err))
		return
	}
	view, err := world.BuildRoomView(ctx, d.Store, realm, acct.ID, bp.EntryRoomID)
	if err != nil {
		out.System(fmt.Sprintf("@playtest: %s", err))
		return
	}
	sess.PushPlaytest(domain.Cursor{RealmID: realm.ID, Room: view, RoomKey: bp.EntryRoomID, AccountID: acct.ID})
	out.System("Entered playtest. Use bare '@playtest' to leave.")
	d.describeRoom(out, view)
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
