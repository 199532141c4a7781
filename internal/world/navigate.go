package world

import (
	"context"
	"fmt"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// ScriptRunner is the narrow slice of the script runtime (internal/script)
// that the navigation algorithm needs. Declaring it here, rather than
// importing internal/script directly, keeps world free of a dependency on
// the interpreter.
type ScriptRunner interface {
	// RunOnExit runs the current room's on_exit hook, if any. A false
	// result blocks the move (spec.md §4.2 step 5).
	RunOnExit(ctx context.Context, cur domain.Cursor) (bool, error)
	// RunOnEnter runs the destination room's on_enter hook, if any. Its
	// result is advisory only (spec.md §4.2 step 7).
	RunOnEnter(ctx context.Context, cur domain.Cursor) error
}

// Move implements the Go-verb algorithm of spec.md §4.2. On success it
// returns the new Cursor; the caller is responsible for installing it on
// the session and persisting the account's coordinates.
func Move(ctx context.Context, s store.Store, scripts ScriptRunner, realm domain.Realm, cur domain.Cursor, dir domain.Direction) (domain.Cursor, error) {
	view, err := BuildRoomView(ctx, s, realm, cur.AccountID, cur.RoomKey)
	if err != nil {
		return domain.Cursor{}, err
	}

	exit, ok := FindExit(view, dir)
	if !ok {
		return domain.Cursor{}, domain.ErrNoSuchExit
	}
	if exit.Locked {
		return domain.Cursor{}, domain.ErrExitLocked
	}

	if scripts != nil {
		handled, err := scripts.RunOnExit(ctx, cur)
		if err != nil {
			return domain.Cursor{}, fmt.Errorf("on_exit: %w", err)
		}
		if !handled {
			return domain.Cursor{}, domain.ErrBlocked
		}
	}

	destView, err := BuildRoomView(ctx, s, realm, cur.AccountID, exit.ToRoomKey)
	if err != nil {
		return domain.Cursor{}, err
	}
	next := domain.Cursor{
		RealmID:   realm.ID,
		Room:      destView,
		RoomKey:   exit.ToRoomKey,
		AccountID: cur.AccountID,
	}

	if scripts != nil {
		// on_enter's result is advisory: any error is discarded without
		// being logged, never surfaced to the player or used to block the
		// already-committed move (spec.md §4.2 step 7).
		_ = scripts.RunOnEnter(ctx, next)
	}

	return next, nil
}
