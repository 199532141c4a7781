package script

import (
	"context"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// Runner adapts an Engine plus a Store into the high-level hook-dispatch
// API command handlers and world.Move call, resolving each hook's source
// from the room's published ScriptBundle before submitting a Job.
type Runner struct {
	engine *Engine
	store  store.Store
	realm  func(ctx context.Context, realmID domain.RealmID) (domain.Realm, error)
}

// NewRunner builds a Runner over engine and s. realmLookup resolves a
// RealmID to its Realm (needed to find the owning BlueprintID); callers
// typically pass store.GetRealm bound to s.
func NewRunner(engine *Engine, s store.Store, realmLookup func(ctx context.Context, realmID domain.RealmID) (domain.Realm, error)) *Runner {
	return &Runner{engine: engine, store: s, realm: realmLookup}
}

func (r *Runner) bundleFor(ctx context.Context, cur domain.Cursor) (domain.ScriptBundle, error) {
	realm, err := r.realm(ctx, cur.RealmID)
	if err != nil {
		return domain.ScriptBundle{}, err
	}
	room, err := r.store.GetRoom(ctx, realm.BlueprintID, cur.RoomKey)
	if err != nil {
		return domain.ScriptBundle{}, err
	}
	return room.Scripts, nil
}

// RunOnExit implements world.ScriptRunner. A room with no on_exit script
// always allows the move.
func (r *Runner) RunOnExit(ctx context.Context, cur domain.Cursor) (bool, error) {
	bundle, err := r.bundleFor(ctx, cur)
	if err != nil {
		return false, err
	}
	if !bundle.OnExit.Present() {
		return true, nil
	}
	res := r.engine.Submit(ctx, Job{Kind: KindOnCommand, Source: bundle.OnExit.Source, Cursor: cur, AccountID: cur.AccountID})
	if res.Err != nil {
		return false, res.Err
	}
	if res.Kind == ValueNil {
		return true, nil
	}
	return res.Handled(), nil
}

// RunOnEnter implements world.ScriptRunner.
func (r *Runner) RunOnEnter(ctx context.Context, cur domain.Cursor) error {
	bundle, err := r.bundleFor(ctx, cur)
	if err != nil {
		return err
	}
	if !bundle.OnEnter.Present() {
		return nil
	}
	res := r.engine.Submit(ctx, Job{Kind: KindOnEnter, Source: bundle.OnEnter.Source, Cursor: cur, AccountID: cur.AccountID})
	return res.Err
}

// RunOnCommand dispatches the current room's on_command fallback hook
// (spec.md §4.1). ran is false when the room has no such hook at all.
func (r *Runner) RunOnCommand(ctx context.Context, cur domain.Cursor, intent Intent, out OutputSink) (Result, bool) {
	bundle, err := r.bundleFor(ctx, cur)
	if err != nil {
		return Result{Err: err}, false
	}
	if !bundle.OnCommand.Present() {
		return Result{}, false
	}
	res := r.engine.Submit(ctx, Job{Kind: KindOnCommand, Source: bundle.OnCommand.Source, Cursor: cur, AccountID: cur.AccountID, Intent: intent, Output: out})
	return res, true
}

// RunOnUse dispatches an object's on_use hook (spec.md §4.3 OnObject job).
func (r *Runner) RunOnUse(ctx context.Context, cur domain.Cursor, obj domain.ObjectView, source string, intent Intent, out OutputSink) Result {
	return r.engine.Submit(ctx, Job{Kind: KindOnObject, Source: source, Cursor: cur, AccountID: cur.AccountID, Intent: intent, Object: &obj, Output: out})
}

// Repl executes one REPL line against the session-scoped environment
// (spec.md §4.1 InLuaRepl, §4.3 Repl job kind).
func (r *Runner) Repl(ctx context.Context, sessionID, line string, out OutputSink) Result {
	return r.engine.Submit(ctx, Job{Kind: KindRepl, SessionID: sessionID, Source: line, Output: out})
}
