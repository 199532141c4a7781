package importer

import (
	"context"
	"fmt"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/script"
	"github.com/port4k/port4k/internal/store"
)

// Result summarises a completed import for CLI/log reporting.
type Result struct {
	RoomsImported int
	ExitsImported int
}

// Import runs the full pipeline of spec.md §4.4 over every YAML file in
// base/subdir: discovery, parse, semantic validation, script validation,
// and a single transactional upsert. Any failure at any stage rolls back
// the whole invocation — no partial import (spec.md §8 scenario 6).
func Import(ctx context.Context, s store.Store, bpID domain.BlueprintID, base, subdir string) (Result, error) {
	paths, err := DiscoverFiles(base, subdir)
	if err != nil {
		return Result{}, fmt.Errorf("discover: %w", err)
	}

	type staged struct {
		room  domain.BlueprintRoom
		exits []domain.BlueprintExit
	}
	var batch []staged

	for _, path := range paths {
		raw, err := ParseFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := Validate(raw); err != nil {
			return Result{}, fmt.Errorf("validate %s: %w", path, err)
		}
		room, exits := ToBlueprintRoom(bpID, raw)
		if err := domain.ValidateRoom(room); err != nil {
			return Result{}, fmt.Errorf("validate %s: %w", path, err)
		}
		if err := validateScripts(room); err != nil {
			return Result{}, fmt.Errorf("validate scripts %s: %w", path, err)
		}
		for _, exit := range exits {
			if err := domain.ValidateExit(exit); err != nil {
				return Result{}, fmt.Errorf("validate %s: %w", path, err)
			}
		}
		batch = append(batch, staged{room: room, exits: exits})
	}

	err = s.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		for _, b := range batch {
			if err := tx.UpsertRoom(ctx, b.room); err != nil {
				return err
			}
			for _, exit := range b.exits {
				if err := tx.UpsertExit(ctx, exit); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("upsert: %w", err)
	}

	exitCount := 0
	for _, b := range batch {
		exitCount += len(b.exits)
	}
	return Result{RoomsImported: len(batch), ExitsImported: exitCount}, nil
}

// validateScripts runs the token-blacklist, size-cap, and compile checks
// of spec.md §4.3 against every script chunk attached to room (spec.md
// §4.4 step 5).
func validateScripts(room domain.BlueprintRoom) error {
	sources := []domain.ScriptSource{room.Scripts.OnEnter, room.Scripts.OnCommand, room.Scripts.OnTimer}
	for _, obj := range room.Objects {
		sources = append(sources, obj.OnUse)
	}
	for _, src := range sources {
		if !src.Present() {
			continue
		}
		if err := script.CompileCheck(src.Source); err != nil {
			return err
		}
	}
	return nil
}

// SetEntryRoom sets bpID's entry room by key, surfacing the distinct
// room-key-not-found error from spec.md §9's Open Question resolution.
func SetEntryRoom(ctx context.Context, s store.Store, bpID domain.BlueprintID, roomKey domain.RoomKey) error {
	return s.SetEntryRoom(ctx, bpID, roomKey)
}
