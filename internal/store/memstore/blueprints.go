package memstore

import (
	"context"
	"fmt"

	"github.com/port4k/port4k/internal/domain"
)

func (s *Store) CreateBlueprint(ctx context.Context, bp domain.Blueprint) (domain.Blueprint, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	if _, exists := s.blueprintsByKey[bp.Key]; exists {
		return domain.Blueprint{}, fmt.Errorf("blueprint %q: %w", bp.Key, domain.ErrUniqueViolation)
	}
	if bp.ID.IsZero() {
		bp.ID = domain.NewBlueprintID()
	}
	s.blueprintsByID[bp.ID] = bp
	s.blueprintsByKey[bp.Key] = bp.ID
	return bp, nil
}

func (s *Store) GetBlueprintByKey(ctx context.Context, key string) (domain.Blueprint, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	id, ok := s.blueprintsByKey[key]
	if !ok {
		return domain.Blueprint{}, fmt.Errorf("blueprint %q: %w", key, domain.ErrBlueprintNotFound)
	}
	return s.blueprintsByID[id], nil
}

func (s *Store) GetBlueprintByID(ctx context.Context, id domain.BlueprintID) (domain.Blueprint, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	bp, ok := s.blueprintsByID[id]
	if !ok {
		return domain.Blueprint{}, fmt.Errorf("blueprint %s: %w", id, domain.ErrBlueprintNotFound)
	}
	return bp, nil
}

func (s *Store) UpdateBlueprint(ctx context.Context, bp domain.Blueprint) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	if _, ok := s.blueprintsByID[bp.ID]; !ok {
		return fmt.Errorf("blueprint %s: %w", bp.ID, domain.ErrBlueprintNotFound)
	}
	s.blueprintsByID[bp.ID] = bp
	return nil
}

func (s *Store) SetEntryRoom(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	bp, ok := s.blueprintsByID[bpID]
	if !ok {
		return fmt.Errorf("blueprint %s: %w", bpID, domain.ErrBlueprintNotFound)
	}
	if _, ok := s.rooms[roomKey{bp: bpID, key: key}]; !ok {
		return fmt.Errorf("room %q in blueprint %s: %w", key, bpID, domain.ErrRoomKeyNotFound)
	}
	bp.HasEntry = true
	bp.EntryRoomID = key
	s.blueprintsByID[bpID] = bp
	return nil
}

func (s *Store) UpsertRoom(ctx context.Context, room domain.BlueprintRoom) error {
	if err := domain.ValidateRoom(room); err != nil {
		return err
	}
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	s.rooms[roomKey{bp: room.BlueprintID, key: room.Key}] = room
	return nil
}

func (s *Store) GetRoom(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey) (domain.BlueprintRoom, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	room, ok := s.rooms[roomKey{bp: bpID, key: key}]
	if !ok {
		return domain.BlueprintRoom{}, fmt.Errorf("room %q: %w", key, domain.ErrRoomKeyNotFound)
	}
	return room, nil
}

func (s *Store) SetRoomLocked(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey, locked bool) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	rk := roomKey{bp: bpID, key: key}
	room, ok := s.rooms[rk]
	if !ok {
		return fmt.Errorf("room %q: %w", key, domain.ErrRoomKeyNotFound)
	}
	room.EntryLocked = locked
	s.rooms[rk] = room
	return nil
}

func (s *Store) UpsertExit(ctx context.Context, exit domain.BlueprintExit) error {
	if err := domain.ValidateExit(exit); err != nil {
		return err
	}
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	s.exits[exitKey{bp: exit.BlueprintID, from: exit.FromRoomKey, dir: exit.Direction}] = exit
	return nil
}

func (s *Store) ListExits(ctx context.Context, bpID domain.BlueprintID, fromRoom domain.RoomKey) ([]domain.BlueprintExit, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	var out []domain.BlueprintExit
	for k, exit := range s.exits {
		if k.bp == bpID && k.from == fromRoom {
			out = append(out, exit)
		}
	}
	return out, nil
}

func (s *Store) SaveDraftScript(ctx context.Context, bpID domain.BlueprintID, roomKey domain.RoomKey, event string, source string) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	s.drafts[draftKey{bp: bpID, room: roomKey, event: event}] = source
	return nil
}

func (s *Store) PublishScript(ctx context.Context, bpID domain.BlueprintID, rk domain.RoomKey, event string) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	source, ok := s.drafts[draftKey{bp: bpID, room: rk, event: event}]
	if !ok {
		return fmt.Errorf("no draft script for %s:%s %s: %w", bpID, rk, event, domain.ErrNotFound)
	}
	key := roomKey{bp: bpID, key: rk}
	room, ok := s.rooms[key]
	if !ok {
		return fmt.Errorf("room %q: %w", rk, domain.ErrRoomKeyNotFound)
	}
	bundle := room.Scripts
	switch event {
	case "on_enter":
		bundle.OnEnter = domain.ScriptSource{Source: source}
	case "on_command":
		bundle.OnCommand = domain.ScriptSource{Source: source}
	case "on_exit":
		bundle.OnExit = domain.ScriptSource{Source: source}
	case "on_timer":
		bundle.OnTimer = domain.ScriptSource{Source: source}
	default:
		return fmt.Errorf("unknown event %q: %w", event, domain.ErrInvalidInput)
	}
	room.Scripts = bundle
	s.rooms[key] = room
	return nil
}

func (s *Store) GetDraftScript(ctx context.Context, bpID domain.BlueprintID, rk domain.RoomKey, event string) (string, bool, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	source, ok := s.drafts[draftKey{bp: bpID, room: rk, event: event}]
	return source, ok, nil
}
