package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

func (s *Store) CreateBlueprint(ctx context.Context, bp domain.Blueprint) (domain.Blueprint, error) {
	if bp.ID.IsZero() {
		bp.ID = domain.NewBlueprintID()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO blueprints (id, key, title, owner_id, status, has_entry, entry_room_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuidOf(bp.ID), bp.Key, bp.Title, uuidOf(bp.OwnerID), int(bp.Status), bp.HasEntry, nullRoomKey(bp.HasEntry, bp.EntryRoomID),
	)
	if err != nil {
		return domain.Blueprint{}, fmt.Errorf("blueprint %q: %w", bp.Key, mapErr(err))
	}
	return bp, nil
}

func (s *Store) GetBlueprintByKey(ctx context.Context, key string) (domain.Blueprint, error) {
	bp, err := s.scanBlueprint(s.db.QueryRow(ctx, blueprintSelect+" WHERE key = $1", key))
	if err != nil {
		return domain.Blueprint{}, fmt.Errorf("blueprint %q: %w", key, toNotFound(err, domain.ErrBlueprintNotFound))
	}
	return bp, nil
}

func (s *Store) GetBlueprintByID(ctx context.Context, id domain.BlueprintID) (domain.Blueprint, error) {
	bp, err := s.scanBlueprint(s.db.QueryRow(ctx, blueprintSelect+" WHERE id = $1", uuidOf(id)))
	if err != nil {
		return domain.Blueprint{}, fmt.Errorf("blueprint %s: %w", id, toNotFound(err, domain.ErrBlueprintNotFound))
	}
	return bp, nil
}

func (s *Store) UpdateBlueprint(ctx context.Context, bp domain.Blueprint) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE blueprints SET title=$2, status=$3, has_entry=$4, entry_room_key=$5 WHERE id = $1`,
		uuidOf(bp.ID), bp.Title, int(bp.Status), bp.HasEntry, nullRoomKey(bp.HasEntry, bp.EntryRoomID),
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blueprint %s: %w", bp.ID, domain.ErrBlueprintNotFound)
	}
	return nil
}

func (s *Store) SetEntryRoom(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM blueprint_rooms WHERE blueprint_id=$1 AND key=$2)`, uuidOf(bpID), string(key)).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if !exists {
		return fmt.Errorf("room %q in blueprint %s: %w", key, bpID, domain.ErrRoomKeyNotFound)
	}
	tag, err := s.db.Exec(ctx, `UPDATE blueprints SET has_entry=true, entry_room_key=$2 WHERE id=$1`, uuidOf(bpID), string(key))
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blueprint %s: %w", bpID, domain.ErrBlueprintNotFound)
	}
	return nil
}

const blueprintSelect = `SELECT id, key, title, owner_id, status, has_entry, entry_room_key FROM blueprints`

func (s *Store) scanBlueprint(row interface{ Scan(dest ...any) error }) (domain.Blueprint, error) {
	var bp domain.Blueprint
	var id, owner nullableUUID
	var status int
	var entryRoom *string
	if err := row.Scan(&id, &bp.Key, &bp.Title, &owner, &status, &bp.HasEntry, &entryRoom); err != nil {
		return domain.Blueprint{}, mapErr(err)
	}
	bp.ID = domain.BlueprintID(id.UUID)
	bp.OwnerID = domain.AccountID(owner.UUID)
	bp.Status = domain.BlueprintStatus(status)
	if entryRoom != nil {
		bp.EntryRoomID = domain.RoomKey(*entryRoom)
	}
	return bp, nil
}

func toNotFound(err error, notFound error) error {
	if err == domain.ErrNotFound {
		return notFound
	}
	return err
}

// roomData is the jsonb payload of blueprint_rooms.data: everything about
// a BlueprintRoom except its (blueprint_id, key) primary key, which are
// plain columns for indexing.
type roomData struct {
	Title       string                  `json:"title"`
	Short       string                  `json:"short"`
	Body        string                  `json:"body"`
	Hints       []string                `json:"hints"`
	Objects     []domain.BlueprintObject `json:"objects"`
	Scripts     domain.ScriptBundle     `json:"scripts"`
	EntryLocked bool                    `json:"entry_locked"`
}

func (s *Store) UpsertRoom(ctx context.Context, room domain.BlueprintRoom) error {
	if err := domain.ValidateRoom(room); err != nil {
		return err
	}
	data, err := json.Marshal(roomData{
		Title: room.Title, Short: room.Short, Body: room.Body, Hints: room.Hints,
		Objects: room.Objects, Scripts: room.Scripts, EntryLocked: room.EntryLocked,
	})
	if err != nil {
		return fmt.Errorf("pgstore: marshal room: %w", err)
	}
	_, execErr := s.db.Exec(ctx, `
		INSERT INTO blueprint_rooms (blueprint_id, key, data) VALUES ($1,$2,$3)
		ON CONFLICT (blueprint_id, key) DO UPDATE SET data = EXCLUDED.data`,
		uuidOf(room.BlueprintID), string(room.Key), data,
	)
	return mapErr(execErr)
}

func (s *Store) GetRoom(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey) (domain.BlueprintRoom, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM blueprint_rooms WHERE blueprint_id=$1 AND key=$2`, uuidOf(bpID), string(key)).Scan(&data)
	if err != nil {
		return domain.BlueprintRoom{}, fmt.Errorf("room %q: %w", key, toNotFound(mapErr(err), domain.ErrRoomKeyNotFound))
	}
	var rd roomData
	if err := json.Unmarshal(data, &rd); err != nil {
		return domain.BlueprintRoom{}, fmt.Errorf("pgstore: unmarshal room: %w", err)
	}
	return domain.BlueprintRoom{
		BlueprintID: bpID, Key: key,
		Title: rd.Title, Short: rd.Short, Body: rd.Body, Hints: rd.Hints,
		Objects: rd.Objects, Scripts: rd.Scripts, EntryLocked: rd.EntryLocked,
	}, nil
}

func (s *Store) SetRoomLocked(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey, locked bool) error {
	room, err := s.GetRoom(ctx, bpID, key)
	if err != nil {
		return err
	}
	room.EntryLocked = locked
	return s.UpsertRoom(ctx, room)
}

func (s *Store) UpsertExit(ctx context.Context, exit domain.BlueprintExit) error {
	if err := domain.ValidateExit(exit); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO blueprint_exits (blueprint_id, from_room_key, direction, to_room_key, description, locked, visible_when_locked)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (blueprint_id, from_room_key, direction) DO UPDATE SET
			to_room_key = EXCLUDED.to_room_key, description = EXCLUDED.description,
			locked = EXCLUDED.locked, visible_when_locked = EXCLUDED.visible_when_locked`,
		uuidOf(exit.BlueprintID), string(exit.FromRoomKey), string(exit.Direction), string(exit.ToRoomKey),
		exit.Description, exit.Locked, exit.VisibleWhenLocked,
	)
	return mapErr(err)
}

func (s *Store) ListExits(ctx context.Context, bpID domain.BlueprintID, fromRoom domain.RoomKey) ([]domain.BlueprintExit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT direction, to_room_key, description, locked, visible_when_locked
		FROM blueprint_exits WHERE blueprint_id=$1 AND from_room_key=$2`,
		uuidOf(bpID), string(fromRoom),
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.BlueprintExit
	for rows.Next() {
		var dir, toRoom string
		exit := domain.BlueprintExit{BlueprintID: bpID, FromRoomKey: fromRoom}
		if err := rows.Scan(&dir, &toRoom, &exit.Description, &exit.Locked, &exit.VisibleWhenLocked); err != nil {
			return nil, mapErr(err)
		}
		exit.Direction = domain.Direction(dir)
		exit.ToRoomKey = domain.RoomKey(toRoom)
		out = append(out, exit)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) SaveDraftScript(ctx context.Context, bpID domain.BlueprintID, roomKey domain.RoomKey, event string, source string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO blueprint_scripts (blueprint_id, room_key, event, draft_source)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (blueprint_id, room_key, event) DO UPDATE SET draft_source = EXCLUDED.draft_source`,
		uuidOf(bpID), string(roomKey), event, source,
	)
	return mapErr(err)
}

// PublishScript copies a room's draft source for event into its published
// ScriptBundle, inside a transaction so the draft lookup and the room
// update are atomic (spec.md §4.1 "@script publish").
func (s *Store) PublishScript(ctx context.Context, bpID domain.BlueprintID, rk domain.RoomKey, event string) error {
	return s.Tx(ctx, func(ctx context.Context, st store.Store) error {
		ps := st.(*Store)
		source, ok, err := ps.GetDraftScript(ctx, bpID, rk, event)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no draft script for %s:%s %s: %w", bpID, rk, event, domain.ErrNotFound)
		}
		room, err := ps.GetRoom(ctx, bpID, rk)
		if err != nil {
			return err
		}
		src := domain.ScriptSource{Source: source}
		switch event {
		case "on_enter":
			room.Scripts.OnEnter = src
		case "on_command":
			room.Scripts.OnCommand = src
		case "on_exit":
			room.Scripts.OnExit = src
		case "on_timer":
			room.Scripts.OnTimer = src
		default:
			return fmt.Errorf("unknown event %q: %w", event, domain.ErrInvalidInput)
		}
		return ps.UpsertRoom(ctx, room)
	})
}

func (s *Store) GetDraftScript(ctx context.Context, bpID domain.BlueprintID, rk domain.RoomKey, event string) (string, bool, error) {
	var source string
	err := s.db.QueryRow(ctx, `SELECT draft_source FROM blueprint_scripts WHERE blueprint_id=$1 AND room_key=$2 AND event=$3`,
		uuidOf(bpID), string(rk), event,
	).Scan(&source)
	if err != nil {
		if mapErr(err) == domain.ErrNotFound {
			return "", false, nil
		}
		return "", false, mapErr(err)
	}
	return source, true, nil
}
