// Package world builds player-relative RoomViews from blueprint data and
// implements the Go-verb navigation algorithm of spec.md §4.2. It reads
// from store.Store but never mutates it directly — mutation happens via
// the command handlers and the script runtime's host bridge.
package world

import (
	"context"
	"sort"
	"strings"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// BuildRoomView projects a (realm, account, room) triple into a RoomView,
// per spec.md §4.2: available exits filtered by visibility, objects with
// their state overlay, and visible loot piles. Pure w.r.t. mutation.
func BuildRoomView(ctx context.Context, s store.Store, realm domain.Realm, accountID domain.AccountID, roomKey domain.RoomKey) (domain.RoomView, error) {
	room, err := s.GetRoom(ctx, realm.BlueprintID, roomKey)
	if err != nil {
		return domain.RoomView{}, err
	}
	exits, err := s.ListExits(ctx, realm.BlueprintID, roomKey)
	if err != nil {
		return domain.RoomView{}, err
	}

	view := domain.RoomView{
		RealmID:     realm.ID,
		AccountID:   accountID,
		RoomKey:     roomKey,
		Title:       room.Title,
		Short:       room.Short,
		Body:        room.Body,
		NounToObjID: make(map[string]domain.ObjectID),
	}

	for _, exit := range exits {
		if exit.Locked && !exit.VisibleWhenLocked {
			continue // hidden from listings and from movement (spec.md §4.2)
		}
		view.Exits = append(view.Exits, domain.ExitView{
			Direction:   exit.Direction,
			ToRoomKey:   exit.ToRoomKey,
			Description: exit.Description,
			Locked:      exit.Locked,
		})
	}
	sort.Slice(view.Exits, func(i, j int) bool { return view.Exits[i].Direction < view.Exits[j].Direction })

	objs := append([]domain.BlueprintObject(nil), room.Objects...)
	sort.SliceStable(objs, func(i, j int) bool {
		pi, pj := objs[i].Position, objs[j].Position
		if !objs[i].HasPosition {
			pi = 1 << 30
		}
		if !objs[j].HasPosition {
			pj = 1 << 30
		}
		return pi < pj
	})
	for _, obj := range objs {
		view.Objects = append(view.Objects, domain.ObjectView{
			ID:          obj.ID,
			Nouns:       obj.Nouns,
			Short:       obj.Short,
			Description: obj.Description,
			Examine:     obj.Examine,
			HasExamine:  obj.HasExamine,
			State:       obj.State,
			HasOnUse:    obj.OnUse.Present(),
			Position:    obj.Position,
		})
		for _, noun := range obj.Nouns {
			key := strings.ToLower(strings.TrimSpace(noun))
			if key == "" {
				continue
			}
			if _, exists := view.NounToObjID[key]; !exists {
				view.NounToObjID[key] = obj.ID
			}
		}
	}

	return view, nil
}

// ResolveNoun matches a typed noun phrase against the room's nouns. When
// multiple objects share a noun, the first one registered wins — which,
// because BuildRoomView iterates objects in (position asc, insertion-order
// asc) order, implements the tie-break rule of spec.md §4.2.
func ResolveNoun(view domain.RoomView, noun string) (domain.ObjectID, bool) {
	key := strings.ToLower(strings.TrimSpace(noun))
	id, ok := view.NounToObjID[key]
	return id, ok
}

// FindExit looks up the exit for a direction within a RoomView.
func FindExit(view domain.RoomView, dir domain.Direction) (domain.ExitView, bool) {
	for _, e := range view.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return domain.ExitView{}, false
}

// ErrNoSuchExit and friends are domain errors re-exported for convenience
// at call sites that already import this package.
var (
	ErrNoSuchExit = domain.ErrNoSuchExit
	ErrExitLocked = domain.ErrExitLocked
	ErrBlocked    = domain.ErrBlocked
)
