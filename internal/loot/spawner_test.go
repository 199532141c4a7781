package loot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store/memstore"
)

func TestTickInsertsPileUpToMaxInstances(t *testing.T) {
	s := memstore.New()
	realm := domain.NewRealmID()
	room := domain.RoomKey("cell_block")
	spawn := s.AddSpawn(domain.LootSpawn{
		RealmID: realm, RoomKey: room, Item: "coin",
		QtyMin: 3, QtyMax: 3, Interval: time.Minute, MaxInstances: 1,
		NextSpawnAt: time.Now().Add(-time.Second),
	})

	sp := NewSpawner(s, zap.NewNop())
	require.NoError(t, sp.Tick(context.Background()))

	count, err := s.CountAvailablePiles(context.Background(), realm, room, "coin")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, s.AdvanceSpawn(context.Background(), spawn.ID, time.Now().Add(-time.Second)))
	require.NoError(t, sp.Tick(context.Background()))
	count, err = s.CountAvailablePiles(context.Background(), realm, room, "coin")
	require.NoError(t, err)
	require.Equal(t, 1, count, "max_instances=1 caps the room at one pile even though the spawn is due again")
}

func TestTickAdvancesNextSpawnEvenWhenCapped(t *testing.T) {
	s := memstore.New()
	realm := domain.NewRealmID()
	room := domain.RoomKey("cell_block")
	spawn := s.AddSpawn(domain.LootSpawn{
		RealmID: realm, RoomKey: room, Item: "coin",
		QtyMin: 1, QtyMax: 1, Interval: time.Minute, MaxInstances: 0,
		NextSpawnAt: time.Now().Add(-time.Second),
	})

	sp := NewSpawner(s, zap.NewNop())
	before := spawn.NextSpawnAt
	require.NoError(t, sp.Tick(context.Background()))

	due, err := s.DueSpawns(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Empty(t, due, "next_spawn_at must advance even when max_instances blocks insertion")
	_ = before
}
