// Package loot runs the periodic spawn-tick background job of spec.md
// §4.5, grounded on the teacher's periodic-broadcast goroutine shape
// (internal/game/world.go's ticker loop) but driving the race-free
// store.Loot contract instead of in-process state.
package loot

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// TickInterval is how often the spawner polls for due LootSpawn rows.
const TickInterval = 5 * time.Second

// Spawner periodically materialises loot piles from due LootSpawn rows
// (spec.md §4.5 "Spawn tick"). One Spawner runs per process; multiple
// processes may run concurrently against the same store because
// store.Loot.DueSpawns is specified to lock-and-skip.
type Spawner struct {
	Store store.Store
	Log   *zap.Logger
	Rand  *rand.Rand
}

// NewSpawner builds a Spawner with its own randomness source, so quantity
// rolls across processes are independent.
func NewSpawner(s store.Store, log *zap.Logger) *Spawner {
	return &Spawner{Store: s, Log: log, Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Run blocks, ticking every TickInterval until ctx is cancelled.
func (sp *Spawner) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sp.Tick(ctx); err != nil {
				sp.Log.Warn("loot tick failed", zap.Error(err))
			}
		}
	}
}

// Tick runs one spawn-tick pass: for every due LootSpawn, insert a new
// pile if the room is below max_instances, then advance next_spawn_at
// regardless (spec.md §4.5).
func (sp *Spawner) Tick(ctx context.Context) error {
	due, err := sp.Store.DueSpawns(ctx, time.Now().UTC(), 100)
	if err != nil {
		return err
	}
	for _, spawn := range due {
		count, err := sp.Store.CountAvailablePiles(ctx, spawn.RealmID, spawn.RoomKey, spawn.Item)
		if err != nil {
			return err
		}
		if count < spawn.MaxInstances {
			qty := spawn.QtyMin
			if spawn.QtyMax > spawn.QtyMin {
				qty = spawn.QtyMin + sp.Rand.Intn(spawn.QtyMax-spawn.QtyMin+1)
			}
			if _, err := sp.Store.InsertPile(ctx, domain.LootPile{
				RealmID: spawn.RealmID, RoomKey: spawn.RoomKey, Item: spawn.Item, Qty: qty,
			}); err != nil {
				return err
			}
		}
		if err := sp.Store.AdvanceSpawn(ctx, spawn.ID, time.Now().UTC().Add(spawn.Interval)); err != nil {
			return err
		}
	}
	return nil
}
