package memstore

import (
	"context"
	"time"

	"github.com/port4k/port4k/internal/domain"
)

// DueSpawns returns spawns whose NextSpawnAt has elapsed, up to limit, in
// map iteration order, so which due rows fall under limit is not defined.
// Unlike a real advisory-lock backend, the in-memory
// store serialises all access behind s.mu, so "lock and skip rows claimed
// by other workers" degenerates to "return rows once per call" — the
// caller's subsequent AdvanceSpawn call moves NextSpawnAt forward so a
// concurrent second caller naturally sees the row as not-yet-due.
func (s *Store) DueSpawns(ctx context.Context, now time.Time, limit int) ([]domain.LootSpawn, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	var out []domain.LootSpawn
	for _, spawn := range s.spawns {
		if len(out) >= limit {
			break
		}
		if !spawn.NextSpawnAt.After(now) {
			out = append(out, *spawn)
		}
	}
	return out, nil
}

func (s *Store) CountAvailablePiles(ctx context.Context, realmID domain.RealmID, roomKey domain.RoomKey, item string) (int, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	n := 0
	for _, p := range s.piles {
		if p.RealmID == realmID && p.RoomKey == roomKey && p.Item == item && p.Available() {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertPile(ctx context.Context, pile domain.LootPile) (domain.LootPile, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	s.nextPile++
	pile.ID = s.nextPile
	cp := pile
	s.piles[pile.ID] = &cp
	return pile, nil
}

func (s *Store) AdvanceSpawn(ctx context.Context, spawnID int64, next time.Time) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	spawn, ok := s.spawns[spawnID]
	if !ok {
		return domain.ErrNotFound
	}
	spawn.NextSpawnAt = next
	return nil
}

// PickupCoins implements the pickup algorithm of spec.md §4.5: select the
// single highest-quantity available pile, decrement by min(qty, want),
// credit the account, and either mark the pile picked (fully consumed) or
// leave the remainder for the next caller. Holding s.mu for the whole
// operation is what makes this race-free: two concurrent pickups on the
// in-memory store serialise on the same mutex a real backend would
// serialise on via row locks (spec.md §8 scenario 4).
func (s *Store) PickupCoins(ctx context.Context, realmID domain.RealmID, roomKey domain.RoomKey, item string, accountID domain.AccountID, want int) (int, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	if want <= 0 {
		want = 1
	}

	var best *domain.LootPile
	for _, p := range s.piles {
		if p.RealmID != realmID || p.RoomKey != roomKey || p.Item != item || !p.Available() {
			continue
		}
		if best == nil || p.Qty > best.Qty {
			best = p
		}
	}
	if best == nil {
		return 0, nil
	}

	claim := want
	if claim > best.Qty {
		claim = best.Qty
	}
	best.Qty -= claim
	if best.Qty <= 0 {
		best.Picked = true
		best.PickedBy = accountID
		best.PickedAt = time.Now().UTC()
	}

	acct, ok := s.accountsByID[accountID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	acct.Coins = domain.ClampNonNegative(acct.Coins + claim)
	s.accountsByID[accountID] = acct

	return claim, nil
}

// AddSpawn is a test/import helper for seeding LootSpawn rows; it has no
// store.Store counterpart since spawn authoring isn't part of the player-
// facing or import-pipeline contract in spec.md.
func (s *Store) AddSpawn(spawn domain.LootSpawn) domain.LootSpawn {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	s.nextSpawn++
	spawn.ID = s.nextSpawn
	cp := spawn
	s.spawns[spawn.ID] = &cp
	return spawn
}
