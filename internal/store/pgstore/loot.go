package pgstore

import (
	"context"
	"time"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// DueSpawns selects due rows with SELECT ... FOR UPDATE SKIP LOCKED so
// concurrent pgstore processes never return the same spawn in the same
// tick window (spec.md §4.5's "lock and skip"). The lock is only held for
// the lifetime of this call's implicit transaction, not across the
// caller's subsequent AdvanceSpawn round trip — a narrower guarantee than
// a single enclosing transaction would give, accepted here since
// spec.md §1 scopes the relational implementation's depth out.
func (s *Store) DueSpawns(ctx context.Context, now time.Time, limit int) ([]domain.LootSpawn, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, realm_id, room_key, item, qty_min, qty_max, interval_seconds, max_instances, next_spawn_at
		FROM loot_spawns
		WHERE next_spawn_at <= $1
		ORDER BY id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, now, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.LootSpawn
	for rows.Next() {
		var sp domain.LootSpawn
		var realm nullableUUID
		var roomKey string
		var intervalSeconds int
		if err := rows.Scan(&sp.ID, &realm, &roomKey, &sp.Item, &sp.QtyMin, &sp.QtyMax, &intervalSeconds, &sp.MaxInstances, &sp.NextSpawnAt); err != nil {
			return nil, mapErr(err)
		}
		sp.RealmID = domain.RealmID(realm.UUID)
		sp.RoomKey = domain.RoomKey(roomKey)
		sp.Interval = time.Duration(intervalSeconds) * time.Second
		out = append(out, sp)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) CountAvailablePiles(ctx context.Context, realmID domain.RealmID, roomKey domain.RoomKey, item string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM loot_piles
		WHERE realm_id = $1 AND room_key = $2 AND item = $3 AND NOT picked AND qty > 0`,
		uuidOf(realmID), string(roomKey), item,
	).Scan(&n)
	return n, mapErr(err)
}

func (s *Store) InsertPile(ctx context.Context, pile domain.LootPile) (domain.LootPile, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO loot_piles (realm_id, room_key, item, qty)
		VALUES ($1,$2,$3,$4) RETURNING id`,
		uuidOf(pile.RealmID), string(pile.RoomKey), pile.Item, pile.Qty,
	).Scan(&pile.ID)
	return pile, mapErr(err)
}

func (s *Store) AdvanceSpawn(ctx context.Context, spawnID int64, next time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE loot_spawns SET next_spawn_at = $2 WHERE id = $1`, spawnID, next)
	return mapErr(err)
}

// PickupCoins claims from the highest-quantity available pile and credits
// accountID. The select-claim-credit sequence runs inside its own
// Store.Tx regardless of what the caller does, so the FOR UPDATE SKIP
// LOCKED row lock spans the pile update and the balance update: two
// concurrent callers can never both observe and spend the same qty.
func (s *Store) PickupCoins(ctx context.Context, realmID domain.RealmID, roomKey domain.RoomKey, item string, accountID domain.AccountID, want int) (int, error) {
	if want <= 0 {
		want = 1
	}
	var claim int
	err := s.Tx(ctx, func(ctx context.Context, st store.Store) error {
		ps := st.(*Store)
		var pileID int64
		var qty int
		err := ps.db.QueryRow(ctx, `
			SELECT id, qty FROM loot_piles
			WHERE realm_id = $1 AND room_key = $2 AND item = $3 AND NOT picked AND qty > 0
			ORDER BY qty DESC LIMIT 1 FOR UPDATE SKIP LOCKED`,
			uuidOf(realmID), string(roomKey), item,
		).Scan(&pileID, &qty)
		if err != nil {
			if mapped := mapErr(err); mapped == domain.ErrNotFound {
				claim = 0
				return nil
			}
			return mapErr(err)
		}

		claim = want
		if claim > qty {
			claim = qty
		}
		remaining := qty - claim
		if remaining <= 0 {
			_, err = ps.db.Exec(ctx, `UPDATE loot_piles SET qty = 0, picked = true, picked_by = $2, picked_at = now() WHERE id = $1`, pileID, uuidOf(accountID))
		} else {
			_, err = ps.db.Exec(ctx, `UPDATE loot_piles SET qty = $2 WHERE id = $1`, pileID, remaining)
		}
		if err != nil {
			return mapErr(err)
		}

		_, err = ps.db.Exec(ctx, `UPDATE accounts SET coins = GREATEST(coins + $2, 0) WHERE id = $1`, uuidOf(accountID), claim)
		return mapErr(err)
	})
	if err != nil {
		return 0, err
	}
	return claim, nil
}
