// Package store defines the abstract persistence contract used by every
// other subsystem. The relational implementation behind it is deliberately
// out of scope per spec.md §1 ("the relational store implementation"); this
// package only fixes the interface, the transaction boundary, and the error
// taxonomy callers rely on. Two implementations exist: memstore (the
// in-memory reference used by tests) and pgstore (a
// thin, intentionally partial pgx-backed implementation).
package store

import (
	"context"
	"time"

	"github.com/port4k/port4k/internal/domain"
)

// Store is the full persistence contract. All methods are safe to call
// concurrently; callers that need multi-step consistency run their calls
// inside Tx.
type Store interface {
	// Tx runs fn within a transaction; fn's Store argument must be used for
	// every call made within the transaction. A non-nil returned error rolls
	// the transaction back; nil commits. Nested calls to Tx on the Store
	// passed to fn reuse the same transaction (no nested transactions).
	Tx(ctx context.Context, fn func(ctx context.Context, s Store) error) error

	Accounts
	Blueprints
	Realms
	Loot
}

// Accounts is the account-facing slice of Store.
type Accounts interface {
	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)
	GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error)
	UpdateAccount(ctx context.Context, a domain.Account) error
	RecordLogin(ctx context.Context, id domain.AccountID, at time.Time) error
}

// Blueprints is the authoring-facing slice of Store.
type Blueprints interface {
	CreateBlueprint(ctx context.Context, bp domain.Blueprint) (domain.Blueprint, error)
	GetBlueprintByKey(ctx context.Context, key string) (domain.Blueprint, error)
	GetBlueprintByID(ctx context.Context, id domain.BlueprintID) (domain.Blueprint, error)
	UpdateBlueprint(ctx context.Context, bp domain.Blueprint) error
	SetEntryRoom(ctx context.Context, bpID domain.BlueprintID, roomKey domain.RoomKey) error

	UpsertRoom(ctx context.Context, room domain.BlueprintRoom) error
	GetRoom(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey) (domain.BlueprintRoom, error)
	SetRoomLocked(ctx context.Context, bpID domain.BlueprintID, key domain.RoomKey, locked bool) error

	UpsertExit(ctx context.Context, exit domain.BlueprintExit) error
	ListExits(ctx context.Context, bpID domain.BlueprintID, fromRoom domain.RoomKey) ([]domain.BlueprintExit, error)

	SaveDraftScript(ctx context.Context, bpID domain.BlueprintID, roomKey domain.RoomKey, event string, source string) error
	PublishScript(ctx context.Context, bpID domain.BlueprintID, roomKey domain.RoomKey, event string) error
	GetDraftScript(ctx context.Context, bpID domain.BlueprintID, roomKey domain.RoomKey, event string) (string, bool, error)
}

// Realms is the realm-facing slice of Store.
type Realms interface {
	CreateRealm(ctx context.Context, r domain.Realm) (domain.Realm, error)
	GetRealmByKey(ctx context.Context, key string) (domain.Realm, error)
	GetRealm(ctx context.Context, id domain.RealmID) (domain.Realm, error)
	DeleteRealm(ctx context.Context, id domain.RealmID) error
}

// Loot is the concurrency-sensitive loot-economy slice of Store (spec.md
// §4.5). Implementations must make PickupCoins race-free and DueSpawns
// lock-and-skip under concurrent callers, using whatever locking primitive
// their backing store offers (FOR UPDATE SKIP LOCKED row locks for pgstore,
// the single store-wide mutex for memstore).
type Loot interface {
	// DueSpawns returns LootSpawn rows with NextSpawnAt <= now, "locking"
	// them against other concurrent callers for the duration of the
	// transaction that contains this call (lock-and-skip: rows already
	// claimed elsewhere are omitted, not blocked on).
	DueSpawns(ctx context.Context, now time.Time, limit int) ([]domain.LootSpawn, error)
	CountAvailablePiles(ctx context.Context, realmID domain.RealmID, roomKey domain.RoomKey, item string) (int, error)
	InsertPile(ctx context.Context, pile domain.LootPile) (domain.LootPile, error)
	AdvanceSpawn(ctx context.Context, spawnID int64, next time.Time) error

	// PickupCoins atomically claims up to want units of item from the
	// highest-quantity available pile in the room, credits accountID's
	// balance by the amount actually claimed, and returns that amount.
	// Returns (0, nil) when no pile is available.
	PickupCoins(ctx context.Context, realmID domain.RealmID, roomKey domain.RoomKey, item string, accountID domain.AccountID, want int) (int, error)
}
