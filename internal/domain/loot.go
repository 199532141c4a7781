package domain

import "time"

// LootPile is a claimable quantity of an item present in a room (spec.md
// §3). A pile is available when PickedBy is unset.
type LootPile struct {
	ID       int64
	RealmID  RealmID
	RoomKey  RoomKey
	Item     string
	Qty      int
	PickedBy AccountID
	Picked   bool
	PickedAt time.Time
}

// Available reports whether the pile can still be picked up.
func (p LootPile) Available() bool { return !p.Picked && p.Qty > 0 }

// LootSpawn is a generator rule that periodically creates piles up to a
// cap (spec.md §3, §4.5).
type LootSpawn struct {
	ID           int64
	RealmID      RealmID
	RoomKey      RoomKey
	Item         string
	QtyMin       int
	QtyMax       int
	Interval     time.Duration
	MaxInstances int
	NextSpawnAt  time.Time
}

// Validate enforces the LootSpawn invariants from spec.md §3.
func (s LootSpawn) Validate() error {
	if s.QtyMin > s.QtyMax {
		return errInvalid("qty_min must be <= qty_max")
	}
	if s.MaxInstances < 0 {
		return errInvalid("max_instances must be >= 0")
	}
	return nil
}

func errInvalid(msg string) error {
	return &lootValidationError{msg}
}

type lootValidationError struct{ msg string }

func (e *lootValidationError) Error() string { return "invalid loot spawn: " + e.msg }

func (e *lootValidationError) Unwrap() error { return ErrInvalidInput }
