// Package domain holds the typed identifiers, enums, and core value types
// shared by every subsystem: accounts, blueprints, realms, rooms, and the
// error taxonomy they all report through.
package domain

import "github.com/google/uuid"

// AccountID identifies a persistent player account.
type AccountID uuid.UUID

// BlueprintID identifies a blueprint independent of its human-facing key.
type BlueprintID uuid.UUID

// RealmID identifies a running instantiation of a blueprint.
type RealmID uuid.UUID

// RoomKey is the human-authored room identifier, unique within a blueprint.
type RoomKey string

// ObjectID is the human-authored object identifier, unique within a room.
type ObjectID string

// NewAccountID mints a fresh random account identifier.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewBlueprintID mints a fresh random blueprint identifier.
func NewBlueprintID() BlueprintID { return BlueprintID(uuid.New()) }

// NewRealmID mints a fresh random realm identifier.
func NewRealmID() RealmID { return RealmID(uuid.New()) }

func (id AccountID) String() string   { return uuid.UUID(id).String() }
func (id BlueprintID) String() string { return uuid.UUID(id).String() }
func (id RealmID) String() string     { return uuid.UUID(id).String() }

// IsZero reports whether the identifier was never assigned.
func (id AccountID) IsZero() bool   { return id == AccountID{} }
func (id BlueprintID) IsZero() bool { return id == BlueprintID{} }
func (id RealmID) IsZero() bool     { return id == RealmID{} }

// ParseAccountID parses a textual UUID into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseBlueprintID parses a textual UUID into a BlueprintID.
func ParseBlueprintID(s string) (BlueprintID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return BlueprintID{}, err
	}
	return BlueprintID(u), nil
}

// ParseRealmID parses a textual UUID into a RealmID.
func ParseRealmID(s string) (RealmID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RealmID{}, err
	}
	return RealmID(u), nil
}
