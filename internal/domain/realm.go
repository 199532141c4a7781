package domain

// Realm is a running instantiation of a Blueprint.
type Realm struct {
	ID          RealmID
	Key         string
	Title       string
	OwnerID     AccountID
	Kind        RealmKind
	BlueprintID BlueprintID
}

// RoomView is the player-relative projection of a BlueprintRoom plus its
// instance-dependent overlays (spec.md §3 "Room (projected view)"). It is
// pure w.r.t. mutation: building one only reads store state.
type RoomView struct {
	RealmID     RealmID
	AccountID   AccountID
	RoomKey     RoomKey
	Title       string
	Short       string
	Body        string
	Exits       []ExitView
	Objects     []ObjectView
	LootPiles   []LootPile
	NounToObjID map[string]ObjectID // ASCII-lowercased, trimmed nouns
}

// ExitView is an exit as seen by one account: invisible-and-locked exits
// never appear here at all (spec.md §4.2).
type ExitView struct {
	Direction   Direction
	ToRoomKey   RoomKey
	Description string
	Locked      bool
}

// ObjectView is an object instance attached to its current state overlay.
type ObjectView struct {
	ID          ObjectID
	Nouns       []string
	Short       string
	Description string
	Examine     string
	HasExamine  bool
	State       map[string]any
	HasOnUse    bool
	Position    int
}

// Cursor is a session's current (realm, room) binding plus its projected
// view (spec.md §3 "Cursor").
type Cursor struct {
	RealmID   RealmID
	Room      RoomView
	RoomKey   RoomKey
	AccountID AccountID
}
