package pgstore

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"

	"github.com/port4k/port4k/internal/domain"
)

func uuidOf[T ~[16]byte](id T) uuid.UUID { return uuid.UUID(id) }

// nullUUID returns nil when present is false, so the column is written as
// SQL NULL rather than the all-zero uuid (spec.md §3's nullable-pair
// coordinates for current/spawn realm+room).
func nullUUID[T ~[16]byte](present bool, id T) any {
	if !present {
		return nil
	}
	return uuid.UUID(id)
}

func nullRoomKey(present bool, key domain.RoomKey) any {
	if !present {
		return nil
	}
	return string(key)
}

// nullableUUID scans a nullable uuid column, leaving UUID at its zero
// value when the column was NULL.
type nullableUUID struct {
	UUID  uuid.UUID
	Valid bool
}

func (n *nullableUUID) Scan(src any) error {
	if src == nil {
		n.UUID, n.Valid = uuid.UUID{}, false
		return nil
	}
	switch v := src.(type) {
	case [16]byte:
		n.UUID = uuid.UUID(v)
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		n.UUID = u
	case uuid.UUID:
		n.UUID = v
	default:
		return fmt.Errorf("pgstore: cannot scan %T into uuid", src)
	}
	n.Valid = true
	return nil
}

func (n nullableUUID) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.UUID, nil
}
