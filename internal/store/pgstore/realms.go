package pgstore

import (
	"context"

	"github.com/port4k/port4k/internal/domain"
)

func (s *Store) CreateRealm(ctx context.Context, r domain.Realm) (domain.Realm, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO realms (id, key, title, owner_id, kind, blueprint_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuidOf(r.ID), r.Key, r.Title, uuidOf(r.OwnerID), int(r.Kind), uuidOf(r.BlueprintID),
	)
	if err != nil {
		return domain.Realm{}, mapErr(err)
	}
	return r, nil
}

func (s *Store) GetRealmByKey(ctx context.Context, key string) (domain.Realm, error) {
	return s.scanRealm(s.db.QueryRow(ctx, realmSelect+" WHERE key = $1", key))
}

func (s *Store) GetRealm(ctx context.Context, id domain.RealmID) (domain.Realm, error) {
	return s.scanRealm(s.db.QueryRow(ctx, realmSelect+" WHERE id = $1", uuidOf(id)))
}

func (s *Store) DeleteRealm(ctx context.Context, id domain.RealmID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM realms WHERE id = $1`, uuidOf(id))
	return mapErr(err)
}

const realmSelect = `SELECT id, key, title, owner_id, kind, blueprint_id FROM realms`

func (s *Store) scanRealm(row interface{ Scan(dest ...any) error }) (domain.Realm, error) {
	var r domain.Realm
	var id, owner, bp nullableUUID
	var kind int
	if err := row.Scan(&id, &r.Key, &r.Title, &owner, &kind, &bp); err != nil {
		return domain.Realm{}, mapErr(err)
	}
	r.ID = domain.RealmID(id.UUID)
	r.OwnerID = domain.AccountID(owner.UUID)
	r.BlueprintID = domain.BlueprintID(bp.UUID)
	r.Kind = domain.RealmKind(kind)
	return r, nil
}
