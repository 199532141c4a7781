package memstore

import (
	"context"
	"fmt"

	"github.com/port4k/port4k/internal/domain"
)

func (s *Store) CreateRealm(ctx context.Context, r domain.Realm) (domain.Realm, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	if _, exists := s.realmsByKey[r.Key]; exists {
		return domain.Realm{}, fmt.Errorf("realm %q: %w", r.Key, domain.ErrUniqueViolation)
	}
	if r.ID.IsZero() {
		r.ID = domain.NewRealmID()
	}
	s.realmsByID[r.ID] = r
	s.realmsByKey[r.Key] = r.ID
	return r, nil
}

func (s *Store) GetRealmByKey(ctx context.Context, key string) (domain.Realm, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	id, ok := s.realmsByKey[key]
	if !ok {
		return domain.Realm{}, fmt.Errorf("realm %q: %w", key, domain.ErrNotFound)
	}
	return s.realmsByID[id], nil
}

func (s *Store) GetRealm(ctx context.Context, id domain.RealmID) (domain.Realm, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	r, ok := s.realmsByID[id]
	if !ok {
		return domain.Realm{}, fmt.Errorf("realm %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (s *Store) DeleteRealm(ctx context.Context, id domain.RealmID) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	r, ok := s.realmsByID[id]
	if !ok {
		return fmt.Errorf("realm %s: %w", id, domain.ErrNotFound)
	}
	delete(s.realmsByID, id)
	delete(s.realmsByKey, r.Key)
	return nil
}
