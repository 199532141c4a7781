package pgstore

import (
	"context"
	"time"

	"github.com/port4k/port4k/internal/domain"
)

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (
			id, username, password, role, created_at, last_login, locked_out, show_motd,
			has_current, current_realm_id, current_room_key,
			has_spawn, spawn_realm_id, spawn_room_key,
			health, xp, coins
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		uuidOf(a.ID), a.Username, a.Password, int(a.Role), a.CreatedAt, a.LastLogin, a.LockedOut, a.ShowMOTD,
		a.HasCurrent, nullUUID(a.HasCurrent, a.CurrentRealmID), nullRoomKey(a.HasCurrent, a.CurrentRoomID),
		a.HasSpawn, nullUUID(a.HasSpawn, a.SpawnRealmID), nullRoomKey(a.HasSpawn, a.SpawnRoomKey),
		a.Health, a.XP, a.Coins,
	)
	if err != nil {
		return domain.Account{}, mapErr(err)
	}
	return a, nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	return s.scanAccount(s.db.QueryRow(ctx, accountSelect+" WHERE username = $1", username))
}

func (s *Store) GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	return s.scanAccount(s.db.QueryRow(ctx, accountSelect+" WHERE id = $1", uuidOf(id)))
}

func (s *Store) UpdateAccount(ctx context.Context, a domain.Account) error {
	_, err := s.db.Exec(ctx, `
		UPDATE accounts SET
			password=$2, role=$3, locked_out=$4, show_motd=$5,
			has_current=$6, current_realm_id=$7, current_room_key=$8,
			has_spawn=$9, spawn_realm_id=$10, spawn_room_key=$11,
			health=$12, xp=$13, coins=$14
		WHERE id = $1`,
		uuidOf(a.ID), a.Password, int(a.Role), a.LockedOut, a.ShowMOTD,
		a.HasCurrent, nullUUID(a.HasCurrent, a.CurrentRealmID), nullRoomKey(a.HasCurrent, a.CurrentRoomID),
		a.HasSpawn, nullUUID(a.HasSpawn, a.SpawnRealmID), nullRoomKey(a.HasSpawn, a.SpawnRoomKey),
		a.Health, a.XP, a.Coins,
	)
	return mapErr(err)
}

func (s *Store) RecordLogin(ctx context.Context, id domain.AccountID, at time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE accounts SET last_login = $2 WHERE id = $1`, uuidOf(id), at)
	return mapErr(err)
}

const accountSelect = `
	SELECT id, username, password, role, created_at, last_login, locked_out, show_motd,
		has_current, current_realm_id, current_room_key,
		has_spawn, spawn_realm_id, spawn_room_key,
		health, xp, coins
	FROM accounts`

func (s *Store) scanAccount(row interface {
	Scan(dest ...any) error
}) (domain.Account, error) {
	var a domain.Account
	var id, currentRealm, spawnRealm nullableUUID
	var currentRoom, spawnRoom *string
	var role int
	if err := row.Scan(
		&id, &a.Username, &a.Password, &role, &a.CreatedAt, &a.LastLogin, &a.LockedOut, &a.ShowMOTD,
		&a.HasCurrent, &currentRealm, &currentRoom,
		&a.HasSpawn, &spawnRealm, &spawnRoom,
		&a.Health, &a.XP, &a.Coins,
	); err != nil {
		return domain.Account{}, mapErr(err)
	}
	a.ID = domain.AccountID(id.UUID)
	a.Role = domain.Role(role)
	a.CurrentRealmID = domain.RealmID(currentRealm.UUID)
	a.SpawnRealmID = domain.RealmID(spawnRealm.UUID)
	if currentRoom != nil {
		a.CurrentRoomID = domain.RoomKey(*currentRoom)
	}
	if spawnRoom != nil {
		a.SpawnRoomKey = domain.RoomKey(*spawnRoom)
	}
	return a, nil
}
