package command

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// DefaultRealmKey and DefaultRoomKey are the fallback spawn point for an
// account with no current coordinates (spec.md §8 scenario 1).
const (
	DefaultRealmKey = "live_world"
	DefaultRoomKey  = domain.RoomKey("cell_block")
)

// HashPassword mirrors the teacher's bcrypt.DefaultCost usage
// (internal/game/accounts.go), kept as the external contract spec.md §1
// calls "password hashing primitives".
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Authenticate looks up username and verifies plain against its stored
// hash. A not-found account and a wrong password are indistinguishable to
// the caller (spec.md §8 scenario 1: "Login failed" either way).
func Authenticate(ctx context.Context, s store.Store, username, plain string) (domain.Account, bool) {
	acct, err := s.GetAccountByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, false
	}
	if acct.LockedOut || !checkPassword(acct.Password, plain) {
		return domain.Account{}, false
	}
	return acct, true
}

// Register creates a new account with the default User role, spawning it
// nowhere until its first successful login resolves the default realm.
func Register(ctx context.Context, s store.Store, username, plain string) (domain.Account, error) {
	clean, err := domain.ValidateUsername(username)
	if err != nil {
		return domain.Account{}, err
	}
	hash, err := HashPassword(plain)
	if err != nil {
		return domain.Account{}, err
	}
	acct := domain.Account{
		ID:        domain.NewAccountID(),
		Username:  clean,
		Password:  hash,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
		ShowMOTD:  true,
	}
	return s.CreateAccount(ctx, acct)
}

var errNoDefaultRealm = errors.New("command: default realm not provisioned")

// ResolveSpawn returns the account's current coordinates, falling back to
// its spawn coordinates, then to the server's default realm/room (spec.md
// §8 scenario 1).
func ResolveSpawn(ctx context.Context, s store.Store, acct domain.Account) (domain.Realm, domain.RoomKey, error) {
	if acct.HasCurrent {
		realm, err := s.GetRealm(ctx, acct.CurrentRealmID)
		if err == nil {
			return realm, acct.CurrentRoomID, nil
		}
	}
	if acct.HasSpawn {
		realm, err := s.GetRealm(ctx, acct.SpawnRealmID)
		if err == nil {
			return realm, acct.SpawnRoomKey, nil
		}
	}
	realm, err := s.GetRealmByKey(ctx, DefaultRealmKey)
	if err != nil {
		return domain.Realm{}, "", errNoDefaultRealm
	}
	return realm, DefaultRoomKey, nil
}
