// Package memstore is an in-memory Store implementation, grounded on the
// teacher's mutex-guarded map pattern (internal/game/accounts.go,
// internal/game/world.go) but generalised to the full store.Store contract.
// It backs the loot, importer and registry tests; the cmd/ binaries all use
// pgstore.
package memstore

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

type roomKey struct {
	bp  domain.BlueprintID
	key domain.RoomKey
}

type exitKey struct {
	bp   domain.BlueprintID
	from domain.RoomKey
	dir  domain.Direction
}

type draftKey struct {
	bp    domain.BlueprintID
	room  domain.RoomKey
	event string
}

// Store is an in-memory, mutex-guarded implementation of store.Store.
// A single sync.Mutex guards everything; each exported method holds it for
// its own critical section and Tx holds no lock across its callback (see
// Tx), which is sufficient here since there is no real I/O to suspend on. This mirrors the teacher's single-mutex-per-map style rather
// than inventing per-table locks that would only matter for a real backend.
type Store struct {
	mu sync.Mutex

	accountsByID   map[domain.AccountID]domain.Account
	accountsByName map[string]domain.AccountID

	blueprintsByID  map[domain.BlueprintID]domain.Blueprint
	blueprintsByKey map[string]domain.BlueprintID
	rooms           map[roomKey]domain.BlueprintRoom
	exits           map[exitKey]domain.BlueprintExit
	drafts          map[draftKey]string

	realmsByID  map[domain.RealmID]domain.Realm
	realmsByKey map[string]domain.RealmID

	spawns    map[int64]*domain.LootSpawn
	nextSpawn int64
	piles     map[int64]*domain.LootPile
	nextPile  int64

	rng *rand.Rand
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{
		accountsByID:    make(map[domain.AccountID]domain.Account),
		accountsByName:  make(map[string]domain.AccountID),
		blueprintsByID:  make(map[domain.BlueprintID]domain.Blueprint),
		blueprintsByKey: make(map[string]domain.BlueprintID),
		rooms:           make(map[roomKey]domain.BlueprintRoom),
		exits:           make(map[exitKey]domain.BlueprintExit),
		drafts:          make(map[draftKey]string),
		realmsByID:      make(map[domain.RealmID]domain.Realm),
		realmsByKey:     make(map[string]domain.RealmID),
		spawns:          make(map[int64]*domain.LootSpawn),
		piles:           make(map[int64]*domain.LootPile),
		rng:             rand.New(rand.NewSource(1)),
	}
}

// Tx runs fn against the same store. Every exported method here already
// takes s.mu for its own critical section, so Tx itself holds no lock
// across fn (sync.Mutex is not reentrant) — it provides the Store.Tx call
// shape, not cross-call atomicity. There is no partial-rollback support for
// the in-memory backend's direct-map mutations; callers that need
// atomicity build up their writes and apply them only after all validation
// succeeds (see internal/importer), which is the same discipline a real
// transaction enforces.
func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context, st store.Store) error) error {
	return fn(ctx, s)
}

// --- Accounts ---

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	name := normalizeUsername(a.Username)
	if _, exists := s.accountsByName[name]; exists {
		return domain.Account{}, fmt.Errorf("account %q: %w", a.Username, domain.ErrUniqueViolation)
	}
	if a.ID.IsZero() {
		a.ID = domain.NewAccountID()
	}
	a.Username = name
	s.accountsByID[a.ID] = a
	s.accountsByName[name] = a.ID
	return a, nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	id, ok := s.accountsByName[normalizeUsername(username)]
	if !ok {
		return domain.Account{}, fmt.Errorf("account %q: %w", username, domain.ErrNotFound)
	}
	return s.accountsByID[id], nil
}

func (s *Store) GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	a, ok := s.accountsByID[id]
	if !ok {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a domain.Account) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	if _, ok := s.accountsByID[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, domain.ErrNotFound)
	}
	s.accountsByID[a.ID] = a
	return nil
}

func (s *Store) RecordLogin(ctx context.Context, id domain.AccountID, at time.Time) error {
	s.lockIfOutsideTx()
	defer s.unlockIfOutsideTx()

	a, ok := s.accountsByID[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	a.LastLogin = at
	s.accountsByID[id] = a
	return nil
}

func normalizeUsername(raw string) string {
	name, err := domain.ValidateUsername(raw)
	if err != nil {
		return raw
	}
	return name
}

func (s *Store) lockIfOutsideTx()   { s.mu.Lock() }
func (s *Store) unlockIfOutsideTx() { s.mu.Unlock() }

var _ store.Store = (*Store)(nil)

// SeedRandom is exposed for tests that need deterministic loot rolls.
func (s *Store) SeedRandom(seed int64) { s.rng = rand.New(rand.NewSource(seed)) }
