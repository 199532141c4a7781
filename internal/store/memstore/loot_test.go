package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/port4k/port4k/internal/domain"
)

func TestPickupCoinsNeverGoesNegativeAndNeverDoubleCredits(t *testing.T) {
	s := New()
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, domain.Account{Username: "alice"})
	require.NoError(t, err)

	realmID := domain.NewRealmID()
	room := domain.RoomKey("cell_block")
	_, err = s.InsertPile(ctx, domain.LootPile{RealmID: realmID, RoomKey: room, Item: "coin", Qty: 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := s.PickupCoins(ctx, realmID, room, "coin", acct.ID, 3)
			require.NoError(t, err)
			results[i] = n
		}(i)
	}
	wg.Wait()

	total := results[0] + results[1]
	require.Equal(t, 5, total, "total claimed must equal the pile's starting quantity")
	for _, n := range results {
		require.GreaterOrEqual(t, n, 0)
		require.LessOrEqual(t, n, 3)
	}

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, total, got.Coins)

	n, err := s.CountAvailablePiles(ctx, realmID, room, "coin")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestPickupCoinsNoPileReturnsZero(t *testing.T) {
	s := New()
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.Account{Username: "bob"})
	require.NoError(t, err)

	n, err := s.PickupCoins(ctx, domain.NewRealmID(), "nowhere", "coin", acct.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
