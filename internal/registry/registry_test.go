package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store/memstore"
)

func TestMarkOnlineOfflineTracksUsernames(t *testing.T) {
	reg := New(memstore.New(), zap.NewNop())
	a, b := domain.NewAccountID(), domain.NewAccountID()

	reg.MarkOnline(a, "rin")
	reg.MarkOnline(b, "tam")
	require.ElementsMatch(t, []string{"rin", "tam"}, reg.OnlineUsernames())

	reg.MarkOffline(a)
	require.Equal(t, []string{"tam"}, reg.OnlineUsernames())
}

func TestDispatcherIsWiredToRegistryStoreAndOnlineTracker(t *testing.T) {
	reg := New(memstore.New(), zap.NewNop())
	d := reg.Dispatcher()
	require.Same(t, reg.Store, d.Store)
	require.Same(t, reg.Runner, d.Runner)
	require.NotNil(t, d.Online)
}
