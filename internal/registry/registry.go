// Package registry is the single composition root of spec.md §9 "Global
// mutable state": it binds the store, the script engine, the loot
// spawner, and the process-wide online-user set, and is passed explicitly
// to every transport and command handler rather than exposed as package
// globals.
package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/command"
	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/loot"
	"github.com/port4k/port4k/internal/script"
	"github.com/port4k/port4k/internal/store"
)

// Registry owns every long-lived server-side dependency.
type Registry struct {
	Store   store.Store
	Engine  *script.Engine
	Runner  *script.Runner
	Spawner *loot.Spawner
	Log     *zap.Logger

	online *onlineSet
}

// New wires a Registry over s: a script engine, a Runner bound to s's
// realm lookup, a loot spawner, and an empty online-user set.
func New(s store.Store, log *zap.Logger) *Registry {
	engine := script.NewEngine()
	runner := script.NewRunner(engine, s, s.GetRealm)
	return &Registry{
		Store:   s,
		Engine:  engine,
		Runner:  runner,
		Spawner: loot.NewSpawner(s, log),
		Log:     log,
		online:  newOnlineSet(),
	}
}

// Close releases the script engine's interpreter goroutine.
func (r *Registry) Close() { r.Engine.Close() }

// Dispatcher builds a command.Dispatcher bound to this registry's store,
// runner, and logger, ready to hand to any transport.
func (r *Registry) Dispatcher() *command.Dispatcher {
	return &command.Dispatcher{Store: r.Store, Runner: r.Runner, Log: r.Log, Online: r}
}

// RunLootSpawner runs the spawner until ctx is cancelled; call it once in
// a background goroutine from cmd/port4k-server.
func (r *Registry) RunLootSpawner(ctx context.Context) { r.Spawner.Run(ctx) }

// MarkOnline/MarkOffline/OnlineUsernames implement the mutex-guarded online-user
// set of spec.md §5 "Shared state", updated on login/logout.
func (r *Registry) MarkOnline(id domain.AccountID, username string) { r.online.add(id, username) }
func (r *Registry) MarkOffline(id domain.AccountID)                 { r.online.remove(id) }
func (r *Registry) OnlineUsernames() []string                       { return r.online.usernames() }

type onlineSet struct {
	mu    sync.Mutex
	byID  map[domain.AccountID]string
}

func newOnlineSet() *onlineSet { return &onlineSet{byID: make(map[domain.AccountID]string)} }

func (o *onlineSet) add(id domain.AccountID, username string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.byID[id] = username
}

func (o *onlineSet) remove(id domain.AccountID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.byID, id)
}

func (o *onlineSet) usernames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.byID))
	for _, u := range o.byID {
		out = append(out, u)
	}
	return out
}
