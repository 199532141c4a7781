package script

import (
	"context"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/port4k/port4k/internal/domain"
)

// DefaultTimeout is the per-call wall-clock deadline of spec.md §4.3.
const DefaultTimeout = 250 * time.Millisecond

// Engine owns the single dedicated interpreter goroutine. All script
// execution is serialised through jobs; at most one job runs at a time,
// which is also the invariant spec.md §8 requires ("At most one script
// job for a session executes at a time" follows from there being exactly
// one interpreter thread server-wide).
type Engine struct {
	jobs      chan Job
	replVMs   map[string]*lua.LState
	closeOnce chan struct{}
}

// NewEngine starts the interpreter goroutine and returns a handle used to
// submit jobs. Callers stop the engine via Close.
func NewEngine() *Engine {
	e := &Engine{
		jobs:      make(chan Job, 64),
		replVMs:   make(map[string]*lua.LState),
		closeOnce: make(chan struct{}),
	}
	go e.loop()
	return e
}

// Close stops accepting new jobs and releases every REPL VM. In-flight
// jobs already read from the channel still complete.
func (e *Engine) Close() {
	close(e.jobs)
}

// Submit enqueues a job and blocks until its reply is ready or ctx is
// done. Submit itself does not time out the script — Job.Timeout (or
// DefaultTimeout) bounds execution inside the interpreter goroutine; ctx
// only bounds how long the caller is willing to wait for the queue.
func (e *Engine) Submit(ctx context.Context, job Job) Result {
	reply := make(chan Result, 1)
	job.Reply = reply
	if job.Timeout <= 0 {
		job.Timeout = DefaultTimeout
	}
	select {
	case e.jobs <- job:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}

func (e *Engine) loop() {
	for job := range e.jobs {
		job.Reply <- e.run(job)
	}
	for _, L := range e.replVMs {
		L.Close()
	}
}

func (e *Engine) run(job Job) Result {
	if job.Kind == KindCompileCheck {
		if err := CompileCheck(job.Source); err != nil {
			return Result{Err: err}
		}
		return Result{}
	}

	var L *lua.LState
	closeAfter := true
	if job.Kind == KindRepl {
		var ok bool
		L, ok = e.replVMs[job.SessionID]
		if !ok {
			L = newSandboxedState()
			e.replVMs[job.SessionID] = L
		}
		closeAfter = false
	} else {
		L = newSandboxedState()
	}
	if closeAfter {
		defer L.Close()
	}

	ec := &execCtx{cursor: job.Cursor, object: job.Object, output: job.Output}
	registerBridge(L, ec)
	registerIntent(L, job.Intent)

	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()
	L.SetContext(ctx)

	fn, err := L.LoadString(job.Source)
	if err != nil {
		return Result{Err: wrapCompileError(err)}
	}
	L.Push(fn)
	callErr := L.PCall(0, 1, nil)
	if callErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{TimedOut: true, Err: domain.ErrScriptTimedOut, Mutations: ec.mutations}
		}
		return Result{Err: callErr, Mutations: ec.mutations}
	}

	ret := L.Get(-1)
	L.Pop(1)
	kind, b, i, s := resultFromLua(ret)
	return Result{Kind: kind, Bool: b, Int: i, Str: s, Mutations: ec.mutations}
}

// registerIntent exposes the dispatched command's intent to on_command
// hooks as the global table `cmd` (verb/args/direct/direction), so a room
// script can decide whether it recognises a custom verb (spec.md §4.1
// "fallback path").
func registerIntent(L *lua.LState, intent Intent) {
	t := L.NewTable()
	L.SetField(t, "verb", lua.LString(intent.Verb))
	L.SetField(t, "direct", lua.LString(intent.Direct))
	L.SetField(t, "direction", lua.LString(intent.Direction))
	args := L.NewTable()
	for _, a := range intent.Args {
		args.Append(lua.LString(a))
	}
	L.SetField(t, "args", args)
	L.SetGlobal("cmd", t)
}
