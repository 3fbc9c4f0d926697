package jobs

import "sync/atomic"

// Context is the scheduler-wide environment overlay applied to every job
// after all other environment sources, so its values always win. It is
// published as an atomically-swappable immutable value: UpdateContext
// installs a fresh one without ever mutating one a running job might be
// reading.
type Context struct {
	Environment map[string]string
}

// ContextRef holds the current Context behind an atomic pointer.
type ContextRef struct {
	ptr atomic.Pointer[Context]
}

func NewContextRef() *ContextRef {
	r := &ContextRef{}
	r.ptr.Store(&Context{Environment: map[string]string{}})
	return r
}

func (r *ContextRef) Load() *Context {
	return r.ptr.Load()
}

func (r *ContextRef) Store(ctx *Context) {
	r.ptr.Store(ctx)
}
