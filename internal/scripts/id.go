package scripts

import "sync/atomic"

// ID is an opaque, process-wide unique script identity allocated at load
// time. Its only meaningful operations are equality, use as a map key, and
// debug rendering — callers must never rely on its numeric value.
type ID uint64

var idCounter atomic.Uint64

func nextID() ID {
	return ID(idCounter.Add(1))
}
