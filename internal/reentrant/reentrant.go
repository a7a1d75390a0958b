// Package reentrant implements a goroutine-reentrant mutex: the goroutine
// currently holding the lock may re-acquire it without deadlocking itself.
// Every other goroutine blocks (Lock) or fails (TryLock) as usual.
//
// Kakshya's container and region cache manager both need this: spec §4.C
// and §4.B describe a "reentrant lock" in the C++ sense (same thread may
// re-enter its own critical section), which sync.Mutex does not provide.
// Go has no public goroutine-id API, so the owner is tracked by parsing
// the "goroutine N [...]:" header runtime.Stack prints for the calling
// goroutine — the same trick used by several goroutine-local-storage
// shims in the wider Go ecosystem.
package reentrant

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseInt(string(fields[1]), 10, 64)
	return id
}

// Mutex is a reentrant mutual-exclusion lock.
type Mutex struct {
	mu    sync.Mutex
	owner atomic.Int64 // 0 = unlocked
	depth int
}

func (m *Mutex) Lock() {
	gid := goroutineID()
	if m.owner.Load() == gid {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(gid)
	m.depth = 1
}

func (m *Mutex) Unlock() {
	gid := goroutineID()
	if m.owner.Load() != gid {
		return
	}
	m.depth--
	if m.depth > 0 {
		return
	}
	m.owner.Store(0)
	m.mu.Unlock()
}

// TryLock attempts to acquire without blocking, succeeding immediately if
// the caller already holds the lock.
func (m *Mutex) TryLock() bool {
	gid := goroutineID()
	if m.owner.Load() == gid {
		m.depth++
		return true
	}
	if !m.mu.TryLock() {
		return false
	}
	m.owner.Store(gid)
	m.depth = 1
	return true
}

// Held reports whether the calling goroutine currently holds the lock.
func (m *Mutex) Held() bool {
	return m.owner.Load() == goroutineID()
}
