package state

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// recursiveMutex is a mutual-exclusion lock that may be re-acquired by the
// goroutine that already holds it. Go's sync.Mutex is not reentrant, so
// ownership is tracked explicitly with the holder's goroutine id and a
// recursion counter.
type recursiveMutex struct {
	mu        sync.Mutex
	owner     atomic.Uint64 // goroutine id of the current holder, 0 when free
	recursion uint32        // nested acquisitions by the owner
}

// Lock acquires the mutex, blocking until it is available. If the calling
// goroutine already holds it, the recursion counter is incremented and Lock
// returns immediately.
func (m *recursiveMutex) Lock() {
	gid := goroutineID()
	if m.owner.Load() == gid {
		m.recursion++
		return
	}
	m.mu.Lock()
	m.owner.Store(gid)
	m.recursion = 1
}

// Unlock releases one level of acquisition. The mutex becomes available to
// other goroutines only when every nested Lock has been balanced.
//
// Panics if the calling goroutine does not hold the mutex.
func (m *recursiveMutex) Unlock() {
	gid := goroutineID()
	if m.owner.Load() != gid {
		panic("state: Unlock called by goroutine that does not hold the lock")
	}
	m.recursion--
	if m.recursion == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// goroutineID extracts the id of the calling goroutine from the first line
// of its stack trace ("goroutine 18 [running]:"). The runtime offers no
// public accessor; parsing the header is the established workaround.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(header, ' '); i >= 0 {
		header = header[:i]
	}
	id, err := strconv.ParseUint(header, 10, 64)
	if err != nil {
		panic("state: cannot parse goroutine id: " + err.Error())
	}
	return id
}
