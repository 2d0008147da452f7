// Package state provides the shared-state store that coordinates every
// concurrent activity in a peercam node.
//
// # Overview
//
// A node runs several long-lived goroutines (capture, publish, subscribe,
// display, indicator) that all observe and mutate one pool of live runtime
// data: connection status, the latest captured frame, detection results and
// configuration values. Store is the single point of coordination between
// them: a mapping from string keys to arbitrary values, guarded by one
// reentrant mutual-exclusion lock.
//
// # Basic Usage
//
//	st := state.New(map[string]any{state.KeyConnected: false})
//
//	st.Set("latest_frame", frame)
//
//	people := st.GetDefault("local_people", 0).(int)
//
//	view := st.Snapshot() // consistent multi-key read
//
// # Atomicity
//
// Every exported operation is atomic: it appears instantaneous to other
// goroutines and no partial Update is ever visible. Callers that need a
// custom atomic sequence of reads and writes take the lock directly:
//
//	st.Lock()
//	defer st.Unlock()
//	if len(st.GetDefault("detections", nil).([]types.Detection)) > 0 {
//	    st.Set("display_local", false)
//	}
//
// The lock is reentrant, so operations on the store remain safe while it is
// held by the calling goroutine.
//
// # Foot-gun
//
// A caller that acquires the raw lock and never releases it (for example
// because its own logic panics without a deferred Unlock) makes the store
// permanently unavailable to every other goroutine. The store cannot detect
// or recover from this; balanced Lock/Unlock is caller discipline.
//
// # Blocking
//
// Operations block only for the duration needed to acquire the lock. Lock
// hold time is bounded by an in-memory map operation or copy; no operation
// performs I/O while holding it. No fairness guarantee is made about which
// contending goroutine acquires the lock first, and waits are unbounded.
package state
