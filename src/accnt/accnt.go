// Package accnt tracks per-process CPU usage, for spec.md §4.I's rusage
// extension. Nothing in §4.F's syscall core reads it back to userspace (no
// getrusage syscall is in scope) — it exists so a process's lifetime has
// somewhere to record time spent, the way every real process table does.
//
// Adapted from biscuit's accnt.Accnt_t: kept the atomic nanosecond counters
// and the locked Fetch/To_rusage snapshot encoding, dropped Io_time and
// Sleep_time (they subtract out scheduler-visible wait time that this
// teaching kernel's cooperative model, per spec.md §5, never measures).
package accnt

import "sync"
import "sync/atomic"
import "time"

import "util"

/// Accnt_t accumulates user and system time, in nanoseconds, for one
/// process. The embedded mutex lets Fetch take a consistent snapshot while
/// Utadd/Systadd are still being called concurrently by other accounting
/// sites.
type Accnt_t struct {
	Userns int64
	Sysns  int64
	sync.Mutex
}

/// Utadd adds delta nanoseconds of user time.
func (a *Accnt_t) Utadd(delta int) {
	atomic.AddInt64(&a.Userns, int64(delta))
}

/// Systadd adds delta nanoseconds of system time.
func (a *Accnt_t) Systadd(delta int) {
	atomic.AddInt64(&a.Sysns, int64(delta))
}

/// Now returns the current wall-clock time in nanoseconds, the clock source
/// every Utadd/Systadd caller times against.
func (a *Accnt_t) Now() int {
	return int(time.Now().UnixNano())
}

/// Finish charges the system-time counter with the elapsed time since
/// inttime, the moment a syscall entered the kernel.
func (a *Accnt_t) Finish(inttime int) {
	a.Systadd(a.Now() - inttime)
}

/// Add merges n's counters into a, used when a parent collects a reaped
/// child's usage (spec.md §4.E's waitpid does not do this today, but the
/// hook exists for a getrusage(RUSAGE_CHILDREN) extension).
func (a *Accnt_t) Add(n *Accnt_t) {
	a.Lock()
	a.Userns += n.Userns
	a.Sysns += n.Sysns
	a.Unlock()
}

/// Fetch returns a consistent rusage-encoded snapshot of a's counters.
func (a *Accnt_t) Fetch() []uint8 {
	a.Lock()
	ru := a.toRusage()
	a.Unlock()
	return ru
}

// toRusage packs Userns/Sysns as two {sec,usec} timeval pairs, the layout a
// copyout to a struct rusage expects.
func (a *Accnt_t) toRusage() []uint8 {
	const words = 4
	ret := make([]uint8, words*8)
	totv := func(nano int64) (int, int) {
		return int(nano / 1e9), int((nano % 1e9) / 1000)
	}
	off := 0
	s, us := totv(a.Userns)
	util.Writen(ret, 8, off, s)
	off += 8
	util.Writen(ret, 8, off, us)
	off += 8
	s, us = totv(a.Sysns)
	util.Writen(ret, 8, off, s)
	off += 8
	util.Writen(ret, 8, off, us)
	return ret
}
