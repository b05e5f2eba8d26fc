// Package proc implements spec.md §4.E: the process table and the
// parent/child/zombie lifecycle that backs fork, exit, and waitpid.
//
// The struct shape follows biscuit's convention of a record embedding a
// lock per concern (vm.AddrSpace_t's mu, mem.Physmem_t's mu) rather than one
// coarse lock; Children reuses src/list's integer linked list (spec.md
// §4.A) to hold child pids, the same way a teaching kernel would rather
// than reaching for a generic container. The zombie/orphan bookkeeping
// itself is spec.md §4.E's own algorithm — no analogous struct exists in
// the teacher pack, since biscuit's init/scheduler packages were not part
// of the retrieved example set.
package proc

import "sync"

import "defs"

import "accnt"
import "coremap"
import "list"
import "vm"

/// Process_t is one row of the process table.
type Process_t struct {
	Pid  defs.Pid_t
	Name string
	AS   *vm.AddrSpace_t

	// parentLock guards ParentPid and the zombie-vs-self-destroy decision
	// in Exit; it is a distinct lock from exitLock because a process reads
	// its OWN parentPid while a different goroutine (the parent, or a
	// reparenting Exit) may be writing it concurrently.
	parentLock sync.Mutex
	ParentPid  defs.Pid_t

	Children *list.IntList_t

	// exitLock/exitCv implement the rendezvous between Exit (the child)
	// and Wait (the parent): Exit sets Zombie+ExitStatus then signals,
	// Wait blocks on the condition variable until Zombie becomes true.
	exitLock   sync.Mutex
	exitCv     *sync.Cond
	Zombie     bool
	ExitStatus int

	Accounting accnt.Accnt_t
}

/// Table_t is the fixed-size process table: spec.md §4.E caps the number of
/// simultaneously live processes at defs.NPROC and reports EMPROC once full.
type Table_t struct {
	mu      sync.Mutex
	procs   map[defs.Pid_t]*Process_t
	nextPid defs.Pid_t
}

/// NewTable constructs an empty process table. pid 1 is the first pid
/// handed out; defs.NoPid (0) is reserved as the "no parent" sentinel.
func NewTable() *Table_t {
	return &Table_t{procs: make(map[defs.Pid_t]*Process_t), nextPid: 1}
}

/// Spawn allocates a pid, a fresh address space bound to cm, and registers
/// the new process as a child of parentPid. Returns EMPROC if the table is
/// at capacity.
func (t *Table_t) Spawn(name string, parentPid defs.Pid_t, cm *coremap.Coremap_t) (*Process_t, defs.Err_t) {
	return t.SpawnWithAddrSpace(name, parentPid, vm.Create(cm))
}

/// SpawnWithAddrSpace allocates a pid and registers as as the new process's
/// address space, instead of creating a fresh one. fork (src/sysproc) uses
/// this with an already-copied address space; Spawn is the fresh-process
/// convenience wrapper around it.
func (t *Table_t) SpawnWithAddrSpace(name string, parentPid defs.Pid_t, as *vm.AddrSpace_t) (*Process_t, defs.Err_t) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.procs) >= defs.NPROC {
		return nil, -defs.EMPROC
	}

	var pid defs.Pid_t
	for i := 0; i < defs.NPROC; i++ {
		cand := t.nextPid
		t.nextPid++
		if t.nextPid <= 0 {
			t.nextPid = 1
		}
		if _, taken := t.procs[cand]; !taken && cand != defs.NoPid {
			pid = cand
			break
		}
	}
	if pid == defs.NoPid {
		return nil, -defs.EMPROC
	}

	p := &Process_t{
		Pid:       pid,
		Name:      name,
		AS:        as,
		ParentPid: parentPid,
		Children:  list.Create(),
	}
	p.exitCv = sync.NewCond(&p.exitLock)
	t.procs[pid] = p

	if parent, ok := t.procs[parentPid]; ok {
		parent.Children.Add(int(pid))
	}
	return p, 0
}

/// Lookup returns the process with the given pid, if it is still in the
/// table (neither reaped nor never-existed).
func (t *Table_t) Lookup(pid defs.Pid_t) (*Process_t, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.procs[pid]
	return p, ok
}

// remove drops pid from the table entirely. Called once a process is
// either reaped by its parent (Wait) or has no parent left to reap it
// (Exit's self-destroy branch).
func (t *Table_t) remove(pid defs.Pid_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, pid)
}

/// Exit implements spec.md §4.E's exit algorithm:
//
//  1. Walk the exiting process's own children: a child that is already a
//     zombie is reaped immediately (it has no one else to reap it); a
//     still-live child is orphaned by clearing its parent pid.
//  2. Under the exiting process's own parentLock, decide its own fate: if
//     it has no parent left (ParentPid == NoPid, including a parent that
//     already exited), it self-destroys immediately since nothing will ever
//     call Wait on it; otherwise it becomes a zombie, records status, and
//     wakes anyone already blocked in Wait.
func (t *Table_t) Exit(p *Process_t, status int) {
	p.Children.Each(func(childPid int) {
		child, ok := t.Lookup(defs.Pid_t(childPid))
		if !ok {
			return
		}
		child.parentLock.Lock()
		if child.Zombie {
			child.parentLock.Unlock()
			t.remove(child.Pid)
			return
		}
		child.ParentPid = defs.NoPid
		child.parentLock.Unlock()
	})

	p.parentLock.Lock()
	orphan := p.ParentPid == defs.NoPid
	if !orphan {
		if _, parentAlive := t.Lookup(p.ParentPid); !parentAlive {
			orphan = true
		}
	}
	if orphan {
		p.parentLock.Unlock()
		t.remove(p.Pid)
		return
	}

	p.exitLock.Lock()
	p.Zombie = true
	p.ExitStatus = status
	p.exitCv.Signal()
	p.exitLock.Unlock()
	p.parentLock.Unlock()
}

/// Wait implements waitpid: blocks the caller until childPid becomes a
/// zombie, then reaps it (removes it from both the table and the caller's
/// child list) and returns its exit status. Returns ENOCHLD if childPid is
/// not one of the caller's children.
func (t *Table_t) Wait(caller *Process_t, childPid defs.Pid_t) (int, defs.Err_t) {
	if !caller.Children.Contains(int(childPid)) {
		return 0, -defs.ENOCHLD
	}
	child, ok := t.Lookup(childPid)
	if !ok {
		return 0, -defs.ESRCH
	}

	child.exitLock.Lock()
	for !child.Zombie {
		child.exitCv.Wait()
	}
	status := child.ExitStatus
	child.exitLock.Unlock()

	caller.Children.Remove(int(childPid))
	t.remove(childPid)
	return status, 0
}

/// Rusage returns a snapshot of p's accumulated CPU-time accounting,
/// spec.md §4.I's addition. No syscall in §4.F copies this out today; it is
/// wired up for a future getrusage.
func (p *Process_t) Rusage() []uint8 {
	return p.Accounting.Fetch()
}
