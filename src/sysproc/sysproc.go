// Package sysproc implements spec.md §4.F: the syscall bodies layered on
// top of src/proc's process table and src/vm's address spaces — fork,
// execv, _exit, waitpid, getpid.
//
// The argv stack-building algorithm in BuildArgv is a direct port of
// original_source's runprogram.c OPT_A2 branch (copy each string, align to
// 4 bytes, push a reversed, NULL-terminated pointer array, align to 8
// bytes) into the copyin/copyout idiom src/vm/userbuf.go already provides;
// Fork/Exit/Waitpid/Getpid are thin wrappers sequencing src/vm and src/proc
// operations in the order spec.md §4.F requires.
package sysproc

import "defs"
import "hal"

import "coremap"
import "proc"
import "tlb"
import "util"
import "vm"

/// Syscalls_t bundles the process table, frame allocator, and TLB every
/// syscall body needs. One instance is shared by every process in the
/// simulation, mirroring biscuit's convention of a single package-level
/// process table.
type Syscalls_t struct {
	Table *proc.Table_t
	CM    *coremap.Coremap_t
	HW    hal.TLB
}

/// New constructs a syscall dispatcher bound to table, cm, and hw.
func New(table *proc.Table_t, cm *coremap.Coremap_t, hw hal.TLB) *Syscalls_t {
	return &Syscalls_t{Table: table, CM: cm, HW: hw}
}

/// Fork duplicates current's address space and registers the copy as a new
/// child process. The child activates its own address space (invalidating
/// any stale TLB entries left by whatever last ran) before returning its
/// pid to the (simulated) parent.
func (s *Syscalls_t) Fork(current *proc.Process_t) (defs.Pid_t, defs.Err_t) {
	childAS, err := current.AS.Copy()
	if err != 0 {
		return 0, err
	}
	child, err := s.Table.SpawnWithAddrSpace(current.Name, current.Pid, childAS)
	if err != 0 {
		childAS.Destroy()
		return 0, err
	}
	tlb.Activate(s.HW)
	return child.Pid, 0
}

// BuildArgv lays out argv on nu's user stack the way runprogram.c's
// OPT_A2 stack-building loop does: each string is copied out starting just
// below the previous item, the pointer array is pushed in reverse (so it
// reads left-to-right once complete) after a 4-byte alignment, and the
// final stack pointer is aligned to 8 bytes before the simulated entry.
// Returns the aligned stack pointer and the user address of argv[0]'s
// pointer slot.
func BuildArgv(nu *vm.AddrSpace_t, argv []string) (sp int, argvBase int, err defs.Err_t) {
	sp = nu.DefineStack()
	wordAddrs := make([]int, len(argv))

	for i, word := range argv {
		buf := append([]byte(word), 0)
		sp -= len(buf)
		if e := nu.CopyOut(sp, buf); e != 0 {
			return 0, 0, e
		}
		wordAddrs[i] = sp
	}

	added := nu.DefineStack() - sp
	sp -= util.Roundup(added, 4) - added

	const ptrSize = 4
	push := func(v int) defs.Err_t {
		sp -= ptrSize
		buf := make([]byte, ptrSize)
		util.Writen(buf, ptrSize, 0, v)
		return nu.CopyOut(sp, buf)
	}
	if e := push(0); e != 0 {
		return 0, 0, e
	}
	for i := len(wordAddrs) - 1; i >= 0; i-- {
		if e := push(wordAddrs[i]); e != 0 {
			return 0, 0, e
		}
	}
	argvBase = sp

	total := nu.DefineStack() - sp
	sp -= util.Roundup(total, 8) - total
	return sp, argvBase, 0
}

/// Execv replaces current's address space with a freshly prepared one
/// whose two regions are textNpages/dataNpages pages (standing in for
/// load_elf, which is out of scope — see spec.md's Non-goals), pushes argv
/// onto the new stack, then switches current over to it. The OLD address
/// space is destroyed only after the switch, never before: spec.md is
/// explicit that a process must stop being "current" before its address
/// space is torn down, otherwise a concurrent TLB refill could dereference
/// a freed page table.
func (s *Syscalls_t) Execv(current *proc.Process_t, name string, argv []string, textNpages, dataNpages int) (sp, entryArgv int, rerr defs.Err_t) {
	nu := vm.Create(s.CM)
	tlb.Activate(s.HW) // new address space is current: stale entries must not alias into it

	if err := nu.DefineRegion(0x400000, textNpages*defs.PGSIZE, true, false, true); err != 0 {
		nu.Destroy()
		return 0, 0, err
	}
	if dataNpages > 0 {
		if err := nu.DefineRegion(0x500000, dataNpages*defs.PGSIZE, true, true, false); err != 0 {
			nu.Destroy()
			return 0, 0, err
		}
	}
	if err := nu.PrepareLoad(); err != 0 {
		nu.Destroy()
		return 0, 0, err
	}
	nu.CompleteLoad()

	sp, argvBase, err := BuildArgv(nu, argv)
	if err != 0 {
		nu.Destroy()
		return 0, 0, err
	}

	old := current.AS
	current.AS = nu
	current.Name = name
	old.Destroy()

	return sp, argvBase, 0
}

/// Exit implements _exit: deactivates and tears down the exiting process's
/// own address space, then runs the zombie/orphan bookkeeping of spec.md
/// §4.E — in that order, since nothing after this point needs the address
/// space as "current" again. status is masked to its low 8 bits before
/// being recorded, matching spec.md §6's exit-status encoding (low 8 bits
/// the user exit code, remaining bits zero).
func (s *Syscalls_t) Exit(current *proc.Process_t, status int) {
	tlb.Deactivate(s.HW)
	current.AS.Destroy()
	s.Table.Exit(current, status&0xFF)
}

/// Waitpid blocks until childPid exits, then returns its exit status.
/// options must be 0 (no WNOHANG/WUNTRACED support), per spec.md §4.F.
func (s *Syscalls_t) Waitpid(current *proc.Process_t, childPid defs.Pid_t, options int) (int, defs.Err_t) {
	if options != 0 {
		return 0, -defs.EINVAL
	}
	return s.Table.Wait(current, childPid)
}

/// Getpid returns current's own pid.
func (s *Syscalls_t) Getpid(current *proc.Process_t) defs.Pid_t {
	return current.Pid
}
