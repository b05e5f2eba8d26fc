// Package tlb implements spec.md §4.D: on a TLB miss, translate the
// faulting user virtual address via the current address space and install
// a TLB entry.
//
// Grounded on biscuit's vm.Sys_pgfault/Page_insert (vm/as.go) for the
// lock-then-translate-then-install shape, and on dumbvm.c's vm_fault for
// the exact refill algorithm spec.md §4.D specifies (first invalid slot,
// else tlb_random, with the region1+LoadCompleted dirty-bit exception).
package tlb

import "sync"

import "defs"
import "hal"
import "vm"

// spllock models "disable interrupts on this CPU while frobbing the TLB"
// (dumbvm.c's splhigh/splx). spec.md treats real interrupt control as an
// external collaborator; a mutex gives the same mutual-exclusion property
// for the single atomic TLB-write sequence spec.md §5 requires, without
// pretending to twiddle a status register that doesn't exist here.
var spllock sync.Mutex

func splhigh() { spllock.Lock() }
func splx()    { spllock.Unlock() }

/// Refill resolves a TLB miss of the given fault type at vaddr against as,
/// installing a TLB entry in hw on success. Returns 0 on success, or one
/// of spec.md §7's error kinds.
func Refill(as *vm.AddrSpace_t, hw hal.TLB, faultType defs.FaultType, vaddr int) defs.Err_t {
	faultAddr := vaddr &^ (defs.PGSIZE - 1)

	if faultType == defs.FaultReadOnly {
		return -defs.EROFS
	}

	if as == nil {
		return -defs.EFAULT
	}

	as.Lock()
	defer as.Unlock()

	r1, r2, stack := as.Regions()
	if r1 == nil || r2 == nil || stack == nil {
		panic("tlb: address space regions not set up")
	}

	pt, isText, ok := as.Lookup(faultAddr)
	if !ok {
		return -defs.EFAULT
	}
	frame, _ := pt.FrameFor(faultAddr)
	paddr := uint32(frame) | uint32(faultAddr&(defs.PGSIZE-1))

	splhigh()
	defer splx()

	hi := uint32(faultAddr)
	lo := paddr | hal.TLBLO_DIRTY | hal.TLBLO_VALID
	if isText && as.LoadCompleted {
		lo &^= hal.TLBLO_DIRTY
	}

	for slot := 0; slot < hw.NumSlots(); slot++ {
		_, elo := hw.Read(slot)
		if elo&hal.TLBLO_VALID != 0 {
			continue
		}
		hw.Write(slot, hi, lo)
		return 0
	}
	hw.Random(hi, lo)
	return 0
}

/// Activate invalidates every TLB slot, interrupts disabled for the sweep.
/// Called whenever a process's address space becomes current (by fork once
/// the child is registered, by execv as soon as the new address space is
/// created),
/// since stale entries from whatever ran before could otherwise alias into
/// the new address space's virtual addresses.
func Activate(hw hal.TLB) {
	splhigh()
	defer splx()
	for i := 0; i < hw.NumSlots(); i++ {
		hw.Write(i, 0, 0)
	}
}

/// Deactivate is a no-op, matching dumbvm.c's as_deactivate: this machine
/// has no per-address-space TLB state to flush on the way out, only on the
/// way in (Activate).
func Deactivate(hw hal.TLB) {}

/// Shootdown invalidates all TLB entries mapping startva..startva+n*PGSIZE
/// across every CPU that has this address space loaded. spec.md §4.D: not
/// implemented (single global lock, no multi-CPU TLB state to shoot down).
/// A request covering zero pages returns without effect; any other request
/// is a fatal kernel error, matching dumbvm.c's vm_tlbshootdown panic.
func Shootdown(startva uintptr, n int) {
	if n == 0 {
		return
	}
	panic("tlb: shootdown is not implemented on this machine")
}
