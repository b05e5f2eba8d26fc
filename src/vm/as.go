// Package vm implements spec.md §4.C: the per-process address space, owning
// two program regions (text/data) and a fixed-size user stack.
//
// The shape follows biscuit's vm.Vm_t (vm/as.go): an embedded mutex guarding
// the page tables, Lock_pmap/Unlock_pmap naming for the critical section
// used by both the TLB refill path and explicit copyin/copyout, and
// Userbuf-style K2user/User2k helpers. What differs from biscuit is the
// page table shape itself: spec.md's machine has exactly three regions
// (region1, region2, fixed 12-page stack) addressed by src/vm/pagetable.go
// instead of biscuit's general Vmregion_t interval list, since this
// teaching kernel has no mmap and no demand paging.
package vm

import "sync"

import "defs"

import "coremap"

/// AddrSpace_t is spec.md §3's address space record.
type AddrSpace_t struct {
	// lock guards Region1, Region2, Stack and LoadCompleted; also the
	// critical section during TLB refill (see src/tlb).
	mu sync.Mutex

	Region1 *PageTable_t
	Region2 *PageTable_t
	Stack   *PageTable_t

	LoadCompleted bool

	cm *coremap.Coremap_t
}

/// Create allocates an address-space record with all fields zeroed and
/// LoadCompleted=false, per spec.md §4.C.
func Create(cm *coremap.Coremap_t) *AddrSpace_t {
	return &AddrSpace_t{cm: cm}
}

/// Lock acquires the address-space mutex. Exported so src/tlb can take the
/// same lock biscuit's Vm_t.Lock_pmap takes during refill.
func (as *AddrSpace_t) Lock() { as.mu.Lock() }

/// Unlock releases the address-space mutex.
func (as *AddrSpace_t) Unlock() { as.mu.Unlock() }

/// DefineRegion aligns vaddr down and size up to page multiples and fills
/// the first empty region slot (region1, then region2). A third call
/// fails with EUNIMP, matching dumbvm.c's as_define_region.
func (as *AddrSpace_t) DefineRegion(vaddr, size int, readable, writable, execable bool) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	size += vaddr & (defs.PGSIZE - 1)
	vaddr &^= (defs.PGSIZE - 1)
	npages := (size + defs.PGSIZE - 1) / defs.PGSIZE

	if as.Region1 == nil {
		as.Region1 = newPageTable(vaddr, npages, readable, writable, execable)
		return 0
	}
	if as.Region2 == nil {
		as.Region2 = newPageTable(vaddr, npages, readable, writable, execable)
		return 0
	}
	return -defs.EUNIMP
}

// stackBase is the fixed virtual base of the user stack region.
func stackBase() int {
	return defs.USERSTACK - defs.STACKPAGES*defs.PGSIZE
}

/// PrepareLoad allocates one frame at a time (so regions need not be
/// physically contiguous) for region1, region2, and the stack, zeroing
/// each. If allocation fails partway through, it returns ENOMEM; the
/// caller is expected to invoke Destroy to reclaim whatever was already
/// allocated (spec.md §4.C).
func (as *AddrSpace_t) PrepareLoad() defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.Stack == nil {
		as.Stack = newPageTable(stackBase(), defs.STACKPAGES, true, true, false)
	}

	for _, pt := range []*PageTable_t{as.Region1, as.Region2, as.Stack} {
		if pt == nil {
			continue
		}
		for i := 0; i < pt.Npages; i++ {
			frame := as.cm.Alloc(1)
			if frame == 0 {
				return -defs.ENOMEM
			}
			zero(as.cm.FrameBytes(frame))
			pt.setFrame(i, frame)
		}
	}
	return 0
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

/// CompleteLoad marks the address space as fully loaded: from this point
/// on the TLB refill handler (src/tlb) must install region1 mappings
/// without the dirty bit, so writes to text trap as read-only.
func (as *AddrSpace_t) CompleteLoad() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.LoadCompleted = true
}

/// DefineStack returns the initial user stack pointer.
func (as *AddrSpace_t) DefineStack() int {
	return defs.USERSTACK
}

/// Copy duplicates old into a freshly allocated address space: region
/// descriptors and permissions are copied verbatim (each region copying
/// its OWN base/permissions, not region1's — dumbvm.c's as_copy bug, see
/// spec.md §9), new page tables and frames are allocated via PrepareLoad,
/// and every page's contents are copied so the two address spaces share
/// no physical frames.
func (as *AddrSpace_t) Copy() (*AddrSpace_t, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()

	nu := Create(as.cm)
	if as.Region1 != nil {
		nu.Region1 = newPageTable(as.Region1.Vbase, as.Region1.Npages,
			as.Region1.Readable, as.Region1.Writable, as.Region1.Execable)
	}
	if as.Region2 != nil {
		nu.Region2 = newPageTable(as.Region2.Vbase, as.Region2.Npages,
			as.Region2.Readable, as.Region2.Writable, as.Region2.Execable)
	}

	if err := nu.PrepareLoad(); err != 0 {
		nu.Destroy()
		return nil, err
	}

	copyRegion := func(dst, src *PageTable_t) {
		if dst == nil || src == nil {
			return
		}
		for i := 0; i < dst.Npages; i++ {
			srcFrame, _ := src.frameFor(src.Vbase + i*defs.PGSIZE)
			dstFrame, _ := dst.frameFor(dst.Vbase + i*defs.PGSIZE)
			if srcFrame == 0 || dstFrame == 0 {
				continue
			}
			copy(as.cm.FrameBytes(dstFrame), as.cm.FrameBytes(srcFrame))
		}
	}
	copyRegion(nu.Region1, as.Region1)
	copyRegion(nu.Region2, as.Region2)
	copyRegion(nu.Stack, as.Stack)
	nu.LoadCompleted = as.LoadCompleted

	return nu, 0
}

/// Destroy frees every frame in every region's page table and drops the
/// address-space record. Safe to call on a partially-populated address
/// space (unset slots are 0 and skipped).
func (as *AddrSpace_t) Destroy() {
	as.mu.Lock()
	defer as.mu.Unlock()
	for _, pt := range []*PageTable_t{as.Region1, as.Region2, as.Stack} {
		pt.eachFrame(as.cm.Free)
	}
	as.Region1, as.Region2, as.Stack = nil, nil, nil
}

/// Lookup determines which region (if any) contains va and returns its
/// page table, used by both src/tlb's refill path and the copyin/copyout
/// helpers below. The caller must hold as.mu.
func (as *AddrSpace_t) Lookup(va int) (pt *PageTable_t, isText bool, ok bool) {
	if as.Region1.contains(va) {
		return as.Region1, true, true
	}
	if as.Region2.contains(va) {
		return as.Region2, false, true
	}
	if as.Stack.contains(va) {
		return as.Stack, false, true
	}
	return nil, false, false
}

/// Regions returns the region1, region2, and stack page tables (nil where
/// unset), so a caller can check the precondition spec.md §4.D asserts
/// before a TLB refill.
func (as *AddrSpace_t) Regions() (r1, r2, stack *PageTable_t) {
	return as.Region1, as.Region2, as.Stack
}
