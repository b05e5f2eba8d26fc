// Package hal stands in for the hardware and firmware collaborators that
// spec.md treats as out of scope: the boot-time RAM probe, the pre-coremap
// bump allocator, and the TLB read/write/random primitives. Real kernels
// wire these to firmware calls and MIPS coprocessor-0 instructions; this
// package provides the interfaces those subsystems are coded against plus a
// Sim implementation usable from tests and the cmd/ demos.
package hal

import "sync"

import "defs"

/// Ram abstracts the firmware RAM query and the bump allocator used before
/// the coremap (src/coremap) is bootstrapped.
type Ram interface {
	// RamRegion reports the [low, high) physical range of free memory at
	// boot, mirroring ram_getsize.
	RamRegion() (low, high defs.Pa_t)
	// StealMem bumps-allocates npages contiguous pages before the coremap
	// exists, mirroring ram_stealmem. Returns 0 on exhaustion.
	StealMem(npages int) defs.Pa_t
}

/// TLB abstracts the hardware translation lookaside buffer: a fixed number
/// of (vaddr, paddr|flags) slots, read/written/evicted in the style of
/// tlb_read/tlb_write/tlb_random.
type TLB interface {
	NumSlots() int
	Read(slot int) (hi, lo uint32)
	Write(slot int, hi, lo uint32)
	Random(hi, lo uint32)
}

// TLB entry flag bits, matching the VALID/DIRTY convention of spec.md §6.
const (
	TLBLO_DIRTY uint32 = 1 << 10
	TLBLO_VALID uint32 = 1 << 9
)

/// Sim is an in-memory Ram+TLB usable without real hardware: StealMem hands
/// out pages from a plain byte buffer, and the TLB is a fixed Go array.
type Sim struct {
	mu       sync.Mutex
	low      defs.Pa_t
	high     defs.Pa_t
	nextFree defs.Pa_t

	slots []struct{ hi, lo uint32 }
}

/// NewSim creates a simulated RAM region of the given size (bytes) and a
/// TLB with numSlots entries, all initially invalid.
func NewSim(ramBytes int, numSlots int) *Sim {
	s := &Sim{
		low:   defs.Pa_t(0x1000),
		slots: make([]struct{ hi, lo uint32 }, numSlots),
	}
	s.high = s.low + defs.Pa_t(ramBytes)
	s.nextFree = s.low
	return s
}

func (s *Sim) RamRegion() (defs.Pa_t, defs.Pa_t) {
	return s.low, s.high
}

func (s *Sim) StealMem(npages int) defs.Pa_t {
	s.mu.Lock()
	defer s.mu.Unlock()
	need := defs.Pa_t(npages * defs.PGSIZE)
	if s.nextFree+need > s.high {
		return 0
	}
	ret := s.nextFree
	s.nextFree += need
	return ret
}

func (s *Sim) NumSlots() int { return len(s.slots) }

func (s *Sim) Read(slot int) (uint32, uint32) {
	e := s.slots[slot]
	return e.hi, e.lo
}

func (s *Sim) Write(slot int, hi, lo uint32) {
	s.slots[slot] = struct{ hi, lo uint32 }{hi, lo}
}

func (s *Sim) Random(hi, lo uint32) {
	// Hardware-assisted eviction when every slot holds a valid mapping:
	// pick a slot deterministically (slot 0) rather than truly at random,
	// since the only property spec.md requires is that a write happens.
	s.slots[0] = struct{ hi, lo uint32 }{hi, lo}
}
