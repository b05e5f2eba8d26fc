// Package coremap implements spec.md §4.B: the physical frame allocator
// that owns all post-boot RAM and hands out contiguous runs of frames.
//
// It follows the shape of biscuit's mem.Physmem_t (a global singleton
// struct embedding a mutex, a bootstrap function, linear index-based
// bookkeeping) but the bookkeeping itself is dumbvm.c's coremapData: a
// first-fit {free, base, run_length} table rather than biscuit's refcounted
// per-CPU free lists, since spec.md has no sharing or demand paging to
// amortize.
package coremap

import "fmt"
import "sync"

import "defs"
import "hal"
import "util"

/// entry_t is one managed physical frame. Run_length is only meaningful on
/// the first frame of an allocated run (spec.md §3 invariant).
type entry_t struct {
	free      bool
	base      defs.Pa_t
	runLength int
}

/// Coremap_t owns every frame in [frameBase, frameBase+len(entries)*PGSIZE).
/// One global spinlock (sync.Mutex) serializes alloc and free, matching
/// spec.md §5's "Coremap: one global spinlock covering both allocate and
/// free."
type Coremap_t struct {
	mu    sync.Mutex
	ram   hal.Ram
	ready bool

	entries   []entry_t
	frameBase defs.Pa_t
	backing   []byte

	// stealLock guards the pre-bootstrap bump-allocator fallback path.
	stealLock sync.Mutex
}

/// New constructs a Coremap_t bound to ram but does not yet bootstrap it;
/// until Bootstrap runs, Alloc falls back to ram.StealMem under
/// stealLock, matching spec.md §4.B's "before ready" behavior.
func New(ram hal.Ram) *Coremap_t {
	return &Coremap_t{ram: ram}
}

/// Bootstrap queries the firmware RAM range, reserves a prefix of it for
/// the coremap array itself (shrinking the entry count until the array
/// fits in a single page), and initializes every remaining frame as free.
func (c *Coremap_t) Bootstrap() {
	low, high := c.ram.RamRegion()
	n := int(high-low) / defs.PGSIZE

	entrySize := 40 // conservative upper bound on entry_t's encoded size
	for n*entrySize > defs.PGSIZE {
		n--
	}
	coreBytes := n * entrySize
	frameBase := defs.Pa_t(util.Roundup(int(low)+coreBytes, defs.PGSIZE))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make([]entry_t, n)
	c.frameBase = frameBase
	c.backing = make([]byte, n*defs.PGSIZE)
	for i := range c.entries {
		c.entries[i] = entry_t{
			free:      true,
			base:      frameBase + defs.Pa_t(i*defs.PGSIZE),
			runLength: 1,
		}
	}
	c.ready = true
	fmt.Printf("coremap: %d frames starting at 0x%x\n", n, frameBase)
}

/// FrameBytes returns the PGSIZE-byte slice of simulated physical memory
/// backing the frame at paddr, standing in for biscuit's direct map
/// (mem.Physmem.Dmap). It panics if paddr is not a page-aligned address
/// within the managed range — callers only ever pass addresses this
/// package itself handed out via Alloc.
func (c *Coremap_t) FrameBytes(paddr defs.Pa_t) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := int(paddr-c.frameBase) / defs.PGSIZE
	if paddr < c.frameBase || idx < 0 || idx >= len(c.entries) {
		panic("coremap: FrameBytes on unmanaged address")
	}
	off := idx * defs.PGSIZE
	return c.backing[off : off+defs.PGSIZE]
}

/// Ready reports whether Bootstrap has completed.
func (c *Coremap_t) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

/// Alloc allocates npages contiguous frames using first-fit, ties broken
/// by lowest index, and returns the run's base physical address or 0 (the
/// null physical address) if no such window exists.
func (c *Coremap_t) Alloc(npages int) defs.Pa_t {
	if npages < 1 {
		panic("coremap: npages must be >= 1")
	}

	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		c.stealLock.Lock()
		defer c.stealLock.Unlock()
		return c.ram.StealMem(npages)
	}
	defer c.mu.Unlock()

	n := len(c.entries)
	for i := 0; i+npages <= n; i++ {
		if !c.entries[i].free {
			continue
		}
		window := true
		for j := 1; j < npages; j++ {
			if !c.entries[i+j].free {
				window = false
				break
			}
		}
		if !window {
			continue
		}
		for j := 0; j < npages; j++ {
			c.entries[i+j].free = false
			c.entries[i+j].runLength = 1
		}
		c.entries[i].runLength = npages
		return c.entries[i].base
	}
	return 0
}

/// Free returns the run starting at paddr to the free pool. Addresses
/// outside the managed range (i.e. from the pre-bootstrap steal region)
/// are a no-op. Freeing a frame that is not a run-start, or already free,
/// is a double-free and is silently ignored, per spec.md §4.B.
func (c *Coremap_t) Free(paddr defs.Pa_t) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || len(c.entries) == 0 {
		return
	}
	if paddr < c.frameBase {
		return
	}
	idx := int(paddr-c.frameBase) / defs.PGSIZE
	if idx < 0 || idx >= len(c.entries) {
		return
	}
	e := &c.entries[idx]
	if e.base != paddr || e.free {
		// not a run start, or a double-free: reject.
		return
	}
	// A non-free frame inside a run looks like a one-frame run on its own,
	// so walk run by run from index 0 and reject idx unless a run starts there.
	i := 0
	for i < idx {
		if c.entries[i].free {
			i++
		} else {
			i += c.entries[i].runLength
		}
	}
	if i != idx {
		return
	}
	k := e.runLength
	for j := 0; j < k && idx+j < len(c.entries); j++ {
		c.entries[idx+j].free = true
		c.entries[idx+j].runLength = 1
	}
}

/// FreeFrames reports the number of currently-free managed frames, for
/// instrumentation/tests.
func (c *Coremap_t) FreeFrames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for i := range c.entries {
		if c.entries[i].free {
			n++
		}
	}
	return n
}
