package vm

import "defs"

/// PageTable_t is spec.md §3's per-region page table: an ordered sequence
/// of physical frame numbers indexed by page offset, plus the region's
/// virtual base, length, and permission bits. A zero frame number means
/// "not yet mapped" (dumbvm.c's frameNumberArray convention).
type PageTable_t struct {
	Vbase    int
	Npages   int
	Readable bool
	Writable bool
	Execable bool

	frames []defs.Pa_t
}

func newPageTable(vbase, npages int, r, w, x bool) *PageTable_t {
	return &PageTable_t{
		Vbase:    vbase,
		Npages:   npages,
		Readable: r,
		Writable: w,
		Execable: x,
		frames:   make([]defs.Pa_t, npages),
	}
}

/// contains reports whether va falls within this region's virtual range.
func (pt *PageTable_t) contains(va int) bool {
	if pt == nil || pt.Npages == 0 {
		return false
	}
	top := pt.Vbase + pt.Npages*defs.PGSIZE
	return va >= pt.Vbase && va < top
}

/// frameFor returns the physical frame mapped at va (0 if unmapped) along
/// with the page index.
func (pt *PageTable_t) frameFor(va int) (defs.Pa_t, int) {
	idx := (va - pt.Vbase) / defs.PGSIZE
	return pt.frames[idx], idx
}

/// FrameFor is frameFor exported for src/tlb, which needs to resolve a
/// faulting address against whichever region Lookup returned without
/// reaching into vm's internals any further than this.
func (pt *PageTable_t) FrameFor(va int) (defs.Pa_t, int) {
	return pt.frameFor(va)
}

/// setFrame installs frame at page index idx.
func (pt *PageTable_t) setFrame(idx int, frame defs.Pa_t) {
	pt.frames[idx] = frame
}

/// eachFrame calls f with every currently-mapped (non-zero) frame.
func (pt *PageTable_t) eachFrame(f func(defs.Pa_t)) {
	if pt == nil {
		return
	}
	for _, fr := range pt.frames {
		if fr != 0 {
			f(fr)
		}
	}
}
