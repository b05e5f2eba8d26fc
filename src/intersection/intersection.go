// Package intersection implements spec.md §4.G: the four-way intersection
// concurrency coordinator.
//
// carTracker[origin][destination] and the FIFO vehicle queue are grounded on
// original_source's traffic_synch.c (carTracker, carQueue); its
// per-destination condition variables (northCv/southCv/eastCv/westCv) are
// collapsed here into one condition variable, broadcast on every entry and
// exit. Its getPathType helper (straight/right/left classification, reused here
// as rightTurn). What does NOT carry over is waitOnCv/blocksFirstQueue's
// heuristic: spec.md §9 flags it as neither obviously correct nor provably
// complete, and replaces it with the closed-form compatibility rule spec.md
// §4.G enumerates — two vehicles may share the intersection if they share
// an origin, are a straight-through swap of each other, or have different
// destinations and at least one of them is turning right. Same-destination
// pairs that are not also one of the other two cases conflict, matching
// traffic_synch.c's blocksFirstQueue treatment of same-destination movements.
package intersection

import "sync"
import "defs"

// rightTurn reports whether travelling from o to d is a right turn, using
// the same (d-o) mod 4 == 3 classification as original_source's
// getPathType (where it called that result "type 2").
func rightTurn(o, d defs.Direction) bool {
	return (int(d)-int(o)+4)%4 == 3
}

// compatible reports whether a vehicle travelling o1->d1 may share the
// intersection with one travelling o2->d2.
func compatible(o1, d1, o2, d2 defs.Direction) bool {
	if o1 == o2 {
		return true
	}
	if o1 == d2 && o2 == d1 {
		return true
	}
	return d1 != d2 && (rightTurn(o1, d1) || rightTurn(o2, d2))
}

type request struct {
	origin, dest defs.Direction
}

/// Intersection_t coordinates vehicles crossing a four-way intersection.
/// Call BeforeEntry before entering and AfterExit once clear; both block
/// the calling goroutine only as long as required by compatible.
type Intersection_t struct {
	mu        sync.Mutex
	cond      *sync.Cond
	occupants [4][4]int
	queue     []*request
}

/// New constructs an empty, unoccupied intersection.
func New() *Intersection_t {
	ix := &Intersection_t{}
	ix.cond = sync.NewCond(&ix.mu)
	return ix
}

func (ix *Intersection_t) compatibleWithOccupants(o, d defs.Direction) bool {
	for oo := defs.North; oo <= defs.West; oo++ {
		for dd := defs.North; dd <= defs.West; dd++ {
			if ix.occupants[oo][dd] == 0 {
				continue
			}
			if !compatible(o, d, oo, dd) {
				return false
			}
		}
	}
	return true
}

// canAdmit reports whether req may enter now: it must be compatible with
// every vehicle currently in the intersection, and with every request that
// arrived before it and is still waiting. The second clause is what makes
// this fair — a later, compatible request is free to enter ahead of an
// earlier blocked one (so throughput isn't serialized to one vehicle at a
// time), but it can never be the vehicle doing the blocking: anything it
// would conflict with, it waits behind.
func (ix *Intersection_t) canAdmit(req *request) bool {
	if !ix.compatibleWithOccupants(req.origin, req.dest) {
		return false
	}
	for _, ahead := range ix.queue {
		if ahead == req {
			break
		}
		if !compatible(req.origin, req.dest, ahead.origin, ahead.dest) {
			return false
		}
	}
	return true
}

func (ix *Intersection_t) dequeue(req *request) {
	for i, r := range ix.queue {
		if r == req {
			ix.queue = append(ix.queue[:i], ix.queue[i+1:]...)
			return
		}
	}
}

/// BeforeEntry blocks the caller until a vehicle travelling origin->dest
/// may safely enter the intersection.
func (ix *Intersection_t) BeforeEntry(origin, dest defs.Direction) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	req := &request{origin: origin, dest: dest}
	ix.queue = append(ix.queue, req)
	for !ix.canAdmit(req) {
		ix.cond.Wait()
	}
	ix.dequeue(req)
	ix.occupants[origin][dest]++
	ix.cond.Broadcast()
}

/// AfterExit records that a vehicle travelling origin->dest has left the
/// intersection and wakes any vehicle whose entry might now be possible.
func (ix *Intersection_t) AfterExit(origin, dest defs.Direction) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.occupants[origin][dest] <= 0 {
		panic("intersection: after_exit with no matching occupant")
	}
	ix.occupants[origin][dest]--
	ix.cond.Broadcast()
}

/// Occupancy reports how many vehicles are currently inside the
/// intersection, for tests and instrumentation.
func (ix *Intersection_t) Occupancy() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := 0
	for o := defs.North; o <= defs.West; o++ {
		for d := defs.North; d <= defs.West; d++ {
			n += ix.occupants[o][d]
		}
	}
	return n
}
