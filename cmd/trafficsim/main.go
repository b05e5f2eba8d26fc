// Command trafficsim drives random vehicle traffic through a simulated
// four-way intersection (spec.md §4.G), reporting the peak number of
// vehicles seen inside the intersection at once.
package main

import "flag"
import "fmt"
import "math/rand"
import "sync"
import "time"

import "defs"

import "intersection"

func main() {
	vehicles := flag.Int("vehicles", 20, "number of vehicle goroutines")
	trips := flag.Int("trips", 50, "trips per vehicle")
	seed := flag.Int64("seed", 1, "PRNG seed")
	flag.Parse()

	ix := intersection.New()
	dirs := []defs.Direction{defs.North, defs.East, defs.South, defs.West}
	rng := rand.New(rand.NewSource(*seed))

	var mu sync.Mutex
	peak := 0
	observe := func() {
		mu.Lock()
		defer mu.Unlock()
		if occ := ix.Occupancy(); occ > peak {
			peak = occ
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < *vehicles; i++ {
		localRng := rand.New(rand.NewSource(rng.Int63()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < *trips; j++ {
				o := dirs[localRng.Intn(4)]
				d := dirs[localRng.Intn(4)]
				for d == o {
					d = dirs[localRng.Intn(4)]
				}
				ix.BeforeEntry(o, d)
				observe()
				time.Sleep(time.Millisecond)
				ix.AfterExit(o, d)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("peak occupancy: %d\n", peak)
	fmt.Printf("final occupancy: %d\n", ix.Occupancy())
}
