package intersection

import "sync"
import "testing"
import "time"

import "defs"

func TestRightTurnClassification(t *testing.T) {
	cases := []struct {
		o, d defs.Direction
		want bool
	}{
		{defs.North, defs.West, true},
		{defs.East, defs.North, true},
		{defs.North, defs.East, false},
		{defs.North, defs.South, false},
	}
	for _, c := range cases {
		if got := rightTurn(c.o, c.d); got != c.want {
			t.Errorf("rightTurn(%v,%v) = %v, want %v", c.o, c.d, got, c.want)
		}
	}
}

func TestSameOriginAlwaysCompatible(t *testing.T) {
	if !compatible(defs.North, defs.South, defs.North, defs.East) {
		t.Fatal("expected same-origin vehicles to be compatible")
	}
}

func TestOpposingStraightsAreCompatible(t *testing.T) {
	if !compatible(defs.North, defs.South, defs.South, defs.North) {
		t.Fatal("expected opposing straight-through vehicles to be compatible")
	}
}

func TestCrossingLeftTurnsAreIncompatible(t *testing.T) {
	// North->East and East->South are both left turns (neither a right
	// turn), share no origin or destination, and aren't a straight-through
	// swap of each other, so they must conflict.
	if compatible(defs.North, defs.East, defs.East, defs.South) {
		t.Fatal("expected two crossing left turns with no shared origin/dest to be incompatible")
	}
}

func TestSameDestinationNonRightTurnIsIncompatible(t *testing.T) {
	// North->West is a right turn, but East->West is straight-through: they
	// share a destination but satisfy none of spec.md §4.G's three clauses
	// (no shared origin, not a straight-through swap, and East->West is not
	// a right turn), so they must conflict even though North->West is.
	if compatible(defs.North, defs.West, defs.East, defs.West) {
		t.Fatal("expected same-destination, non-right-turn pair to be incompatible")
	}
}

// Same-destination, non-right-turn pair must not be concurrently admitted:
// once North->West is in the intersection, East->West must block until
// North->West exits.
func TestSameDestinationNonRightTurnBlocksConcurrentEntry(t *testing.T) {
	ix := New()
	ix.BeforeEntry(defs.North, defs.West)

	admitted := make(chan struct{})
	go func() {
		ix.BeforeEntry(defs.East, defs.West)
		close(admitted)
	}()

	select {
	case <-admitted:
		t.Fatal("expected East->West to block while North->West occupies the intersection")
	case <-time.After(50 * time.Millisecond):
	}

	ix.AfterExit(defs.North, defs.West)

	select {
	case <-admitted:
	case <-time.After(time.Second):
		t.Fatal("expected East->West to be admitted once North->West exits")
	}
	ix.AfterExit(defs.East, defs.West)
}

// Scenario S5: opposing straight-through traffic should be able to occupy
// the intersection simultaneously (peak occupancy >= 4 for many vehicles).
func TestOpposingStraightsReachConcurrentOccupancy(t *testing.T) {
	ix := New()
	const n = 4
	var wg sync.WaitGroup
	start := make(chan struct{})
	var mu sync.Mutex
	maxSeen := 0

	enter := func(o, d defs.Direction) {
		defer wg.Done()
		<-start
		ix.BeforeEntry(o, d)
		mu.Lock()
		if occ := ix.Occupancy(); occ > maxSeen {
			maxSeen = occ
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		ix.AfterExit(o, d)
	}

	for i := 0; i < n; i++ {
		wg.Add(2)
		go enter(defs.North, defs.South)
		go enter(defs.South, defs.North)
	}
	close(start)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if maxSeen < 4 {
		t.Fatalf("expected at least 4 opposing straights concurrently in the intersection, saw peak %d", maxSeen)
	}
}

// Scenario S6: many goroutines entering/exiting with varied (origin,
// destination) pairs derived from each goroutine's index and trip number.
// Checks that every goroutine finishes and the intersection ends empty;
// data races show up only when run with -race.
func TestManyVehiclesNoRaceAndEventualProgress(t *testing.T) {
	ix := New()
	dirs := []defs.Direction{defs.North, defs.East, defs.South, defs.West}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				o := dirs[(seed+j)%4]
				d := dirs[(seed+j+1+j%3)%4]
				if o == d {
					d = dirs[(seed+j+2)%4]
				}
				ix.BeforeEntry(o, d)
				ix.AfterExit(o, d)
			}
		}(i)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock or starvation: vehicles never finished")
	}
	if ix.Occupancy() != 0 {
		t.Fatalf("expected intersection empty at the end, got occupancy %d", ix.Occupancy())
	}
}

func TestAfterExitWithoutOccupantPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for after_exit with no matching occupant")
		}
	}()
	ix := New()
	ix.AfterExit(defs.North, defs.South)
}
