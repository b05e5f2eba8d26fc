package tlb

import "testing"

import "defs"
import "hal"

import "coremap"
import "vm"

func mkas(t *testing.T) (*vm.AddrSpace_t, *hal.Sim) {
	t.Helper()
	sim := hal.NewSim(4096*defs.PGSIZE, 4)
	cm := coremap.New(sim)
	cm.Bootstrap()
	as := vm.Create(cm)
	as.DefineRegion(0x400000, defs.PGSIZE, true, false, true)
	as.DefineRegion(0x500000, defs.PGSIZE, true, true, false)
	if err := as.PrepareLoad(); err != 0 {
		t.Fatalf("prepare load: %v", err)
	}
	return as, sim
}

func TestRefillReadOnlyFaultRejected(t *testing.T) {
	as, sim := mkas(t)
	if err := Refill(as, sim, defs.FaultReadOnly, 0x400000); err != -defs.EROFS {
		t.Fatalf("expected EROFS, got %v", err)
	}
}

func TestRefillNoAddrSpaceRejected(t *testing.T) {
	_, sim := mkas(t)
	if err := Refill(nil, sim, defs.FaultRead, 0x400000); err != -defs.EFAULT {
		t.Fatalf("expected EFAULT, got %v", err)
	}
}

func TestRefillUnmappedAddressRejected(t *testing.T) {
	as, sim := mkas(t)
	if err := Refill(as, sim, defs.FaultRead, 0x900000); err != -defs.EFAULT {
		t.Fatalf("expected EFAULT for unmapped address, got %v", err)
	}
}

func TestRefillInstallsValidEntryInFirstInvalidSlot(t *testing.T) {
	as, sim := mkas(t)
	if err := Refill(as, sim, defs.FaultRead, 0x400010); err != 0 {
		t.Fatalf("refill failed: %v", err)
	}
	hi, lo := sim.Read(0)
	if hi != uint32(0x400000) {
		t.Fatalf("expected slot to map page base 0x400000, got %#x", hi)
	}
	if lo&hal.TLBLO_VALID == 0 {
		t.Fatal("expected VALID bit set")
	}
}

func TestRefillClearsDirtyForCompletedTextRegion(t *testing.T) {
	as, sim := mkas(t)
	as.CompleteLoad()
	if err := Refill(as, sim, defs.FaultRead, 0x400000); err != 0 {
		t.Fatalf("refill failed: %v", err)
	}
	_, lo := sim.Read(0)
	if lo&hal.TLBLO_DIRTY != 0 {
		t.Fatal("expected DIRTY clear for completed-load text region")
	}
}

func TestRefillKeepsDirtyForDataRegion(t *testing.T) {
	as, sim := mkas(t)
	as.CompleteLoad()
	if err := Refill(as, sim, defs.FaultWrite, 0x500000); err != 0 {
		t.Fatalf("refill failed: %v", err)
	}
	_, lo := sim.Read(0)
	if lo&hal.TLBLO_DIRTY == 0 {
		t.Fatal("expected DIRTY set for writable data region")
	}
}

func TestActivateInvalidatesEverySlot(t *testing.T) {
	_, sim := mkas(t)
	for slot := 0; slot < sim.NumSlots(); slot++ {
		sim.Write(slot, uint32(0x100000*(slot+1)), hal.TLBLO_VALID)
	}
	Activate(sim)
	for slot := 0; slot < sim.NumSlots(); slot++ {
		_, lo := sim.Read(slot)
		if lo&hal.TLBLO_VALID != 0 {
			t.Fatalf("expected slot %d invalidated after Activate", slot)
		}
	}
}

func TestDeactivateIsNoop(t *testing.T) {
	_, sim := mkas(t)
	sim.Write(0, 0x400000, hal.TLBLO_VALID)
	Deactivate(sim)
	hi, lo := sim.Read(0)
	if hi != 0x400000 || lo&hal.TLBLO_VALID == 0 {
		t.Fatal("expected Deactivate to leave TLB state untouched")
	}
}

func TestRefillFallsBackToRandomWhenAllSlotsValid(t *testing.T) {
	as, sim := mkas(t)
	for slot := 0; slot < sim.NumSlots(); slot++ {
		sim.Write(slot, uint32(0x100000*(slot+1)), hal.TLBLO_VALID)
	}
	if err := Refill(as, sim, defs.FaultRead, 0x400000); err != 0 {
		t.Fatalf("refill failed: %v", err)
	}
	found := false
	for slot := 0; slot < sim.NumSlots(); slot++ {
		hi, lo := sim.Read(slot)
		if hi == uint32(0x400000) && lo&hal.TLBLO_VALID != 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the faulting page to be installed via tlb_random fallback")
	}
}
