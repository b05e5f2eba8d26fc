// Command kernsim drives the process lifecycle (fork/execv/_exit/waitpid)
// against a simulated machine: init forks a child, the child execs with a
// two-word argv and exits with code 7, and init then reaps it with waitpid
// and prints the status. The child has already exited when waitpid is
// called, so waitpid returns without blocking.
package main

import "flag"
import "fmt"
import "log"

import "defs"
import "hal"

import "coremap"
import "proc"
import "sysproc"

func main() {
	ramPages := flag.Int("ram-pages", 4096, "simulated RAM size, in pages")
	tlbSlots := flag.Int("tlb-slots", 8, "simulated TLB slot count")
	flag.Parse()

	sim := hal.NewSim(*ramPages*defs.PGSIZE, *tlbSlots)
	cm := coremap.New(sim)
	cm.Bootstrap()

	table := proc.NewTable()
	sc := sysproc.New(table, cm, sim)

	init, err := table.Spawn("init", defs.NoPid, cm)
	if err != 0 {
		log.Fatalf("spawn init: %v", err)
	}
	if err := init.AS.DefineRegion(0x400000, defs.PGSIZE, true, false, true); err != 0 {
		log.Fatalf("define region: %v", err)
	}
	if err := init.AS.PrepareLoad(); err != 0 {
		log.Fatalf("prepare load: %v", err)
	}
	fmt.Printf("init: pid=%d\n", init.Pid)

	childPid, err := sc.Fork(init)
	if err != 0 {
		log.Fatalf("fork: %v", err)
	}
	fmt.Printf("fork: child pid=%d\n", childPid)

	child, _ := table.Lookup(childPid)
	sp, argvBase, err := sc.Execv(child, "hello", []string{"hello", "world"}, 1, 1)
	if err != 0 {
		log.Fatalf("execv: %v", err)
	}
	fmt.Printf("execv: sp=%#x argv=%#x\n", sp, argvBase)

	sc.Exit(child, 7)
	fmt.Printf("child %d exited\n", childPid)

	status, err := sc.Waitpid(init, childPid, 0)
	if err != 0 {
		log.Fatalf("waitpid: %v", err)
	}
	fmt.Printf("waitpid: reaped pid=%d status=%d\n", childPid, status)

	fmt.Printf("getpid: %d\n", sc.Getpid(init))
	fmt.Printf("free frames remaining: %d\n", cm.FreeFrames())
}
