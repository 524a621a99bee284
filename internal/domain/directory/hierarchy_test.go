package directory

import "testing"

func TestWouldCreateCycleSelf(t *testing.T) {
	managers := map[string]string{}
	if !wouldCreateCycle(managers, "e1", "e1") {
		t.Fatal("self-management not detected as cycle")
	}
}

func TestWouldCreateCycleChain(t *testing.T) {
	// e3 reports to e2, e2 reports to e1. Making e1 report to e3 loops.
	managers := map[string]string{"e3": "e2", "e2": "e1", "e1": ""}
	if !wouldCreateCycle(managers, "e1", "e3") {
		t.Fatal("three-node cycle not detected")
	}
	if wouldCreateCycle(managers, "e3", "e1") {
		t.Fatal("valid chain flagged as cycle")
	}
}

func TestWouldCreateCycleAllowsNewManager(t *testing.T) {
	managers := map[string]string{"e2": "e1", "e1": ""}
	if wouldCreateCycle(managers, "e4", "e2") {
		t.Fatal("fresh subordinate flagged as cycle")
	}
	if wouldCreateCycle(managers, "e4", "") {
		t.Fatal("clearing manager flagged as cycle")
	}
}
