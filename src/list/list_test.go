package list

import "testing"

func TestAddContainsRemove(t *testing.T) {
	l := Create()
	if !l.Empty() {
		t.Fatal("new list must be empty")
	}
	l.Add(1)
	l.Add(2)
	l.Add(1)
	if l.Len() != 3 {
		t.Fatalf("expected len 3, got %d", l.Len())
	}
	if !l.Contains(2) {
		t.Fatal("expected 2 to be present")
	}
	if got := l.Slice(); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected insertion order: %v", got)
	}
	if !l.Remove(1) {
		t.Fatal("expected to remove first occurrence of 1")
	}
	if got := l.Slice(); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Fatalf("expected [2 1] after removing first 1, got %v", got)
	}
	if l.Remove(42) {
		t.Fatal("removing an absent value must report false")
	}
}

func TestEmptyAfterRemovingAll(t *testing.T) {
	l := Create()
	l.Add(7)
	l.Remove(7)
	if !l.Empty() {
		t.Fatal("list must be empty after removing its only element")
	}
}

func TestDestroy(t *testing.T) {
	l := Create()
	l.Add(1)
	l.Destroy()
	if !l.Empty() || l.Contains(1) {
		t.Fatal("destroyed list must behave as empty")
	}
}
