package scheduler

import "testing"

func TestSerialOrdering(t *testing.T) {
	a := ZeroSerial()
	b := a.Next()
	c := b.Next()

	if !a.Less(b) {
		t.Fatal("expected a < b")
	}
	if !b.Less(c) {
		t.Fatal("expected b < c")
	}
	if a.Less(a) {
		t.Fatal("serial must not be less than itself")
	}
}

func TestSerialWraparoundFlipsComparison(t *testing.T) {
	s := Serial{counter: ^uint32(0), parity: false}
	next := s.Next()

	if next.counter != 0 {
		t.Fatalf("expected counter to wrap to 0, got %d", next.counter)
	}
	if next.parity == s.parity {
		t.Fatal("expected parity to flip on wraparound")
	}
	if !s.Less(next) {
		t.Fatal("expected pre-wraparound serial to still sort before the wrapped one")
	}
}
