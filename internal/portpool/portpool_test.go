package portpool

import "testing"

func TestAcquireExhaustsThenReleaseFreesAPort(t *testing.T) {
	p := New(9000, 9002)

	a, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	b, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct ports, got %d twice", a)
	}

	if _, err := p.Acquire(); err != ErrExhausted {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	p.Release(a)
	if _, err := p.Acquire(); err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
}
