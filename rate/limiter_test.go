package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	burst := 1

	interval := 10 * time.Millisecond
	lim := Every(interval)
	r := NewLimiter(burst, 100, lim)
	defer r.Stop()

	tooshort := 1 * time.Millisecond

	client := "user_2abc"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := r.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterWithBurst(t *testing.T) {
	client := "user_2abc"
	burst := 10

	interval := 100 * time.Millisecond
	lim := Every(interval)

	tooshort := 10 * time.Millisecond

	shortest := 1 * time.Millisecond

	expected := []bool{true, true, true, true, true, true, true, true, true, true}
	waits := []time.Duration{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	expected = append(expected, false, true, true, false, false, false)
	waits = append(waits, interval, interval, tooshort, tooshort, shortest, shortest)

	rr := NewLimiter(burst, 100, lim)
	defer rr.Stop()
	for i, exp := range expected {
		if got := rr.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterClientsAreIndependent(t *testing.T) {
	r := NewLimiter(1, 100, Every(time.Hour))
	defer r.Stop()

	if !r.Check("a") {
		t.Fatal("first request of client a should pass")
	}
	if r.Check("a") {
		t.Fatal("second request of client a should be throttled")
	}
	if !r.Check("b") {
		t.Fatal("client b should not share the bucket of client a")
	}
}
