package epoch

import "testing"

func TestAdvanceAndCurrent(t *testing.T) {
	var c Counter
	if c.Current() != 0 {
		t.Fatalf("expected initial epoch 0, got %d", c.Current())
	}
	if got := c.Advance(); got != 1 {
		t.Errorf("expected advance to return 1, got %d", got)
	}
	if c.Current() != 1 {
		t.Errorf("expected current epoch 1, got %d", c.Current())
	}
}

func TestStampStale(t *testing.T) {
	s := Stamp(3, "event")
	if s.Stale(3) {
		t.Errorf("same-epoch stamp should not be stale")
	}
	if s.Stale(2) {
		t.Errorf("stamp from a newer epoch than current should not be stale")
	}
	if !s.Stale(4) {
		t.Errorf("stamp from an older epoch should be stale")
	}
}

func TestQueueSweep(t *testing.T) {
	var q Queue[string]
	q.Push(1, "a")
	q.Push(3, "b")

	var freed []string
	q.Sweep(2, func(v string) { freed = append(freed, v) })

	if len(freed) != 1 || freed[0] != "a" {
		t.Errorf("expected only 'a' freed at epoch 2, got %v", freed)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 entry still pending, got %d", q.Len())
	}

	q.Sweep(3, func(v string) { freed = append(freed, v) })
	if len(freed) != 2 || freed[1] != "b" {
		t.Errorf("expected 'b' freed at epoch 3, got %v", freed)
	}
	if q.Len() != 0 {
		t.Errorf("expected queue empty, got %d", q.Len())
	}
}
