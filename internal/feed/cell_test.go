package feed

import "testing"

func TestCellGetSet(t *testing.T) {
	var c Cell[int]
	if c.Get() != 0 {
		t.Fatalf("expected zero value")
	}
	c.Set(7)
	if c.Get() != 7 {
		t.Fatalf("expected 7")
	}
}

func TestCellWatchAndCancel(t *testing.T) {
	var c Cell[string]
	var seen []string
	cancel := c.Watch(func(v string) { seen = append(seen, v) })

	c.Set("a")
	c.Set("b")
	cancel()
	c.Set("c")

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestCellMultipleWatchers(t *testing.T) {
	var c Cell[int]
	count := 0
	c.Watch(func(int) { count++ })
	c.Watch(func(int) { count++ })
	c.Set(1)
	if count != 2 {
		t.Fatalf("expected both watchers notified, got %d", count)
	}
}
