package feed

import "sync"

// Cell is an observable projection slot. The facade is its only writer;
// consumers read with Get or register watchers with Watch. The zero value
// is ready to use.
type Cell[T any] struct {
	mu       sync.RWMutex
	value    T
	watchers map[int]func(T)
	nextID   int
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	c.value = value
	watchers := make([]func(T), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(value)
	}
}

// Watch registers fn for every subsequent Set. The returned function
// unregisters it; leaving a screen must call it or the callback leaks.
func (c *Cell[T]) Watch(fn func(T)) (cancel func()) {
	c.mu.Lock()
	if c.watchers == nil {
		c.watchers = map[int]func(T){}
	}
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}
