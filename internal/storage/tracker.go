package storage

import "sync"

// Tracker fans out table change notifications to registered observers.
// Each observer holds at most one pending notification; further
// notifications coalesce until the observer drains its channel.
type Tracker struct {
	mu        sync.Mutex
	nextID    int
	observers map[string]map[int]chan struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		observers: make(map[string]map[int]chan struct{}),
	}
}

// Register adds an observer for table. The returned function removes it
// and is safe to call more than once.
func (t *Tracker) Register(table string) (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++

	ch := make(chan struct{}, 1)
	if t.observers[table] == nil {
		t.observers[table] = make(map[int]chan struct{})
	}
	t.observers[table][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.observers[table], id)
			if len(t.observers[table]) == 0 {
				delete(t.observers, table)
			}
		})
	}
}

// Notify signals every observer of the given tables without blocking.
func (t *Tracker) Notify(tables ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, table := range tables {
		for _, ch := range t.observers[table] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Observers returns the number of observers registered for table.
func (t *Tracker) Observers(table string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers[table])
}
