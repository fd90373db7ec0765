package livequery

import "sync"

// State is a snapshot of a Cell.
type State[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Option configures Bind and BindRef.
type Option[T any] func(*Cell[T])

// WithDefault sets Data before the first emission.
func WithDefault[T any](v T) Option[T] {
	return func(c *Cell[T]) { c.state.Data = v }
}

// Cell holds the latest state of the subscription it is bound to.
// It is safe for concurrent use.
type Cell[T any] struct {
	mu        sync.Mutex
	state     State[T]
	seq       uint64
	gen       uint64
	sub       Subscription
	closed    bool
	observers map[uint64]*cellObserver[T]
	nextObs   uint64

	ref           Ref[Observable[T]]
	stopWatch     func()
	refDirty      bool
	resubscribing bool
}

// cellObserver hands states to fn one call at a time and in sequence
// order. A state arriving while fn runs is queued; if several arrive only
// the newest is kept. A call made from inside fn is queued the same way,
// so observers may re-enter the cell.
type cellObserver[T any] struct {
	fn      func(State[T])
	mu      sync.Mutex
	last    uint64
	pending *State[T]
	busy    bool
}

func (o *cellObserver[T]) deliver(seq uint64, s State[T]) {
	o.mu.Lock()
	if seq <= o.last {
		o.mu.Unlock()
		return
	}
	o.last = seq
	o.pending = &s
	if o.busy {
		o.mu.Unlock()
		return
	}
	o.busy = true
	for o.pending != nil {
		next := *o.pending
		o.pending = nil
		o.mu.Unlock()
		o.fn(next)
		o.mu.Lock()
	}
	o.busy = false
	o.mu.Unlock()
}

func newCell[T any](opts []Option[T]) *Cell[T] {
	c := &Cell[T]{observers: make(map[uint64]*cellObserver[T]), seq: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind subscribes to src and returns a Cell tracking it.
func Bind[T any](src Observable[T], opts ...Option[T]) *Cell[T] {
	c := newCell(opts)
	c.subscribe(src)
	return c
}

// BindRef binds to the Observable held by ref and re-binds whenever ref
// changes. The previous subscription is released before the next one is
// made; results still in flight from it are dropped.
func BindRef[T any](ref Ref[Observable[T]], opts ...Option[T]) *Cell[T] {
	c := newCell(opts)
	c.ref = ref
	stop := ref.Watch(func(Observable[T]) { c.refChanged() })
	c.mu.Lock()
	c.stopWatch = stop
	c.mu.Unlock()
	c.refChanged()
	return c
}

// Get returns the current state.
func (c *Cell[T]) Get() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe calls fn with the current state and after every change until
// the returned function is called or the cell is closed.
//
// fn runs outside the cell's lock. Calls to one fn never overlap and never
// go backwards: a state superseded before fn could take it is skipped.
func (c *Cell[T]) Subscribe(fn func(State[T])) func() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	id := c.nextObs
	c.nextObs++
	obs := &cellObserver[T]{fn: fn}
	c.observers[id] = obs
	current, seq := c.state, c.seq
	c.mu.Unlock()

	obs.deliver(seq, current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// Close releases the subscription and the reference watch. The state does
// not change after Close returns. Close is idempotent.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	sub, stop := c.sub, c.stopWatch
	c.sub, c.stopWatch = nil, nil
	c.observers = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if sub != nil {
		sub.Unsubscribe()
	}
}

// refChanged re-binds to the latest value of c.ref. A change arriving while
// a re-bind is running, including one made from inside an observer, only
// marks the cell dirty and the running loop picks it up.
func (c *Cell[T]) refChanged() {
	c.mu.Lock()
	c.refDirty = true
	if c.resubscribing {
		c.mu.Unlock()
		return
	}
	c.resubscribing = true
	for c.refDirty && !c.closed {
		c.refDirty = false
		c.mu.Unlock()
		c.subscribe(c.ref.Get())
		c.mu.Lock()
	}
	c.resubscribing = false
	c.mu.Unlock()
}

func (c *Cell[T]) subscribe(src Observable[T]) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	old := c.sub
	c.sub = nil
	c.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}

	sub := src.Subscribe(Observer[T]{
		Start: func() {
			c.update(gen, func(s *State[T]) {
				s.Loading = true
				s.Err = nil
			})
		},
		Next: func(v T) {
			c.update(gen, func(s *State[T]) {
				s.Data = v
				s.Err = nil
				s.Loading = false
			})
		},
		Error: func(err error) {
			c.update(gen, func(s *State[T]) {
				s.Err = err
				s.Loading = false
			})
		},
		Complete: func() {
			c.update(gen, func(s *State[T]) { s.Loading = false })
		},
	})

	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	c.sub = sub
	c.mu.Unlock()
}

func (c *Cell[T]) update(gen uint64, fn func(*State[T])) {
	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	c.seq++
	state, seq := c.state, c.seq
	observers := make([]*cellObserver[T], 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o.deliver(seq, state)
	}
}
