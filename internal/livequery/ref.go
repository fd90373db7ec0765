package livequery

import "sync"

// Ref is a readable, watchable reference. Watch callbacks run on the
// goroutine that caused the change and are not called for the current value.
type Ref[T any] interface {
	Get() T
	Watch(fn func(T)) (stop func())
}

// Static returns a Ref that never changes.
func Static[T any](v T) Ref[T] {
	return staticRef[T]{v: v}
}

type staticRef[T any] struct{ v T }

func (r staticRef[T]) Get() T                { return r.v }
func (r staticRef[T]) Watch(func(T)) func() { return func() {} }

// Var is a mutable Ref.
type Var[T any] struct {
	mu       sync.Mutex
	value    T
	watchers map[uint64]func(T)
	nextID   uint64
}

// NewVar returns a Var holding v.
func NewVar[T any](v T) *Var[T] {
	return &Var[T]{value: v, watchers: make(map[uint64]func(T))}
}

func (v *Var[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores x and notifies every watcher, even when x equals the old value.
func (v *Var[T]) Set(x T) {
	v.mu.Lock()
	v.value = x
	fns := v.snapshot()
	v.mu.Unlock()
	for _, fn := range fns {
		fn(x)
	}
}

// Update replaces the value with fn(old) atomically and notifies watchers.
func (v *Var[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	x := fn(v.value)
	v.value = x
	fns := v.snapshot()
	v.mu.Unlock()
	for _, w := range fns {
		w(x)
	}
	return x
}

func (v *Var[T]) Watch(fn func(T)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.watchers[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.watchers, id)
			v.mu.Unlock()
		})
	}
}

func (v *Var[T]) snapshot() []func(T) {
	fns := make([]func(T), 0, len(v.watchers))
	for _, fn := range v.watchers {
		fns = append(fns, fn)
	}
	return fns
}

// Map derives a Ref whose value is fn applied to r's value.
func Map[A, B any](r Ref[A], fn func(A) B) Ref[B] {
	return mappedRef[A, B]{r: r, fn: fn}
}

type mappedRef[A, B any] struct {
	r  Ref[A]
	fn func(A) B
}

func (m mappedRef[A, B]) Get() B { return m.fn(m.r.Get()) }

func (m mappedRef[A, B]) Watch(fn func(B)) func() {
	return m.r.Watch(func(a A) { fn(m.fn(a)) })
}

// Combine derives a Ref from two others. It changes when either changes.
func Combine[A, B, C any](a Ref[A], b Ref[B], fn func(A, B) C) Ref[C] {
	return combinedRef[A, B, C]{a: a, b: b, fn: fn}
}

type combinedRef[A, B, C any] struct {
	a  Ref[A]
	b  Ref[B]
	fn func(A, B) C
}

func (c combinedRef[A, B, C]) Get() C { return c.fn(c.a.Get(), c.b.Get()) }

func (c combinedRef[A, B, C]) Watch(fn func(C)) func() {
	stopA := c.a.Watch(func(A) { fn(c.Get()) })
	stopB := c.b.Watch(func(B) { fn(c.Get()) })
	return func() {
		stopA()
		stopB()
	}
}
