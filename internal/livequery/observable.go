package livequery

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/alexanderramin/timesflying/internal/event"
)

// Observer receives the lifecycle of one subscription. Nil callbacks are skipped.
type Observer[T any] struct {
	Start    func()
	Next     func(T)
	Error    func(error)
	Complete func()
}

func (o Observer[T]) start() {
	if o.Start != nil {
		o.Start()
	}
}

func (o Observer[T]) next(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

func (o Observer[T]) error(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o Observer[T]) complete() {
	if o.Complete != nil {
		o.Complete()
	}
}

// Subscription is released with Unsubscribe. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Observable is a source of values that can be subscribed to.
type Observable[T any] interface {
	Subscribe(o Observer[T]) Subscription
}

// ChangeSource delivers change notifications per collection. *event.Bus
// satisfies it.
type ChangeSource interface {
	Subscribe(c event.Collection, fn event.Subscriber) func()
}

var _ ChangeSource = (*event.Bus)(nil)

type liveQuery[T any] struct {
	source      ChangeSource
	collections []event.Collection
	eval        func(ctx context.Context) (T, error)
}

// LiveQuery returns an Observable whose subscriptions evaluate eval
// immediately and again after every change to one of collections.
// Evaluations of one subscription never overlap; changes arriving during an
// evaluation are coalesced into one more run. A live query never completes.
//
// Unsubscribe does not wait for a callback already running, so it is safe
// to call from inside one; results computed after it returns are discarded.
//
// eval's ctx is cancelled when the subscription is released.
func LiveQuery[T any](source ChangeSource, collections []event.Collection, eval func(ctx context.Context) (T, error)) Observable[T] {
	return &liveQuery[T]{source: source, collections: collections, eval: eval}
}

func (q *liveQuery[T]) Subscribe(o Observer[T]) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &liveSubscription{cancel: cancel}

	dirty := make(chan struct{}, 1)
	dirty <- struct{}{}
	signal := func(event.Change) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
	for _, c := range q.collections {
		sub.unsubs = append(sub.unsubs, q.source.Subscribe(c, signal))
	}

	o.start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}
			v, err := q.eval(ctx)
			if sub.closed.Load() {
				return
			}
			if err != nil {
				o.error(err)
				continue
			}
			o.next(v)
		}
	}()

	return sub
}

type liveSubscription struct {
	once   sync.Once
	closed atomic.Bool
	cancel context.CancelFunc
	unsubs []func()
}

func (s *liveSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		for _, unsub := range s.unsubs {
			unsub()
		}
	})
}

// Once returns an Observable that evaluates eval a single time per
// subscription, delivers the result or error, then completes.
func Once[T any](eval func(ctx context.Context) (T, error)) Observable[T] {
	return onceQuery[T]{eval: eval}
}

type onceQuery[T any] struct {
	eval func(ctx context.Context) (T, error)
}

func (q onceQuery[T]) Subscribe(o Observer[T]) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &liveSubscription{cancel: cancel}

	o.start()
	go func() {
		v, err := q.eval(ctx)
		if sub.closed.Load() {
			return
		}
		if err != nil {
			o.error(err)
		} else {
			o.next(v)
		}
		if !sub.closed.Load() {
			o.complete()
		}
	}()
	return sub
}
