package spheres

import "sync"

// Signal delivers a value to every subscribed handler, synchronously and in
// subscription order.
type Signal[T any] struct {
	mu       sync.Mutex
	nextId   uint64
	handlers []signalHandler[T]
}

type signalHandler[T any] struct {
	id uint64
	fn func(T)
}

// Subscription is the handle returned by Subscribe. Unsubscribe may be called
// any number of times, including from inside the handler itself.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

func (s *Signal[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	id := s.nextId
	s.nextId++
	s.handlers = append(s.handlers, signalHandler[T]{id: id, fn: fn})
	s.mu.Unlock()

	return &Subscription{cancel: func() { s.remove(id) }}
}

func (s *Signal[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
			return
		}
	}
}

// Emit calls the handlers subscribed at the moment of the call. Handlers may
// subscribe or unsubscribe while being called.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	handlers := s.handlers
	s.mu.Unlock()
	for _, h := range handlers {
		h.fn(v)
	}
}

func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Subscriptions collects handles so an owner can release all of them at once.
type Subscriptions struct {
	mu   sync.Mutex
	subs []*Subscription
}

func (s *Subscriptions) Add(sub *Subscription) *Subscription {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return sub
}

func (s *Subscriptions) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
