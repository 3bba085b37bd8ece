package store

import "sync"

// subscription delivers changes in order without ever blocking the writer.
// Pending changes queue in memory until the consumer reads them.
type subscription struct {
	out chan Change

	mu      sync.Mutex
	queue   []Change
	signal  chan struct{}
	done    chan struct{}
	closing sync.Once
}

func newSubscription() *subscription {
	return &subscription{
		out:    make(chan Change),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (sub *subscription) push(c Change) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, c)
	sub.mu.Unlock()
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

func (sub *subscription) close() {
	sub.closing.Do(func() { close(sub.done) })
}

func (sub *subscription) pump() {
	defer close(sub.out)
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			sub.mu.Unlock()
			select {
			case <-sub.signal:
				continue
			case <-sub.done:
				return
			}
		}
		next := sub.queue[0]
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		select {
		case sub.out <- next:
		case <-sub.done:
			return
		}
	}
}

// Subscribe returns a channel that receives every change published after the
// call, in commit order. cancel releases the subscription and closes the
// channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	sub := newSubscription()

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.subMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sub.pump()
	}()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
		sub.close()
	}
	return sub.out, cancel
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		sub.push(c)
	}
}
