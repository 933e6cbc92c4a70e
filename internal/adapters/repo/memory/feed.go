package memory

import (
	"slices"
	"sync"

	"github.com/phenrril/clientes/internal/domain"
)

// snapshotFeed holds the current collection and fans every new value out to
// the attached subscribers. Publish and replay share emitMu, so a subscriber
// sees the replayed value first and then each commit once, in commit order.
type snapshotFeed struct {
	emitMu sync.Mutex

	mu      sync.Mutex
	current []domain.Customer
	subs    []*subscriber
}

// mu is held across a delivery, so a cancel returns only once no call of fn
// is running or pending.
type subscriber struct {
	mu        sync.Mutex
	fn        func([]domain.Customer)
	cancelled bool
}

func newSnapshotFeed(initial []domain.Customer) *snapshotFeed {
	return &snapshotFeed{current: slices.Clone(initial)}
}

func (f *snapshotFeed) Current() []domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Subscribe must not be called from inside a subscriber callback, and the
// returned cancel must not be called from inside fn.
func (f *snapshotFeed) Subscribe(fn func([]domain.Customer)) func() {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	s := &subscriber{fn: fn}
	f.mu.Lock()
	f.subs = append(f.subs, s)
	cur := f.current
	f.mu.Unlock()

	s.deliver(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.cancelled = true
			s.mu.Unlock()
			f.mu.Lock()
			f.subs = slices.DeleteFunc(f.subs, func(x *subscriber) bool { return x == s })
			f.mu.Unlock()
		})
	}
}

func (f *snapshotFeed) Publish(next []domain.Customer) {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	f.mu.Lock()
	f.current = next
	subs := slices.Clone(f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		s.deliver(next)
	}
}

func (f *snapshotFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (s *subscriber) deliver(v []domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.fn(slices.Clone(v))
}
