package usecase

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raulk/clock"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/phenrril/clientes/internal/domain"
)

const DefaultSearchDebounce = 200 * time.Millisecond

type SearchOptions struct {
	// Debounce is the quiet period a term must survive before it is applied.
	// Zero applies terms immediately.
	Debounce time.Duration
	Clock    clock.Clock
	Logger   *zerolog.Logger
}

type CustomerView struct {
	// Session identifies the search that produced the view.
	Session   string
	Term      string
	Customers []domain.CustomerSummary
}

// CustomerSearch keeps a filtered view of the store's snapshots current with
// the latest settled search term.
type CustomerSearch struct {
	clock    clock.Clock
	debounce time.Duration
	session  string
	log      zerolog.Logger

	mu         sync.Mutex
	customers  []domain.CustomerSummary
	term       string
	pending    string
	gen        uint64
	timer      *clock.Timer
	current    CustomerView
	views      chan CustomerView
	recomputes int
	closed     bool

	unsubscribe func()
}

func NewCustomerSearch(feed domain.CustomerFeed, opts SearchOptions) *CustomerSearch {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	session := uuid.NewString()
	s := &CustomerSearch{
		clock:    opts.Clock,
		debounce: opts.Debounce,
		session:  session,
		log:      logger.With().Str("search", session).Logger(),
		views:    make(chan CustomerView, 1),
	}
	s.unsubscribe = feed.Subscribe(s.onSnapshot)
	return s
}

// Search feeds a raw user term. Only the last term of a burst is applied, and
// only if its trimmed form differs from the term currently applied.
func (s *CustomerSearch) Search(term string) {
	term = strings.TrimSpace(term)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.gen++
	s.pending = term
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.debounce <= 0 {
		s.settleLocked()
		return
	}
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.debounce, func() { s.settle(gen) })
}

func (s *CustomerSearch) Session() string {
	return s.session
}

func (s *CustomerSearch) Current() CustomerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Views yields the latest view. A view not yet received is replaced by a
// newer one. The channel is closed by Close.
func (s *CustomerSearch) Views() <-chan CustomerView {
	return s.views
}

// Recomputes counts how many views were produced, including the first one.
func (s *CustomerSearch) Recomputes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputes
}

// Close detaches from the store and drops any pending term. No view is
// produced after Close returns.
func (s *CustomerSearch) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	close(s.views)
	s.mu.Unlock()

	s.unsubscribe()
}

func (s *CustomerSearch) onSnapshot(list []domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.customers = lo.Map(list, func(c domain.Customer, _ int) domain.CustomerSummary { return c.Summary() })
	s.recomputeLocked()
}

func (s *CustomerSearch) settle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	s.settleLocked()
}

func (s *CustomerSearch) settleLocked() {
	if s.pending == s.term {
		return
	}
	s.term = s.pending
	s.recomputeLocked()
}

func (s *CustomerSearch) recomputeLocked() {
	view := CustomerView{Session: s.session, Term: s.term, Customers: FilterCustomers(s.customers, s.term)}
	s.current = view
	s.recomputes++
	s.log.Debug().Str("term", view.Term).Int("matches", len(view.Customers)).Msg("view recomputed")

	select {
	case <-s.views:
	default:
	}
	s.views <- view
}

// FilterCustomers keeps, in order, the customers whose concatenated names,
// email and phone contain term, ignoring case and whitespace. An empty term
// keeps everything.
func FilterCustomers(customers []domain.CustomerSummary, term string) []domain.CustomerSummary {
	needle := normalize(term)
	if needle == "" {
		return append([]domain.CustomerSummary(nil), customers...)
	}
	return lo.Filter(customers, func(c domain.CustomerSummary, _ int) bool {
		return strings.Contains(normalize(c.FirstName+c.LastName+c.Email+c.Phone), needle)
	})
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
