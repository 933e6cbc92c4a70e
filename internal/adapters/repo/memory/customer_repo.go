package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/raulk/clock"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/phenrril/clientes/internal/domain"
)

const DefaultLatency = 300 * time.Millisecond

var ErrStoreClosed = errors.New("customer store closed")

// FaultFunc simulates a failing backend channel. A non-nil error fails the
// named operation ("list", "create", "update", "delete") as transient.
type FaultFunc func(op string) error

type Options struct {
	Clock  clock.Clock
	Delay  Delayer
	Faults FaultFunc
	Logger *zerolog.Logger
}

// CustomerRepo is the in-memory directory store. Reads are served from the
// current snapshot; every mutation goes through a single writer goroutine, so
// mutations commit one at a time in the order the queue accepts them.
type CustomerRepo struct {
	clock  clock.Clock
	delay  Delayer
	faults FaultFunc
	log    zerolog.Logger

	feed   *snapshotFeed
	writes chan write

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type mutation func(cur []domain.Customer) (next []domain.Customer, out *domain.Customer, err error)

type write struct {
	ctx   context.Context
	op    string
	apply mutation
	reply chan writeResult
}

type writeResult struct {
	customer *domain.Customer
	err      error
}

// NewCustomerRepo starts a store holding seed in the given order. Records
// sharing an id with an earlier one are dropped.
func NewCustomerRepo(seed []domain.Customer, opts Options) *CustomerRepo {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Delay == nil {
		opts.Delay = FixedDelay(opts.Clock, DefaultLatency)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	seed = lo.UniqBy(seed, func(c domain.Customer) int { return c.ID })

	r := &CustomerRepo{
		clock:  opts.Clock,
		delay:  opts.Delay,
		faults: opts.Faults,
		log:    logger,
		feed:   newSnapshotFeed(seed),
		writes: make(chan write),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Close stops the writer. Operations in flight fail with ErrStoreClosed.
func (r *CustomerRepo) Close() {
	r.closeOnce.Do(func() { close(r.done) })
	r.wg.Wait()
}

func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	if r.closed() {
		return nil, ErrStoreClosed
	}
	ctx, cancel := r.bind(ctx)
	defer cancel()
	if err := r.delay.Wait(ctx); err != nil {
		return nil, r.waitErr(err)
	}
	if err := r.fault("list"); err != nil {
		return nil, err
	}
	return slices.Clone(r.feed.Current()), nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id int) (*domain.Customer, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := lo.Find(list, func(c domain.Customer) bool { return c.ID == id })
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return &c, nil
}

func (r *CustomerRepo) Create(ctx context.Context, d domain.CustomerDraft) (*domain.Customer, error) {
	return r.submit(ctx, "create", func(cur []domain.Customer) ([]domain.Customer, *domain.Customer, error) {
		c := domain.Customer{
			ID:        nextID(cur),
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Email:     d.Email,
			Phone:     d.Phone,
			IsActive:  d.IsActive.OrElse(true),
			CreatedAt: r.clock.Now(),
		}
		next := append(slices.Clone(cur), c)
		return next, &c, nil
	})
}

func (r *CustomerRepo) Update(ctx context.Context, id int, d domain.CustomerDraft) (*domain.Customer, error) {
	return r.submit(ctx, "update", func(cur []domain.Customer) ([]domain.Customer, *domain.Customer, error) {
		_, i, ok := lo.FindIndexOf(cur, func(c domain.Customer) bool { return c.ID == id })
		if !ok {
			return nil, nil, &domain.NotFoundError{ID: id}
		}
		c := cur[i]
		c.FirstName = d.FirstName
		c.LastName = d.LastName
		c.Email = d.Email
		c.Phone = d.Phone
		if active, ok := d.IsActive.Get(); ok {
			c.IsActive = active
		}
		now := r.clock.Now()
		if now.Before(c.CreatedAt) {
			now = c.CreatedAt
		}
		c.UpdatedAt = mo.Some(now)

		next := slices.Clone(cur)
		next[i] = c
		return next, &c, nil
	})
}

func (r *CustomerRepo) Delete(ctx context.Context, id int) error {
	_, err := r.submit(ctx, "delete", func(cur []domain.Customer) ([]domain.Customer, *domain.Customer, error) {
		_, i, ok := lo.FindIndexOf(cur, func(c domain.Customer) bool { return c.ID == id })
		if !ok {
			return nil, nil, &domain.NotFoundError{ID: id}
		}
		return slices.Delete(slices.Clone(cur), i, i+1), nil, nil
	})
	return err
}

// Subscribe attaches fn to the snapshot feed. fn runs on the writer goroutine
// and must not call Subscribe itself.
func (r *CustomerRepo) Subscribe(fn func([]domain.Customer)) func() {
	return r.feed.Subscribe(fn)
}

// Subscribers reports how many callbacks are attached to the feed.
func (r *CustomerRepo) Subscribers() int {
	return r.feed.Len()
}

func (r *CustomerRepo) submit(ctx context.Context, op string, apply mutation) (*domain.Customer, error) {
	if r.closed() {
		return nil, ErrStoreClosed
	}
	w := write{ctx: ctx, op: op, apply: apply, reply: make(chan writeResult, 1)}
	select {
	case r.writes <- w:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, ErrStoreClosed
	}
	res := <-w.reply
	return res.customer, res.err
}

func (r *CustomerRepo) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case w := <-r.writes:
			c, err := r.commit(w)
			w.reply <- writeResult{customer: c, err: err}
		}
	}
}

func (r *CustomerRepo) commit(w write) (*domain.Customer, error) {
	ctx, cancel := r.bind(w.ctx)
	defer cancel()
	if err := r.delay.Wait(ctx); err != nil {
		return nil, r.waitErr(err)
	}
	if err := r.fault(w.op); err != nil {
		r.log.Warn().Err(err).Str("op", w.op).Msg("simulated failure")
		return nil, err
	}
	next, out, err := w.apply(r.feed.Current())
	if err != nil {
		r.log.Debug().Err(err).Str("op", w.op).Msg("mutation rejected")
		return nil, err
	}
	r.feed.Publish(next)

	ev := r.log.Debug().Str("op", w.op).Int("size", len(next))
	if out != nil {
		ev = ev.Int("id", out.ID)
	}
	ev.Msg("commit")
	return out, nil
}

// bind derives a context that is also cancelled when the store closes.
func (r *CustomerRepo) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (r *CustomerRepo) waitErr(err error) error {
	if r.closed() {
		return ErrStoreClosed
	}
	return err
}

func (r *CustomerRepo) fault(op string) error {
	if r.faults == nil {
		return nil
	}
	if err := r.faults(op); err != nil {
		return &domain.TransientError{Op: op, Err: err}
	}
	return nil
}

func (r *CustomerRepo) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// nextID is one past the highest live id, so the id of a deleted maximum can
// come back.
func nextID(cur []domain.Customer) int {
	return lo.Max(lo.Map(cur, func(c domain.Customer, _ int) int { return c.ID })) + 1
}
