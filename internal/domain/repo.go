package domain

import "context"

type CustomerReader interface {
	List(ctx context.Context) ([]Customer, error)
	FindByID(ctx context.Context, id int) (*Customer, error)
}

type CustomerWriter interface {
	Create(ctx context.Context, d CustomerDraft) (*Customer, error)
	Update(ctx context.Context, id int, d CustomerDraft) (*Customer, error)
	Delete(ctx context.Context, id int) error
}

// CustomerFeed delivers collection snapshots. The current snapshot is replayed
// to fn before Subscribe returns. The returned func detaches fn.
type CustomerFeed interface {
	Subscribe(fn func([]Customer)) (cancel func())
}

type CustomerRepo interface {
	CustomerReader
	CustomerWriter
	CustomerFeed
}
