package usecase

import (
	"context"
	"errors"

	"github.com/phenrril/clientes/internal/domain"
)

type CustomerUC struct {
	Customers domain.CustomerRepo
}

func (uc *CustomerUC) List(ctx context.Context) ([]domain.Customer, error) {
	return uc.Customers.List(ctx)
}

// ResolveForEdit loads the record an edit screen is about to show. A missing
// record is not an error for the caller: it asks to redirect back to the list.
func (uc *CustomerUC) ResolveForEdit(ctx context.Context, id int) (c *domain.Customer, redirect bool, err error) {
	c, err = uc.Customers.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// ConfirmFunc asks the user whether the given customer may be deleted.
type ConfirmFunc func(domain.CustomerSummary) bool

// DeleteConfirmed deletes s once confirm agrees. Nothing reaches the store
// when the user declines. A store error is returned as is; the displayed view
// only changes through the store's broadcast.
func (uc *CustomerUC) DeleteConfirmed(ctx context.Context, s domain.CustomerSummary, confirm ConfirmFunc) (bool, error) {
	if s.ID == 0 {
		return false, nil
	}
	if confirm == nil || !confirm(s) {
		return false, nil
	}
	if err := uc.Customers.Delete(ctx, s.ID); err != nil {
		return false, err
	}
	return true, nil
}
