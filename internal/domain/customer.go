package domain

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

type Customer struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt mo.Option[time.Time]
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Customer) Summary() CustomerSummary {
	return CustomerSummary{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		IsActive:  c.IsActive,
	}
}

// CustomerDraft carries field values before the store assigns identity and
// timestamps. ID is only set when the draft targets an existing record.
type CustomerDraft struct {
	ID        mo.Option[int]
	FirstName string
	LastName  string
	Email     string
	Phone     string
	IsActive  mo.Option[bool]
}

// DraftOf projects a stored record back into an editable draft.
func DraftOf(c Customer) CustomerDraft {
	return CustomerDraft{
		ID:        mo.Some(c.ID),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		IsActive:  mo.Some(c.IsActive),
	}
}

type CustomerSummary struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Phone     string
	IsActive  bool
}

func (s CustomerSummary) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
