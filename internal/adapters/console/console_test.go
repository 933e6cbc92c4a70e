package console

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/clientes/internal/adapters/repo/memory"
	"github.com/phenrril/clientes/internal/domain"
	"github.com/phenrril/clientes/internal/usecase"
)

func seed() []domain.Customer {
	return []domain.Customer{{
		ID:        1,
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "jean.dupont@email.com",
		Phone:     "0123456789",
		IsActive:  true,
		CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}}
}

func newRepo(t *testing.T, faults memory.FaultFunc) *memory.CustomerRepo {
	t.Helper()
	r := memory.NewCustomerRepo(seed(), memory.Options{Delay: memory.NoDelay, Faults: faults})
	t.Cleanup(r.Close)
	return r
}

func run(t *testing.T, repo *memory.CustomerRepo, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	c := New(in, &out, &usecase.CustomerUC{Customers: repo}, Options{})
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestConsole_ListShowsSeed(t *testing.T) {
	out := run(t, newRepo(t, nil), "list", "quit")

	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Jean Dupont")
	assert.Contains(t, out, "jean.dupont@email.com")
	assert.Contains(t, out, "active")
}

func TestConsole_CreateCustomer(t *testing.T) {
	repo := newRepo(t, nil)
	out := run(t, repo,
		"new",
		"set firstName Marie",
		"set lastName Curie",
		"set email marie.curie@email.com",
		"submit",
	)

	assert.Contains(t, out, "Add customer")
	assert.Contains(t, out, "customer created.")
	assert.Contains(t, out, "Marie Curie")

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[1].ID)
	assert.Equal(t, "", list[1].Phone)
}

func TestConsole_SubmitShowsValidationErrors(t *testing.T) {
	repo := newRepo(t, nil)
	out := run(t, repo, "new", "set firstName A", "submit")

	assert.Contains(t, out, "please fix the highlighted fields")
	assert.Contains(t, out, "First name must be at least 2 characters")
	assert.Contains(t, out, "Last name is required")

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConsole_TouchRevealsError(t *testing.T) {
	out := run(t, newRepo(t, nil), "new", "touch email")

	assert.Contains(t, out, "Email is required")
	assert.NotContains(t, out, "First name is required")
}

func TestConsole_EditUpdatesCustomer(t *testing.T) {
	repo := newRepo(t, nil)
	out := run(t, repo, "edit 1", "set phone +33 1 23 45 67 89", "active false", "submit")

	assert.Contains(t, out, "Edit customer")
	assert.Contains(t, out, "customer updated.")

	c, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "+33 1 23 45 67 89", c.Phone)
	assert.False(t, c.IsActive)
	assert.True(t, c.UpdatedAt.IsPresent())
}

func TestConsole_EditMissingRedirects(t *testing.T) {
	out := run(t, newRepo(t, nil), "edit 99")

	assert.Contains(t, out, "customer 99 not found, back to the list")
	assert.Contains(t, out, "Jean Dupont")
	assert.NotContains(t, out, "Edit customer")
}

func TestConsole_DeleteAsksForConfirmation(t *testing.T) {
	repo := newRepo(t, nil)
	out := run(t, repo, "delete 1", "n")

	assert.Contains(t, out, "delete Jean Dupont? this cannot be undone [y/N]")
	assert.Contains(t, out, "nothing deleted.")
	_, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)

	out = run(t, repo, "delete 1", "y", "list")
	assert.Contains(t, out, "customer 1 deleted.")
	assert.Contains(t, out, "(none)")
	_, err = repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsole_DeleteRequiresListedCustomer(t *testing.T) {
	out := run(t, newRepo(t, nil), "search curie", "delete 1")

	assert.Contains(t, out, `searching for "curie"`)
	assert.Contains(t, out, "customer 1 is not in the displayed list")
}

func TestConsole_SearchFiltersList(t *testing.T) {
	out := run(t, newRepo(t, nil), "search  dup ", "list", "search zzz", "list")

	assert.Contains(t, out, `customers matching "dup":`)
	assert.Contains(t, out, `customers matching "zzz":`)
	assert.Contains(t, out, "(none)")
}

func TestConsole_StoreFailureKeepsLoopAlive(t *testing.T) {
	faults := func(op string) error {
		if op == "create" {
			return errors.New("connection reset")
		}
		return nil
	}
	repo := newRepo(t, faults)
	out := run(t, repo,
		"new",
		"set firstName Marie",
		"set lastName Curie",
		"set email marie.curie@email.com",
		"submit",
		"form",
	)

	assert.Contains(t, out, "operation failed:")
	assert.Contains(t, out, "connection reset")
	assert.NotContains(t, out, "customer created.")
	// values survive for a retry
	assert.Contains(t, out, "marie.curie@email.com")
}

func TestConsole_CancelReturnsToList(t *testing.T) {
	out := run(t, newRepo(t, nil), "new", "set firstName Marie", "cancel")

	assert.Contains(t, out, "edit cancelled.")
	assert.Contains(t, out, "Jean Dupont")
}

func TestConsole_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.xlsx")
	out := run(t, newRepo(t, nil), "export "+path)

	assert.Contains(t, out, "exported 1 customer(s)")
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestConsole_BadInput(t *testing.T) {
	out := run(t, newRepo(t, nil), "frobnicate", "edit abc", "set nickname Bob", "quit", "list")

	assert.Contains(t, out, `error: unknown command "frobnicate"`)
	assert.Contains(t, out, `error: invalid customer id "abc"`)
	assert.Contains(t, out, `error: unknown field "nickname"`)
	assert.NotContains(t, out, "Jean Dupont")
}
