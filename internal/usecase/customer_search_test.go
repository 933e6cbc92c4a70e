package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/clientes/internal/adapters/repo/memory"
	"github.com/phenrril/clientes/internal/domain"
)

func directorySeed() []domain.Customer {
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return []domain.Customer{
		{ID: 1, FirstName: "Jean", LastName: "Dupont", Email: "jean.dupont@email.com", Phone: "0123456789", IsActive: true, CreatedAt: created},
		{ID: 2, FirstName: "Marie", LastName: "Curie", Email: "m@c.org", IsActive: true, CreatedAt: created},
		{ID: 3, FirstName: "Abcde", LastName: "Fghij", Email: "abc@letters.io", IsActive: false, CreatedAt: created},
	}
}

func summaries(cs []domain.Customer) []domain.CustomerSummary {
	out := make([]domain.CustomerSummary, len(cs))
	for i, c := range cs {
		out[i] = c.Summary()
	}
	return out
}

func ids(view CustomerView) []int {
	out := make([]int, len(view.Customers))
	for i, c := range view.Customers {
		out[i] = c.ID
	}
	return out
}

func newTestSearch(t *testing.T) (*CustomerSearch, *clock.Mock, *memory.CustomerRepo) {
	t.Helper()
	repo := newRepo(t, directorySeed()...)
	mock := clock.NewMock()
	s := NewCustomerSearch(repo, SearchOptions{Debounce: DefaultSearchDebounce, Clock: mock})
	t.Cleanup(s.Close)
	return s, mock, repo
}

func TestCustomerSearch_InitialViewFromReplay(t *testing.T) {
	s, _, _ := newTestSearch(t)

	assert.Equal(t, 1, s.Recomputes())
	view := s.Current()
	assert.Equal(t, "", view.Term)
	assert.Equal(t, []int{1, 2, 3}, ids(view))

	select {
	case v := <-s.Views():
		assert.Equal(t, []int{1, 2, 3}, ids(v))
	default:
		t.Fatal("initial view not delivered")
	}
}

func TestCustomerSearch_DebounceKeepsLastTerm(t *testing.T) {
	s, mock, _ := newTestSearch(t)

	s.Search("a")
	s.Search("ab")
	s.Search("abc")
	mock.Add(DefaultSearchDebounce - time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, s.Recomputes(), "nothing applied inside the quiet window")

	mock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return s.Recomputes() == 2 }, time.Second, time.Millisecond)

	view := s.Current()
	assert.Equal(t, "abc", view.Term)
	assert.Equal(t, []int{3}, ids(view))

	mock.Add(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, s.Recomputes(), "exactly one recomputation for the burst")
}

func TestCustomerSearch_DistinctTrimmedTerm(t *testing.T) {
	s, mock, _ := newTestSearch(t)

	s.Search("marie")
	mock.Add(DefaultSearchDebounce)
	require.Eventually(t, func() bool { return s.Recomputes() == 2 }, time.Second, time.Millisecond)

	s.Search("  marie  ")
	mock.Add(DefaultSearchDebounce)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, s.Recomputes())

	s.Search("   ")
	mock.Add(DefaultSearchDebounce)
	require.Eventually(t, func() bool { return s.Recomputes() == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{1, 2, 3}, ids(s.Current()))
}

func TestCustomerSearch_StoreCommitRecomputesWithLatestTerm(t *testing.T) {
	s, mock, repo := newTestSearch(t)

	s.Search("curie")
	mock.Add(DefaultSearchDebounce)
	require.Eventually(t, func() bool { return s.Recomputes() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{2}, ids(s.Current()))

	_, err := repo.Create(context.Background(), domain.CustomerDraft{FirstName: "Pierre", LastName: "Curie", Email: "p@c.org"})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Recomputes())
	view := s.Current()
	assert.Equal(t, "curie", view.Term)
	assert.Equal(t, []int{2, 4}, ids(view))

	got := <-s.Views()
	assert.Equal(t, []int{2, 4}, ids(got), "only the latest view is kept for the consumer")
}

func TestCustomerSearch_CloseStopsRecomputation(t *testing.T) {
	repo := newRepo(t, directorySeed()...)
	mock := clock.NewMock()
	s := NewCustomerSearch(repo, SearchOptions{Debounce: DefaultSearchDebounce, Clock: mock})
	assert.Equal(t, 1, repo.Subscribers())

	s.Search("jean")
	s.Close()
	s.Close()
	assert.Equal(t, 0, repo.Subscribers())

	mock.Add(time.Second)
	_, err := repo.Create(context.Background(), domain.CustomerDraft{FirstName: "Late", LastName: "Comer", Email: "l@c.io"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, s.Recomputes())
	s.Search("anything")
	assert.Equal(t, 1, s.Recomputes())

	for range s.Views() {
	}
}

func TestCustomerSearch_ZeroDebounceAppliesImmediately(t *testing.T) {
	repo := newRepo(t, directorySeed()...)
	s := NewCustomerSearch(repo, SearchOptions{})
	defer s.Close()

	s.Search("DUPONT")
	assert.Equal(t, 2, s.Recomputes())
	assert.Equal(t, []int{1}, ids(s.Current()))
}

func TestFilterCustomers(t *testing.T) {
	all := summaries(directorySeed())

	tests := []struct {
		term string
		want []int
	}{
		{"", []int{1, 2, 3}},
		{"jean", []int{1}},
		{"JEAN DUP", []int{1}},
		{"jeandupont", []int{1}},
		{"0123 456", []int{1}},
		{"c.org", []int{2}},
		{"e", []int{1, 2, 3}},
		{"zzz", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := FilterCustomers(all, tt.term)
			gotIDs := make([]int, len(got))
			for i, c := range got {
				gotIDs[i] = c.ID
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}
}

func TestFilterCustomers_Idempotent(t *testing.T) {
	all := summaries(directorySeed())
	for _, term := range []string{"", "e", "dupont", "abc"} {
		once := FilterCustomers(all, term)
		twice := FilterCustomers(once, term)
		assert.Equal(t, once, twice, term)
	}
}

func TestCustomerSearch_ViewsCarrySession(t *testing.T) {
	s, mock, _ := newTestSearch(t)
	other, _, _ := newTestSearch(t)

	require.NotEmpty(t, s.Session())
	assert.NotEqual(t, s.Session(), other.Session())
	assert.Equal(t, s.Session(), s.Current().Session)

	s.Search("curie")
	mock.Add(DefaultSearchDebounce)
	require.Eventually(t, func() bool { return s.Current().Term == "curie" }, time.Second, time.Millisecond)

	v := <-s.Views()
	assert.Equal(t, s.Session(), v.Session)
	assert.Equal(t, []int{2}, ids(v))
}
