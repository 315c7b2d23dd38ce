package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/domain"
)

// memoryRepo is a lightweight in-memory customer repository for tests.
type memoryRepo struct {
	byID   map[domain.ID]domain.Customer
	nextID domain.ID
	cards  domain.ID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[domain.ID]domain.Customer)}
}

func (r *memoryRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	r.nextID++
	c.ID = r.nextID
	r.byID[c.ID] = c
	return &c, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id domain.ID) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) List(_ context.Context, q domain.CustomerQuery) ([]domain.Customer, int, error) {
	out := make([]domain.Customer, 0, len(r.byID))
	for id := r.nextID; id > 0; id-- {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	total := len(out)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return out[start:end], total, nil
}

func (r *memoryRepo) Search(_ context.Context, _ string, _ int) ([]domain.Customer, error) {
	return nil, nil
}

func (r *memoryRepo) Update(_ context.Context, id domain.ID, f domain.CustomerFields) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if f.Name != nil {
		c.Name = *f.Name
	}
	c.Address = apply(c.Address, f.Address)
	c.PhoneNumber = apply(c.PhoneNumber, f.PhoneNumber)
	c.Email = apply(c.Email, f.Email)
	r.byID[id] = c
	return &c, nil
}

func apply(cur, next *string) *string {
	switch {
	case next == nil:
		return cur
	case *next == "":
		return nil
	default:
		return next
	}
}

func (r *memoryRepo) Delete(_ context.Context, id domain.ID) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryRepo) AddVisitingCard(_ context.Context, customerID domain.ID, imageURL string) (*domain.VisitingCard, error) {
	c, ok := r.byID[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.cards++
	card := domain.VisitingCard{ID: r.cards, CustomerID: customerID, ImageURL: imageURL}
	c.VisitingCards = append(c.VisitingCards, card)
	r.byID[customerID] = c
	return &card, nil
}

func strPtr(s string) *string { return &s }

func TestCreateTrimsAndDropsBlankFields(t *testing.T) {
	svc := New(newMemoryRepo())

	c, err := svc.Create(context.Background(), Input{
		Name:        strPtr("  Acme Traders "),
		Address:     strPtr("   "),
		PhoneNumber: strPtr("555-0101"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", c.Name)
	assert.Nil(t, c.Address)
	assert.Nil(t, c.Email)
	require.NotNil(t, c.PhoneNumber)
	assert.Equal(t, "555-0101", *c.PhoneNumber)
}

func TestCreateRequiresName(t *testing.T) {
	svc := New(newMemoryRepo())
	for _, name := range []*string{nil, strPtr(""), strPtr("  ")} {
		_, err := svc.Create(context.Background(), Input{Name: name})
		require.True(t, domain.IsValidation(err))
		assert.EqualError(t, err, "Customer name is required")
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemoryRepo())
	c, err := svc.Create(ctx, Input{Name: strPtr("Acme"), Email: strPtr("a@acme.test")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, c.ID, Input{Name: strPtr(" ")})
	assert.True(t, domain.IsValidation(err))

	updated, err := svc.Update(ctx, c.ID, Input{Address: strPtr("1 Main St"), Email: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "1 Main St", *updated.Address)
	assert.Nil(t, updated.Email)

	_, err = svc.Update(ctx, 999, Input{Name: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemoryRepo())
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		_, err := svc.Create(ctx, Input{Name: strPtr(n)})
		require.NoError(t, err)
	}

	got, page, err := svc.List(ctx, domain.CustomerQuery{PageRequest: domain.PageRequest{Page: 1, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e", got[0].Name)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 2, Total: 5, TotalPages: 3}, page)

	_, page, err = svc.List(ctx, domain.CustomerQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLimit, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestAddVisitingCard(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemoryRepo())
	c, err := svc.Create(ctx, Input{Name: strPtr("Acme")})
	require.NoError(t, err)

	_, err = svc.AddVisitingCard(ctx, c.ID, " ")
	assert.True(t, domain.IsValidation(err))

	card, err := svc.AddVisitingCard(ctx, c.ID, "/cards/acme.jpg")
	require.NoError(t, err)
	assert.Equal(t, c.ID, card.CustomerID)

	_, err = svc.AddVisitingCard(ctx, 42, "/cards/x.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemoryRepo())
	c, err := svc.Create(ctx, Input{Name: strPtr("Acme")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), domain.ErrNotFound)
}
