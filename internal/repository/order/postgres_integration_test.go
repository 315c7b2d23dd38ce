package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/db/dbtest"
	"orderledger/internal/domain"
	customerrepo "orderledger/internal/repository/customer"
)

func numbering(now time.Time) Numbering {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Numbering{
		Now:      now,
		DayStart: start,
		DayEnd:   start.AddDate(0, 0, 1).Add(-time.Millisecond),
		Format: func(seq int) string {
			return fmt.Sprintf("#%s-%04d", start.Format(time.DateOnly), seq)
		},
	}
}

func seedCustomer(ctx context.Context, t *testing.T, repo customerrepo.Repository, name string) domain.ID {
	t.Helper()
	c, err := repo.Create(ctx, domain.Customer{Name: name})
	require.NoError(t, err)
	return c.ID
}

func TestCreateNumbersConcurrentOrders_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	customerID := seedCustomer(ctx, t, customerrepo.NewPostgres(pool, nil), "Ravi")

	day := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)
	const n = 8
	numbers := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := repo.Create(ctx, domain.NewOrder{CustomerID: customerID}, numbering(day.Add(time.Duration(i)*time.Second)))
			errs[i] = err
			if err == nil {
				numbers[i] = o.OrderNumber
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Strings(numbers)
	for i, got := range numbers {
		assert.Equal(t, fmt.Sprintf("#2025-09-02-%04d", i+1), got)
	}

	next, err := repo.Create(ctx, domain.NewOrder{CustomerID: customerID}, numbering(day.AddDate(0, 0, 1)))
	require.NoError(t, err)
	assert.Equal(t, "#2025-09-03-0001", next.OrderNumber)
}

func TestCreateNeverReusesNumbersAfterDeletes_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	customers := customerrepo.NewPostgres(pool, nil)
	ravi := seedCustomer(ctx, t, customers, "Ravi")
	mina := seedCustomer(ctx, t, customers, "Mina")

	day := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)
	first, err := repo.Create(ctx, domain.NewOrder{CustomerID: ravi}, numbering(day))
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.NewOrder{CustomerID: mina}, numbering(day.Add(time.Minute)))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, first.ID))
	third, err := repo.Create(ctx, domain.NewOrder{CustomerID: ravi}, numbering(day.Add(2*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, "#2025-09-02-0003", third.OrderNumber)

	require.NoError(t, customers.Delete(ctx, mina))
	fourth, err := repo.Create(ctx, domain.NewOrder{CustomerID: ravi}, numbering(day.Add(3*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, "#2025-09-02-0004", fourth.OrderNumber)

	got, err := repo.GetByID(ctx, fourth.ID)
	require.NoError(t, err)
	assert.Equal(t, fourth.OrderNumber, got.OrderNumber)
}

func TestCreateContinuesAfterUnsequencedOrders_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	customerID := seedCustomer(ctx, t, customerrepo.NewPostgres(pool, nil), "Ravi")

	day := time.Date(2025, time.September, 4, 8, 0, 0, 0, time.UTC)
	_, err := pool.Exec(ctx, `
INSERT INTO orders (order_number, customer_id, created_at, updated_at)
VALUES ('#2025-09-04-0007', $1, $2, $2)
`, int64(customerID), day)
	require.NoError(t, err)

	o, err := repo.Create(ctx, domain.NewOrder{CustomerID: customerID}, numbering(day.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "#2025-09-04-0008", o.OrderNumber)
}

func TestUpdateAndAddImagesOnMissingOrder_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	notes := "rush"
	_, err := repo.Update(ctx, 9999, domain.OrderFields{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.AddImages(ctx, 9999, domain.KindOrderImage, []domain.ImageInput{{ImageURL: "/a.jpg"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var images int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM order_images`).Scan(&images))
	assert.Zero(t, images)
}

func TestCreateWithImagesAndMissingCustomer_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	customerID := seedCustomer(ctx, t, customerrepo.NewPostgres(pool, nil), "Ravi")
	now := time.Now().UTC()

	remark := "front"
	o, err := repo.Create(ctx, domain.NewOrder{
		CustomerID: customerID,
		Images:     []domain.ImageInput{{ImageURL: "/a.jpg", Remark: &remark}, {ImageURL: "/b.jpg"}},
	}, numbering(now))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, o.Status)
	require.NotNil(t, o.Customer)
	assert.Equal(t, "Ravi", o.Customer.Name)
	require.Len(t, o.Images, 2)
	assert.Equal(t, domain.KindOrderImage, o.Images[0].Kind)

	_, err = repo.Create(ctx, domain.NewOrder{CustomerID: 9999}, numbering(now))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeliverIsAtomic_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	customerID := seedCustomer(ctx, t, customerrepo.NewPostgres(pool, nil), "Ravi")

	o, err := repo.Create(ctx, domain.NewOrder{CustomerID: customerID}, numbering(time.Now().UTC()))
	require.NoError(t, err)

	delivered, err := repo.Deliver(ctx, o.ID, domain.Delivery{
		BillNumber:    "B100",
		TransportName: "XYZ Transport",
		BillPhotos:    []domain.ImageInput{{ImageURL: "/bill.jpg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, delivered.Status)
	assert.Equal(t, "B100", *delivered.BillNumber)
	assert.Len(t, delivered.ImagesOfKind(domain.KindBillPhoto), 1)

	_, err = repo.Deliver(ctx, 9999, domain.Delivery{BillNumber: "B", TransportName: "T", BillPhotos: []domain.ImageInput{{ImageURL: "/x.jpg"}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var photos int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM order_images WHERE type = 'BILL_PHOTO'`).Scan(&photos))
	assert.Equal(t, 1, photos)
}

func TestListFiltersAndSearch_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	customers := customerrepo.NewPostgres(pool, nil)
	ravi := seedCustomer(ctx, t, customers, "Ravi")
	mina := seedCustomer(ctx, t, customers, "Mina 100%")

	day1 := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, time.September, 2, 9, 0, 0, 0, time.UTC)
	first, err := repo.Create(ctx, domain.NewOrder{CustomerID: ravi}, numbering(day1))
	require.NoError(t, err)
	second, err := repo.Create(ctx, domain.NewOrder{CustomerID: mina, Images: []domain.ImageInput{{ImageURL: "/1"}, {ImageURL: "/2"}, {ImageURL: "/3"}, {ImageURL: "/4"}}}, numbering(day2))
	require.NoError(t, err)
	processing := domain.StatusProcessing
	_, err = repo.Update(ctx, second.ID, domain.OrderFields{Status: &processing})
	require.NoError(t, err)

	page := domain.PageRequest{Page: 1, Limit: 10}

	all, total, err := repo.List(ctx, domain.OrderQuery{PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Len(t, all[0].Images, 4)

	got, total, err := repo.List(ctx, domain.OrderQuery{Status: &processing, PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, second.ID, got[0].ID)

	end := time.Date(2025, time.September, 1, 23, 59, 59, 999_000_000, time.UTC)
	got, total, err = repo.List(ctx, domain.OrderQuery{To: &end, PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, got[0].ID)

	got, total, err = repo.List(ctx, domain.OrderQuery{Search: "100%", PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, second.ID, got[0].ID)

	past, total, err := repo.List(ctx, domain.OrderQuery{PageRequest: domain.PageRequest{Page: 3, Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, past)

	found, err := repo.Search(ctx, "2025-09", 10, 3)
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, o := range found {
		assert.LessOrEqual(t, len(o.Images), 3)
		assert.NotNil(t, o.Customer)
	}

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), domain.ErrNotFound)
}
