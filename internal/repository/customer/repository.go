package customer

import (
	"context"

	"orderledger/internal/domain"
)

// Repository persists and fetches customers.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Customer, error)
	// List returns one page of customers, newest first, with their visiting
	// cards and most recent orders attached, plus the total match count.
	List(ctx context.Context, q domain.CustomerQuery) ([]domain.Customer, int, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Customer, error)
	Update(ctx context.Context, id domain.ID, f domain.CustomerFields) (*domain.Customer, error)
	Delete(ctx context.Context, id domain.ID) error
	AddVisitingCard(ctx context.Context, customerID domain.ID, imageURL string) (*domain.VisitingCard, error)
}

// RecentOrdersPerCustomer bounds the orders attached to each listed customer.
const RecentOrdersPerCustomer = 5
