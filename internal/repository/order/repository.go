package order

import (
	"context"
	"time"

	"orderledger/internal/domain"
)

// Numbering carries what the repository needs to assign an order number:
// the creation instant, the local day window around it, and the format for
// that day's next sequence value.
type Numbering struct {
	Now      time.Time
	DayStart time.Time
	DayEnd   time.Time
	Format   func(seq int) string
}

// Repository persists and fetches orders and their images.
type Repository interface {
	Create(ctx context.Context, in domain.NewOrder, n Numbering) (*domain.Order, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Order, error)
	List(ctx context.Context, q domain.OrderQuery) ([]domain.Order, int, error)
	Search(ctx context.Context, term string, limit, imagesPerOrder int) ([]domain.Order, error)
	Update(ctx context.Context, id domain.ID, f domain.OrderFields) (*domain.Order, error)
	AddImages(ctx context.Context, orderID domain.ID, kind domain.ImageKind, images []domain.ImageInput) ([]domain.OrderImage, error)
	Deliver(ctx context.Context, id domain.ID, d domain.Delivery) (*domain.Order, error)
	Delete(ctx context.Context, id domain.ID) error
}
