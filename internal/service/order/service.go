package order

import (
	"context"
	"strings"
	"time"

	"orderledger/internal/domain"
	orderrepo "orderledger/internal/repository/order"
)

// ImagesPerSearchResult bounds the images attached to each global search hit.
const ImagesPerSearchResult = 3

// Service implements order lifecycle operations.
type Service struct {
	repo orderrepo.Repository
	loc  *time.Location
	now  func() time.Time
}

// New creates a Service numbering orders by calendar days of loc.
func New(repo orderrepo.Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// CreateInput captures fields accepted when opening an order.
type CreateInput struct {
	CustomerID domain.ID           `json:"customerId"`
	Notes      *string             `json:"notes"`
	AudioURL   *string             `json:"audioUrl"`
	Images     []domain.ImageInput `json:"images"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Notes         *string `json:"notes"`
	AudioURL      *string `json:"audioUrl"`
	Status        *string `json:"status"`
	BillNumber    *string `json:"billNumber"`
	TransportName *string `json:"transportName"`
}

// DeliverInput carries the evidence required to mark an order delivered.
type DeliverInput struct {
	BillNumber    *string             `json:"billNumber"`
	TransportName *string             `json:"transportName"`
	BillPhotos    []domain.ImageInput `json:"billPhotos"`
}

// WithClock replaces the clock used to date and number new orders.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) List(ctx context.Context, q domain.OrderQuery) ([]domain.Order, domain.Pagination, error) {
	q.PageRequest = q.PageRequest.Normalize()
	q.Search = strings.TrimSpace(q.Search)
	if q.Status != nil && !q.Status.Valid() {
		return nil, domain.Pagination{}, domain.Invalid("Invalid status")
	}
	orders, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return orders, domain.NewPagination(q.PageRequest, total), nil
}

func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// Create opens an order in status CREATED with the next number of the day.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if in.CustomerID <= 0 {
		return nil, domain.Invalid("Customer ID is required")
	}
	if err := requireImageURLs(in.Images); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	start, end := DayBounds(now)
	return s.repo.Create(ctx, domain.NewOrder{
		CustomerID: in.CustomerID,
		Notes:      in.Notes,
		AudioURL:   in.AudioURL,
		Images:     in.Images,
	}, orderrepo.Numbering{
		Now:      now,
		DayStart: start,
		DayEnd:   end,
		Format: func(seq int) string {
			return FormatOrderNumber(now, seq)
		},
	})
}

// Update replaces the supplied fields. Delivery requirements are enforced
// only by Deliver.
func (s *Service) Update(ctx context.Context, id domain.ID, in UpdateInput) (*domain.Order, error) {
	fields := domain.OrderFields{
		Notes:         in.Notes,
		AudioURL:      in.AudioURL,
		BillNumber:    in.BillNumber,
		TransportName: in.TransportName,
	}
	if in.Status != nil {
		status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			return nil, domain.Invalid("Invalid status")
		}
		fields.Status = &status
	}
	return s.repo.Update(ctx, id, fields)
}

// AddImages attaches order images to an existing order.
func (s *Service) AddImages(ctx context.Context, id domain.ID, images []domain.ImageInput) ([]domain.OrderImage, error) {
	if len(images) == 0 {
		return nil, domain.Invalid("Images are required")
	}
	if err := requireImageURLs(images); err != nil {
		return nil, err
	}
	return s.repo.AddImages(ctx, id, domain.KindOrderImage, images)
}

// Deliver moves the order to DELIVERED. Nothing is written unless every
// delivery requirement holds.
func (s *Service) Deliver(ctx context.Context, id domain.ID, in DeliverInput) (*domain.Order, error) {
	check := ValidateDelivery(domain.StatusDelivered, in.BillNumber, in.TransportName, in.BillPhotos)
	if !check.IsValid {
		return nil, &domain.ValidationError{Message: "Validation failed", Details: check.Errors}
	}
	if err := requireImageURLs(in.BillPhotos); err != nil {
		return nil, err
	}
	return s.repo.Deliver(ctx, id, domain.Delivery{
		BillNumber:    strings.TrimSpace(*in.BillNumber),
		TransportName: strings.TrimSpace(*in.TransportName),
		BillPhotos:    in.BillPhotos,
	})
}

func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	return s.repo.Delete(ctx, id)
}

// Search finds orders for the global search, each with a few images.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]domain.Order, error) {
	return s.repo.Search(ctx, term, limit, ImagesPerSearchResult)
}

func requireImageURLs(images []domain.ImageInput) error {
	for _, img := range images {
		if strings.TrimSpace(img.ImageURL) == "" {
			return domain.Invalid("Image URL is required")
		}
	}
	return nil
}
