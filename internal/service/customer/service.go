package customer

import (
	"context"
	"strings"

	"orderledger/internal/domain"
	custrepo "orderledger/internal/repository/customer"
)

// Service handles customer records and their visiting cards.
type Service struct {
	repo custrepo.Repository
}

// New creates a Service.
func New(repo custrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Input mirrors incoming customer payloads. Create requires Name; Update
// applies only the non-nil fields.
type Input struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
}

func (s *Service) List(ctx context.Context, q domain.CustomerQuery) ([]domain.Customer, domain.Pagination, error) {
	q.PageRequest = q.PageRequest.Normalize()
	q.Search = strings.TrimSpace(q.Search)
	customers, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return customers, domain.NewPagination(q.PageRequest, total), nil
}

func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a customer. Blank optional fields are stored as absent.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Customer, error) {
	name := optional(in.Name)
	if name == nil {
		return nil, domain.Invalid("Customer name is required")
	}
	return s.repo.Create(ctx, domain.Customer{
		Name:        *name,
		Address:     optional(in.Address),
		PhoneNumber: optional(in.PhoneNumber),
		Email:       optional(in.Email),
	})
}

func (s *Service) Update(ctx context.Context, id domain.ID, in Input) (*domain.Customer, error) {
	fields := domain.CustomerFields{
		Address:     trimmed(in.Address),
		PhoneNumber: trimmed(in.PhoneNumber),
		Email:       trimmed(in.Email),
	}
	if in.Name != nil {
		fields.Name = optional(in.Name)
		if fields.Name == nil {
			return nil, domain.Invalid("Customer name is required")
		}
	}
	return s.repo.Update(ctx, id, fields)
}

// Delete removes the customer together with its orders and cards.
func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddVisitingCard(ctx context.Context, customerID domain.ID, imageURL string) (*domain.VisitingCard, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, domain.Invalid("Image URL is required")
	}
	return s.repo.AddVisitingCard(ctx, customerID, imageURL)
}

// Search finds customers for the global search.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]domain.Customer, error) {
	return s.repo.Search(ctx, term, limit)
}

// optional trims s and maps blank values to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// trimmed trims s but keeps an explicit empty string, which clears the
// stored value on update.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
