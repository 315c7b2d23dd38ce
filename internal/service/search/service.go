package search

import (
	"context"
	"strings"

	"orderledger/internal/domain"
)

// Scope selects which entities a search covers.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeCustomers Scope = "customers"
	ScopeOrders    Scope = "orders"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ParseScope maps the query parameter onto a Scope; empty means all.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeCustomers, ScopeOrders:
		return sc, nil
	}
	return "", domain.Invalid("Invalid search type")
}

// CustomerFinder is the customer lookup used by global search.
type CustomerFinder interface {
	Search(ctx context.Context, term string, limit int) ([]domain.Customer, error)
}

// OrderFinder is the order lookup used by global search.
type OrderFinder interface {
	Search(ctx context.Context, term string, limit int) ([]domain.Order, error)
}

// Results holds both result sets; the one outside the scope stays empty.
type Results struct {
	Customers []domain.Customer `json:"customers"`
	Orders    []domain.Order    `json:"orders"`
}

// Service runs federated substring search over customers and orders.
type Service struct {
	customers CustomerFinder
	orders    OrderFinder
}

func New(customers CustomerFinder, orders OrderFinder) *Service {
	return &Service{customers: customers, orders: orders}
}

func (s *Service) Search(ctx context.Context, query string, scope Scope, limit int) (Results, error) {
	res := Results{Customers: []domain.Customer{}, Orders: []domain.Order{}}
	term := strings.TrimSpace(query)
	if term == "" {
		return res, domain.Invalid("Search query is required")
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if scope == ScopeAll || scope == ScopeCustomers {
		customers, err := s.customers.Search(ctx, term, limit)
		if err != nil {
			return res, err
		}
		if customers != nil {
			res.Customers = customers
		}
	}
	if scope == ScopeAll || scope == ScopeOrders {
		orders, err := s.orders.Search(ctx, term, limit)
		if err != nil {
			return res, err
		}
		if orders != nil {
			res.Orders = orders
		}
	}
	return res, nil
}
