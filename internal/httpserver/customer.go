package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/domain"
	customersvc "orderledger/internal/service/customer"
)

type customerService interface {
	List(ctx context.Context, q domain.CustomerQuery) ([]domain.Customer, domain.Pagination, error)
	Get(ctx context.Context, id domain.ID) (*domain.Customer, error)
	Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	Update(ctx context.Context, id domain.ID, in customersvc.Input) (*domain.Customer, error)
	Delete(ctx context.Context, id domain.ID) error
	AddVisitingCard(ctx context.Context, customerID domain.ID, imageURL string) (*domain.VisitingCard, error)
}

// customerResponse always carries the relation arrays, empty or not.
type customerResponse struct {
	domain.Customer
	VisitingCards []domain.VisitingCard `json:"visitingCards"`
	Orders        []domain.Order        `json:"orders"`
}

type customerListResponse struct {
	Customers  []customerResponse `json:"customers"`
	Pagination domain.Pagination  `json:"pagination"`
}

type visitingCardRequest struct {
	ImageURL string `json:"imageUrl"`
}

func toCustomerResponse(c domain.Customer) customerResponse {
	resp := customerResponse{Customer: c, VisitingCards: c.VisitingCards, Orders: c.Orders}
	if resp.VisitingCards == nil {
		resp.VisitingCards = []domain.VisitingCard{}
	}
	if resp.Orders == nil {
		resp.Orders = []domain.Order{}
	}
	return resp
}

func (h *handler) listCustomers(c *gin.Context) {
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	customers, pagination, err := h.deps.CustomerSvc.List(c.Request.Context(), domain.CustomerQuery{
		Search:      c.Query("search"),
		PageRequest: page,
	})
	if err != nil {
		h.fail(c, err, "Customer", "Failed to fetch customers")
		return
	}
	resp := customerListResponse{Customers: make([]customerResponse, 0, len(customers)), Pagination: pagination}
	for _, cust := range customers {
		resp.Customers = append(resp.Customers, toCustomerResponse(cust))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}
	cust, err := h.deps.CustomerSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Customer", "Failed to fetch customer")
		return
	}
	c.JSON(http.StatusOK, toCustomerResponse(*cust))
}

func (h *handler) createCustomer(c *gin.Context) {
	var req customersvc.Input
	if !bindJSON(c, &req) {
		return
	}
	cust, err := h.deps.CustomerSvc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Customer", "Failed to create customer")
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}
	var req customersvc.Input
	if !bindJSON(c, &req) {
		return
	}
	cust, err := h.deps.CustomerSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "Customer", "Failed to update customer")
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}
	if err := h.deps.CustomerSvc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Customer", "Failed to delete customer")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Customer deleted successfully"})
}

func (h *handler) addVisitingCard(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}
	var req visitingCardRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.deps.CustomerSvc.AddVisitingCard(c.Request.Context(), id, req.ImageURL)
	if err != nil {
		h.fail(c, err, "Customer", "Failed to add visiting card")
		return
	}
	c.JSON(http.StatusCreated, card)
}
