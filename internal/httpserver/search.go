package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/domain"
	searchsvc "orderledger/internal/service/search"
)

type searchService interface {
	Search(ctx context.Context, query string, scope searchsvc.Scope, limit int) (searchsvc.Results, error)
}

// searchOrder keeps images present even when an order has none.
type searchOrder struct {
	domain.Order
	Images []domain.OrderImage `json:"images"`
}

type searchResponse struct {
	Customers []domain.Customer `json:"customers"`
	Orders    []searchOrder     `json:"orders"`
}

func (h *handler) search(c *gin.Context) {
	scope, err := searchsvc.ParseScope(c.Query("type"))
	if err != nil {
		h.fail(c, err, "", "Failed to perform search")
		return
	}
	limit, ok := positiveQueryInt(c, "limit")
	if !ok {
		badRequest(c, "Invalid limit")
		return
	}

	res, err := h.deps.SearchSvc.Search(c.Request.Context(), c.Query("q"), scope, limit)
	if err != nil {
		h.fail(c, err, "", "Failed to perform search")
		return
	}
	resp := searchResponse{Customers: res.Customers, Orders: make([]searchOrder, 0, len(res.Orders))}
	if resp.Customers == nil {
		resp.Customers = []domain.Customer{}
	}
	for _, o := range res.Orders {
		images := o.Images
		if images == nil {
			images = []domain.OrderImage{}
		}
		resp.Orders = append(resp.Orders, searchOrder{Order: o, Images: images})
	}
	c.JSON(http.StatusOK, resp)
}
