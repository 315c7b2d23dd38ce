package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"orderledger/internal/domain"
	ordersvc "orderledger/internal/service/order"
)

type orderService interface {
	List(ctx context.Context, q domain.OrderQuery) ([]domain.Order, domain.Pagination, error)
	Get(ctx context.Context, id domain.ID) (*domain.Order, error)
	Create(ctx context.Context, in ordersvc.CreateInput) (*domain.Order, error)
	Update(ctx context.Context, id domain.ID, in ordersvc.UpdateInput) (*domain.Order, error)
	AddImages(ctx context.Context, id domain.ID, images []domain.ImageInput) ([]domain.OrderImage, error)
	Deliver(ctx context.Context, id domain.ID, in ordersvc.DeliverInput) (*domain.Order, error)
	Delete(ctx context.Context, id domain.ID) error
}

// orderResponse is an order with its images also split by kind.
type orderResponse struct {
	domain.Order
	Images      []domain.OrderImage `json:"images"`
	OrderImages []domain.OrderImage `json:"orderImages"`
	BillPhotos  []domain.OrderImage `json:"billPhotos"`
}

type orderListResponse struct {
	Orders     []orderResponse   `json:"orders"`
	Pagination domain.Pagination `json:"pagination"`
}

type addImagesRequest struct {
	Images []domain.ImageInput `json:"images"`
}

func toOrderResponse(o domain.Order) orderResponse {
	images := o.Images
	if images == nil {
		images = []domain.OrderImage{}
	}
	return orderResponse{
		Order:       o,
		Images:      images,
		OrderImages: o.ImagesOfKind(domain.KindOrderImage),
		BillPhotos:  o.ImagesOfKind(domain.KindBillPhoto),
	}
}

func (h *handler) listOrders(c *gin.Context) {
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	q := domain.OrderQuery{Search: c.Query("search"), PageRequest: page}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.OrderStatus(strings.ToUpper(raw))
		if !status.Valid() {
			badRequest(c, "Invalid status")
			return
		}
		q.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("startDate")); raw != "" {
		from, err := parseDate(raw, h.deps.Location, false)
		if err != nil {
			badRequest(c, "Invalid startDate")
			return
		}
		q.From = &from
	}
	if raw := strings.TrimSpace(c.Query("endDate")); raw != "" {
		to, err := parseDate(raw, h.deps.Location, true)
		if err != nil {
			badRequest(c, "Invalid endDate")
			return
		}
		q.To = &to
	}

	orders, pagination, err := h.deps.OrderSvc.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err, "Order", "Failed to fetch orders")
		return
	}
	resp := orderListResponse{Orders: make([]orderResponse, 0, len(orders)), Pagination: pagination}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "Order")
	if !ok {
		return
	}
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Order", "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handler) createOrder(c *gin.Context) {
	var req ordersvc.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.deps.OrderSvc.Create(c.Request.Context(), req)
	if err != nil {
		// The only missing entity on create is the referenced customer.
		h.fail(c, err, "Customer", "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*o))
}

func (h *handler) updateOrder(c *gin.Context) {
	id, ok := pathID(c, "Order")
	if !ok {
		return
	}
	var req ordersvc.UpdateInput
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.deps.OrderSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "Order", "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handler) deleteOrder(c *gin.Context) {
	id, ok := pathID(c, "Order")
	if !ok {
		return
	}
	if err := h.deps.OrderSvc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Order", "Failed to delete order")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Order deleted successfully"})
}

func (h *handler) addOrderImages(c *gin.Context) {
	id, ok := pathID(c, "Order")
	if !ok {
		return
	}
	var req addImagesRequest
	if !bindJSON(c, &req) {
		return
	}
	images, err := h.deps.OrderSvc.AddImages(c.Request.Context(), id, req.Images)
	if err != nil {
		h.fail(c, err, "Order", "Failed to add order images")
		return
	}
	c.JSON(http.StatusCreated, images)
}

func (h *handler) deliverOrder(c *gin.Context) {
	id, ok := pathID(c, "Order")
	if !ok {
		return
	}
	var req ordersvc.DeliverInput
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.deps.OrderSvc.Deliver(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "Order", "Failed to deliver order")
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}
