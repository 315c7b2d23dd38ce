package domain

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated    OrderStatus = "CREATED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusDelivered  OrderStatus = "DELIVERED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusProcessing, StatusDelivered:
		return true
	}
	return false
}

// ImageKind tags what an order image is evidence of.
type ImageKind string

const (
	KindOrderImage ImageKind = "ORDER_IMAGE"
	KindBillPhoto  ImageKind = "BILL_PHOTO"
)

type Order struct {
	ID            ID           `json:"id"`
	OrderNumber   string       `json:"orderNumber"`
	CustomerID    ID           `json:"customerId"`
	Notes         *string      `json:"notes"`
	AudioURL      *string      `json:"audioUrl"`
	Status        OrderStatus  `json:"status"`
	BillNumber    *string      `json:"billNumber"`
	TransportName *string      `json:"transportName"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Customer      *Customer    `json:"customer,omitempty"`
	Images        []OrderImage `json:"images,omitempty"`
}

type OrderImage struct {
	ID         ID        `json:"id"`
	OrderID    ID        `json:"orderId"`
	ImageURL   string    `json:"imageUrl"`
	Remark     *string   `json:"remark"`
	Kind       ImageKind `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ImagesOfKind returns the images carrying the given kind, preserving order.
func (o Order) ImagesOfKind(kind ImageKind) []OrderImage {
	out := make([]OrderImage, 0, len(o.Images))
	for _, img := range o.Images {
		if img.Kind == kind {
			out = append(out, img)
		}
	}
	return out
}

// ImageInput is an image to attach; the kind is decided by the operation.
type ImageInput struct {
	ImageURL string  `json:"imageUrl"`
	Remark   *string `json:"remark,omitempty"`
}

type NewOrder struct {
	CustomerID ID
	Notes      *string
	AudioURL   *string
	Images     []ImageInput
}

type OrderFields struct {
	Notes         *string
	AudioURL      *string
	Status        *OrderStatus
	BillNumber    *string
	TransportName *string
}

type Delivery struct {
	BillNumber    string
	TransportName string
	BillPhotos    []ImageInput
}
