package domain

import "time"

// Customer is a business contact that places orders.
type Customer struct {
	ID            ID             `json:"id"`
	Name          string         `json:"name"`
	Address       *string        `json:"address"`
	PhoneNumber   *string        `json:"phoneNumber"`
	Email         *string        `json:"email"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	VisitingCards []VisitingCard `json:"visitingCards,omitempty"`
	Orders        []Order        `json:"orders,omitempty"`
}

// VisitingCard is a scanned business card attached to a customer.
type VisitingCard struct {
	ID         ID        `json:"id"`
	CustomerID ID        `json:"customerId"`
	ImageURL   string    `json:"imageUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// CustomerFields is a partial update. Nil leaves a field as is; an empty
// optional field clears it.
type CustomerFields struct {
	Name        *string
	Address     *string
	PhoneNumber *string
	Email       *string
}
