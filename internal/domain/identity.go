package domain

// Identity is the signed-in user behind a request.
type Identity struct {
	UserID string  `json:"id"`
	Name   *string `json:"name"`
	Email  string  `json:"email"`
	Image  *string `json:"image"`
}
