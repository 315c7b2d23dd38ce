package order

import (
	"strings"

	"orderledger/internal/domain"
)

const (
	msgBillNumberRequired    = "Bill number is required for delivered orders"
	msgTransportNameRequired = "Transport name is required for delivered orders"
	msgBillPhotoRequired     = "At least one bill photo is required for delivered orders"
)

// DeliveryValidation is the outcome of ValidateDelivery.
type DeliveryValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateDelivery checks the fields a DELIVERED order must carry. Every
// failed rule is reported, in a fixed order. Other target statuses are
// always valid: transition legality between statuses is not checked here.
func ValidateDelivery(status domain.OrderStatus, billNumber, transportName *string, billPhotos []domain.ImageInput) DeliveryValidation {
	errs := []string{}
	if status == domain.StatusDelivered {
		if blank(billNumber) {
			errs = append(errs, msgBillNumberRequired)
		}
		if blank(transportName) {
			errs = append(errs, msgTransportNameRequired)
		}
		if len(billPhotos) == 0 {
			errs = append(errs, msgBillPhotoRequired)
		}
	}
	return DeliveryValidation{IsValid: len(errs) == 0, Errors: errs}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
