package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orderledger/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestValidateDelivery(t *testing.T) {
	photo := []domain.ImageInput{{ImageURL: "/bill.jpg"}}

	cases := []struct {
		name      string
		status    domain.OrderStatus
		bill      *string
		transport *string
		photos    []domain.ImageInput
		want      []string
	}{
		{
			name:      "complete delivery",
			status:    domain.StatusDelivered,
			bill:      strPtr("B-1"),
			transport: strPtr("FastTrans"),
			photos:    photo,
			want:      []string{},
		},
		{
			name:   "everything missing",
			status: domain.StatusDelivered,
			want:   []string{msgBillNumberRequired, msgTransportNameRequired, msgBillPhotoRequired},
		},
		{
			name:      "whitespace counts as blank",
			status:    domain.StatusDelivered,
			bill:      strPtr("   "),
			transport: strPtr("X"),
			photos:    photo,
			want:      []string{msgBillNumberRequired},
		},
		{
			name:      "empty transport and no photos",
			status:    domain.StatusDelivered,
			bill:      strPtr("B1"),
			transport: strPtr(""),
			photos:    []domain.ImageInput{},
			want:      []string{msgTransportNameRequired, msgBillPhotoRequired},
		},
		{
			name:      "no photos",
			status:    domain.StatusDelivered,
			bill:      strPtr("B-1"),
			transport: strPtr("X"),
			photos:    []domain.ImageInput{},
			want:      []string{msgBillPhotoRequired},
		},
		{
			name:   "processing needs nothing",
			status: domain.StatusProcessing,
			want:   []string{},
		},
		{
			name:   "created needs nothing",
			status: domain.StatusCreated,
			want:   []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateDelivery(tc.status, tc.bill, tc.transport, tc.photos)
			assert.Equal(t, tc.want, got.Errors)
			assert.Equal(t, len(tc.want) == 0, got.IsValid)
		})
	}
}
