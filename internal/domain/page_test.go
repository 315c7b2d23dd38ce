package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination_TotalPagesIsCeiling(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{101, 10, 11},
	}
	for _, tc := range cases {
		p := NewPagination(PageRequest{Page: 1, Limit: tc.limit}, tc.total)
		assert.Equal(t, tc.want, p.TotalPages, "total=%d limit=%d", tc.total, tc.limit)
		assert.Equal(t, tc.total, p.Total)
	}
}

func TestPageRequest_NormalizeAndOffset(t *testing.T) {
	p := PageRequest{}.Normalize()
	assert.Equal(t, PageRequest{Page: 1, Limit: 20}, p)
	assert.Equal(t, 0, p.Offset())

	p = PageRequest{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())
}
