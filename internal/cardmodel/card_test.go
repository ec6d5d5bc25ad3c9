package cardmodel

import "testing"

func ptr[T any](v T) *T { return &v }

func TestCardValid(t *testing.T) {
	cases := []struct {
		name string
		card Card
		want bool
	}{
		{"empty card", Card{}, true},
		{
			"ordered pricing",
			Card{ValueLow: ptr(1.0), ValueMedian: ptr(2.0), ValueHigh: ptr(3.0), CompsCount: ptr(5)},
			true,
		},
		{
			"unordered pricing",
			Card{ValueLow: ptr(3.0), ValueMedian: ptr(2.0), ValueHigh: ptr(1.0)},
			false,
		},
		{
			"negative comps count",
			Card{CompsCount: ptr(-1)},
			false,
		},
		{
			"authenticity out of range",
			Card{AuthenticityScore: ptr(1.5)},
			false,
		},
		{
			"id confidence out of range",
			Card{IDConfidence: ptr(-0.1)},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.card.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCardIsDeleted(t *testing.T) {
	var c Card
	if c.IsDeleted() {
		t.Fatal("fresh card should not be deleted")
	}
	c.DeletedAt = ptr(c.CreatedAt)
	if !c.IsDeleted() {
		t.Fatal("card with deletedAt should be deleted")
	}
}
