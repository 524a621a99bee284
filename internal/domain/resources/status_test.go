package resources

import "testing"

func TestStatusForQuantity(t *testing.T) {
	cases := []struct {
		quantity int
		want     string
	}{
		{-1, StatusOutOfStock},
		{0, StatusOutOfStock},
		{1, StatusLowStock},
		{4, StatusLowStock},
		{5, StatusAvailable},
		{100, StatusAvailable},
	}
	for _, tc := range cases {
		if got := statusForQuantity(tc.quantity); got != tc.want {
			t.Errorf("statusForQuantity(%d) = %q, want %q", tc.quantity, got, tc.want)
		}
	}
}

func TestStatusAfterReturn(t *testing.T) {
	cases := []struct {
		quantity int
		want     string
	}{
		{0, StatusOutOfStock},
		{1, StatusLowStock},
		{5, StatusLowStock},
		{6, StatusAvailable},
	}
	for _, tc := range cases {
		if got := statusAfterReturn(tc.quantity); got != tc.want {
			t.Errorf("statusAfterReturn(%d) = %q, want %q", tc.quantity, got, tc.want)
		}
	}
}
