package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 0, 42},
		{"", 10, 10},
		{"x", 5, 5},
		{"-7", 1, -7},
		{"3.5", 9, 9},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{1, 20, 1, 20},
		{0, 20, 1, 20},
		{-5, 50, 1, 50},
		{2, 0, 2, 20},
		{2, -1, 2, 20},
		{2, 101, 2, 20},
		{3, 100, 3, 100},
	}
	for _, tc := range cases {
		p, ps := ClampPage(tc.page, tc.size, 20, 100)
		if p != tc.wantPage || ps != tc.wantSize {
			t.Fatalf("ClampPage(%d, %d) = (%d, %d); want (%d, %d)",
				tc.page, tc.size, p, ps, tc.wantPage, tc.wantSize)
		}
	}
}
