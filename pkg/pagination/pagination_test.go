package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Limit: DefaultLimit}},
		{Params{Limit: 500, Offset: -3}, Params{Limit: MaxLimit}},
		{Params{Limit: 10, Offset: 20}, Params{Limit: 10, Offset: 20}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[int](nil, 0, Params{})
	if page.Items == nil {
		t.Fatal("expected empty slice")
	}
	if page.Limit != DefaultLimit {
		t.Fatalf("expected default limit, got %d", page.Limit)
	}
}
