package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 12: 12, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalizeRejectsNegatives(t *testing.T) {
	if _, err := Normalize(Params{Limit: -1}); err == nil {
		t.Fatal("expected negative limit error")
	}
	if _, err := Normalize(Params{Offset: -1}); err == nil {
		t.Fatal("expected negative offset error")
	}
	p, err := Normalize(Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 20 || p.Offset != 0 {
		t.Fatalf("unexpected defaults %+v", p)
	}
}

func TestPageNumber(t *testing.T) {
	tests := []struct {
		offset, limit, want int
	}{
		{0, 12, 1},
		{12, 12, 2},
		{13, 12, 2},
		{24, 12, 3},
		{40, 0, 3},
	}
	for _, tt := range tests {
		if got := PageNumber(tt.offset, tt.limit); got != tt.want {
			t.Fatalf("PageNumber(%d, %d) = %d, want %d", tt.offset, tt.limit, got, tt.want)
		}
	}
}

func TestNewMetaHasMore(t *testing.T) {
	m := NewMeta(Params{Limit: 12, Offset: 12}, 30)
	if m.Page != 2 || !m.HasMore {
		t.Fatalf("unexpected meta %+v", m)
	}
	m = NewMeta(Params{Limit: 12, Offset: 24}, 30)
	if m.HasMore {
		t.Fatalf("last page should not report more: %+v", m)
	}
}
