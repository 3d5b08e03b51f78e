package shared

import "testing"

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	if p.TotalPages != 4 {
		t.Fatalf("expected 4 pages, got %d", p.TotalPages)
	}
	if !p.HasNext() {
		t.Fatalf("expected next page from page 2 of 4")
	}
	if p.Offset() != 10 {
		t.Fatalf("expected offset 10, got %d", p.Offset())
	}
}

func TestNewPaginationLastPage(t *testing.T) {
	p := NewPagination(4, 10, 35)
	if p.HasNext() {
		t.Fatalf("did not expect a next page on the last page")
	}
}

func TestNewPaginationPastEnd(t *testing.T) {
	p := NewPagination(9, 10, 35)
	if p.HasNext() {
		t.Fatalf("did not expect a next page past the end")
	}
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(1, 10, 0)
	if p.TotalPages != 0 {
		t.Fatalf("expected 0 pages, got %d", p.TotalPages)
	}
	if p.HasNext() {
		t.Fatalf("did not expect a next page of an empty listing")
	}
}

func TestNormalizePerPage(t *testing.T) {
	cases := map[int]int{
		10:  10,
		25:  25,
		50:  50,
		100: 100,
		0:   DefaultPerPage,
		-5:  DefaultPerPage,
		33:  DefaultPerPage,
		500: DefaultPerPage,
	}
	for in, want := range cases {
		if got := NormalizePerPage(in); got != want {
			t.Fatalf("NormalizePerPage(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNewPaginationBadInputs(t *testing.T) {
	p := NewPagination(0, 37, 5)
	if p.Page != 1 {
		t.Fatalf("expected page fallback to 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Fatalf("expected per-page fallback, got %d", p.PerPage)
	}
}
