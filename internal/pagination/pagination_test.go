package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/requests", nil)

	params := Parse(r, "createdAt", "title")

	if params.Page != 1 {
		t.Errorf("Expected page 1, got %d", params.Page)
	}
	if params.Size != 10 {
		t.Errorf("Expected size 10, got %d", params.Size)
	}
	if params.SortBy != "createdAt" {
		t.Errorf("Expected sortBy createdAt, got %s", params.SortBy)
	}
	if params.Ascending {
		t.Error("Expected descending by default")
	}
}

func TestParseExplicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/requests?page=3&size=25&sortBy=title&isAsc=true", nil)

	params := Parse(r, "createdAt", "title")

	if params.Page != 3 {
		t.Errorf("Expected page 3, got %d", params.Page)
	}
	if params.Size != 25 {
		t.Errorf("Expected size 25, got %d", params.Size)
	}
	if params.SortBy != "title" {
		t.Errorf("Expected sortBy title, got %s", params.SortBy)
	}
	if !params.Ascending {
		t.Error("Expected ascending")
	}
	if params.Offset() != 50 {
		t.Errorf("Expected offset 50, got %d", params.Offset())
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/requests?page=-1&size=9999&sortBy=password&isAsc=banana", nil)

	params := Parse(r, "createdAt", "title")

	if params.Page != 1 {
		t.Errorf("Negative page should fall back to 1, got %d", params.Page)
	}
	if params.Size != MaxSize {
		t.Errorf("Oversized size should be capped at %d, got %d", MaxSize, params.Size)
	}
	if params.SortBy != "createdAt" {
		t.Errorf("Unknown sortBy should fall back to createdAt, got %s", params.SortBy)
	}
	if params.Ascending {
		t.Error("Unparseable isAsc should fall back to descending")
	}
}

func TestNewPage(t *testing.T) {
	params := Params{Page: 2, Size: 10}

	page := NewPage([]int{1, 2, 3}, 23, params)

	if page.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", page.TotalPages)
	}
	if page.TotalElements != 23 {
		t.Errorf("Expected 23 total elements, got %d", page.TotalElements)
	}
	if len(page.Data) != 3 {
		t.Errorf("Expected 3 items, got %d", len(page.Data))
	}
}

func TestNewPageNilData(t *testing.T) {
	page := NewPage[int](nil, 0, Params{Page: 1, Size: 10})

	if page.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}
	if page.TotalPages != 0 {
		t.Errorf("Expected 0 total pages, got %d", page.TotalPages)
	}
}
