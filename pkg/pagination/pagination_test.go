package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(ctxWithQuery(""))
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("expected limit %d, got %d", DefaultLimit, p.Limit)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := FromContext(ctxWithQuery("page=3&limit=25"))
	if p.Page != 3 || p.Limit != 25 {
		t.Errorf("expected page=3 limit=25, got %+v", p)
	}
	if p.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset())
	}
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p := FromContext(ctxWithQuery("limit=9999"))
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_IgnoresGarbage(t *testing.T) {
	p := FromContext(ctxWithQuery("page=-4&limit=abc"))
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
	}
	for _, tc := range cases {
		p := Params{Page: 1, Limit: tc.limit}
		if got := p.TotalPages(tc.total); got != tc.want {
			t.Errorf("TotalPages(%d) with limit %d = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]string{"a"}, 21, Params{Page: 2, Limit: 10})
	if r.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", r.TotalPages)
	}
	if r.Page != 2 || r.Limit != 10 || r.Total != 21 {
		t.Errorf("unexpected envelope: %+v", r)
	}
}
