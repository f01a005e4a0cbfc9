package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-swapper/internal/config"
)

func TestResponseCache_NilRedisPassesThrough(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, TTL: 15 * time.Second, Prefix: "cache", MaxBodyBytes: 1 << 20}
	mw := NewResponseCache(cfg, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/swappable", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	if err := mw(func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("request did not pass through (called=%v code=%d)", called, rec.Code)
	}
}

func TestCacheKey_DependsOnPathAndQuery(t *testing.T) {
	e := echo.New()

	build := func(path, query string) string {
		req := httptest.NewRequest(http.MethodGet, path+"?"+query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath(path)
		return cacheKey("cache", c)
	}

	a := build("/v1/events/swappable", "")
	b := build("/v1/events/swappable", "limit=10")
	if a == b {
		t.Fatal("different queries must produce different keys")
	}
	if a != build("/v1/events/swappable", "") {
		t.Fatal("same request must produce the same key")
	}
}
