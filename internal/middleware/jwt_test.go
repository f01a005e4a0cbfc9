package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-swapper/internal/utils"
)

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured interface{}
	next := func(c echo.Context) error {
		captured = c.Get("user_id")
		return c.NoContent(http.StatusOK)
	}
	if err := JWTAuth("test-secret")(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return rec, captured
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	rec, _ := runJWT(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	rec, _ := runJWT(t, "Token abcdef")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestJWTAuth_GarbageToken(t *testing.T) {
	rec, _ := runJWT(t, "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 9, 15)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := runJWT(t, "Bearer "+at.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestJWTAuth_ValidTokenInjectsSubject(t *testing.T) {
	at, err := utils.NewAccessToken("test-secret", 9, 15)
	if err != nil {
		t.Fatal(err)
	}
	rec, captured := runJWT(t, "Bearer "+at.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	// JSON numeric claims decode as float64.
	sub, ok := captured.(float64)
	if !ok || uint64(sub) != 9 {
		t.Fatalf("user_id in context is %v (%T), want 9", captured, captured)
	}
}
