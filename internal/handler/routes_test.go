package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop/internal/config"
	"shop/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// トークン無しは usecase に届く前に 401
func TestRoutes_RequireAuth(t *testing.T) {
	e := echo.New()
	cfg := config.Config{JWTSecret: "test-secret"}

	NewOrderHandler(nil).RegisterRoutes(e, cfg, nil)
	NewCartHandler(nil).RegisterRoutes(e, cfg, nil)
	NewUserHandler(nil).RegisterRoutes(e, cfg, nil)
	NewReviewHandler(nil).RegisterRoutes(e, cfg, nil)
	NewAdminProductHandler(nil).RegisterRoutes(e, cfg, nil)
	NewAuditLogHandler(nil).RegisterRoutes(e, cfg, nil)

	cases := []struct{ method, path string }{
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders/1"},
		{http.MethodPut, "/orders/1"},
		{http.MethodDelete, "/orders/1"},
		{http.MethodGet, "/cart"},
		{http.MethodGet, "/users"},
		{http.MethodPost, "/products/1/reviews"},
		{http.MethodPost, "/admin/products"},
		{http.MethodGet, "/admin/audit-logs"},
	}
	for _, tc := range cases {
		rec := serve(e, tc.method, tc.path, "{}")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}
}

func withUser(userID int64, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(middleware.CtxUserIDKey, userID)
		return h(c)
	}
}

func TestOrderHandler_BadInput(t *testing.T) {
	h := NewOrderHandler(nil)
	e := echo.New()
	e.GET("/orders/:id", withUser(1, h.detail))
	e.POST("/orders", withUser(1, h.create))

	rec := serve(e, http.MethodGet, "/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodGet, "/orders/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPost, "/orders", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandler_BadQuery(t *testing.T) {
	e := echo.New()
	NewProductHandler(nil).RegisterRoutes(e)

	for _, q := range []string{"page=x", "limit=1.5", "min_price=abc", "max_price=--"} {
		rec := serve(e, http.MethodGet, "/products?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestQueryDecimal(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/products?min_price=10.50")

	d, ok := queryDecimal(c, "min_price")
	assert.True(t, ok)
	if assert.NotNil(t, d) {
		assert.Equal(t, "10.5", d.String())
	}

	d, ok = queryDecimal(c, "max_price")
	assert.True(t, ok)
	assert.Nil(t, d)
}
