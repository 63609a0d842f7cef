package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nbelova/order-matching/internal/adapter/in_memory"
	"github.com/nbelova/order-matching/internal/api/dto"
	"github.com/nbelova/order-matching/internal/core"
	"github.com/nbelova/order-matching/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) (*HTTPServer, *in_memory.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := in_memory.NewMemoryRepo()
	eng := core.NewEngine(repo, nil, nil)
	return NewHTTPServer(eng, nil), repo
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitOrder(t *testing.T) {
	srv, repo := newTestServer(t)
	user := repo.SeedUser("alice")
	product := repo.SeedProduct("widget")
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/orders", dto.SubmitOrderRequest{
		UserID:    user,
		Side:      dto.Buy,
		ProductID: product,
		Price:     dec("100"),
		Volume:    dec("10"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}

	var resp dto.SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Order.OrderID == 0 {
		t.Error("expected assigned order id")
	}
	if _, ok := repo.Order(resp.Order.OrderID); !ok {
		t.Error("order not persisted")
	}
}

func TestSubmitOrderValidation(t *testing.T) {
	srv, repo := newTestServer(t)
	user := repo.SeedUser("alice")
	product := repo.SeedProduct("widget")
	router := srv.Router()

	tests := []struct {
		name string
		req  dto.SubmitOrderRequest
	}{
		{
			name: "invalid side",
			req: dto.SubmitOrderRequest{
				UserID: user, Side: "HOLD", ProductID: product,
				Price: dec("10"), Volume: dec("1"),
			},
		},
		{
			name: "negative price",
			req: dto.SubmitOrderRequest{
				UserID: user, Side: dto.Buy, ProductID: product,
				Price: dec("-10"), Volume: dec("1"),
			},
		},
		{
			name: "zero volume",
			req: dto.SubmitOrderRequest{
				UserID: user, Side: dto.Buy, ProductID: product,
				Price: dec("10"), Volume: dec("0"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/orders", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmitOrderDeduplication(t *testing.T) {
	srv, repo := newTestServer(t)
	user := repo.SeedUser("alice")
	product := repo.SeedProduct("widget")
	router := srv.Router()

	req := dto.SubmitOrderRequest{
		ClientOrderID: "form-42",
		UserID:        user,
		Side:          dto.Buy,
		ProductID:     product,
		Price:         dec("100"),
		Volume:        dec("10"),
	}
	if w := doJSON(t, router, http.MethodPost, "/api/orders", req); w.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d, want 201", w.Code)
	}
	w := doJSON(t, router, http.MethodPost, "/api/orders", req)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate submit status = %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "duplicate order" {
		t.Errorf("message = %v, want duplicate order", resp["message"])
	}
}

func TestRunMatchingEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)
	buyer := repo.SeedUser("alice")
	seller := repo.SeedUser("bob")
	product := repo.SeedProduct("widget")
	router := srv.Router()

	for _, o := range []dto.SubmitOrderRequest{
		{UserID: buyer, Side: dto.Buy, ProductID: product, Price: dec("100"), Volume: dec("10")},
		{UserID: seller, Side: dto.Sell, ProductID: product, Price: dec("95"), Volume: dec("10")},
	} {
		if w := doJSON(t, router, http.MethodPost, "/api/orders", o); w.Code != http.StatusCreated {
			t.Fatalf("submit status = %d, want 201", w.Code)
		}
	}

	w := doJSON(t, router, http.MethodPost, "/api/matching/run", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("run status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var resp dto.RunMatchingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(resp.Matches))
	}
	if !resp.Matches[0].Price.Equal(dec("100")) {
		t.Errorf("match price = %s, want 100", resp.Matches[0].Price)
	}

	w = doJSON(t, router, http.MethodGet, "/api/matching", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listing status = %d, want 200", w.Code)
	}
	var views []domain.TradeView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 trade view, got %d", len(views))
	}
	if views[0].BuyerName != "alice" || views[0].SellerName != "bob" {
		t.Errorf("names = (%s, %s), want (alice, bob)", views[0].BuyerName, views[0].SellerName)
	}
}

func TestRunMatchingRateLimited(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	if w := doJSON(t, router, http.MethodPost, "/api/matching/run", nil); w.Code != http.StatusOK {
		t.Fatalf("first run status = %d, want 200", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/api/matching/run", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("immediate second run status = %d, want 429", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv, repo := newTestServer(t)
	repo.SeedUser("alice")
	repo.SeedProduct("widget")
	router := srv.Router()

	for _, path := range []string{"/api/users", "/api/users/products", "/api/users/order-types"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}
