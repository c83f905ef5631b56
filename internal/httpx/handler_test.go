package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"driverDeliveryWorkflow/internal/cache"
	"driverDeliveryWorkflow/internal/testutil"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/repository"
)

// mapCache is a trivial in-process Cache for exercising the warm path.
type mapCache struct {
	values map[string]string
}

func newMapCache() *mapCache { return &mapCache{values: map[string]string{}} }

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.values[key] = value.(string)
	return nil
}
func (c *mapCache) Get(_ context.Context, key string) (string, error) { return c.values[key], nil }
func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}
func (c *mapCache) GenerateKey(operation, key string) string { return operation + ":" + key }

func newTestHandler(t *testing.T, name string, views cache.Cache) (*Handler, *repository.OrderRepository) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	orders := repository.NewOrderRepository(d)
	if views == nil {
		views = cache.Noop{}
	}
	return &Handler{Orders: orders, Views: views, Log: zap.NewNop()}, orders
}

func TestGetOrderStatus(t *testing.T) {
	h, orders := newTestHandler(t, "httpx_status", nil)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	ord, err := orders.Create(context.Background(), &models.Order{VendorID: 1, CustomerID: 2})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	resp, err := http.Get(srv.URL + "/orders/" + strconv.FormatInt(ord.ID, 10) + "/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ready" || body.DisplayName != "Ready" {
		t.Errorf("body = %+v", body)
	}
	if body.Instructions == "" {
		t.Error("expected non-empty instructions")
	}
	if body.RequiresConfirmation {
		t.Error("ready status requires no confirmation")
	}
}

func TestGetOrderStatus_Errors(t *testing.T) {
	h, _ := newTestHandler(t, "httpx_status_err", nil)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/orders/99999/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown order: code = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/orders/notanumber/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id: code = %d, want 400", resp.StatusCode)
	}
}

func TestGetAvailableOrders(t *testing.T) {
	views := newMapCache()
	h, orders := newTestHandler(t, "httpx_available", views)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	for i := 0; i < 2; i++ {
		if _, err := orders.Create(context.Background(), &models.Order{VendorID: 1, CustomerID: 2}); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	resp, err := http.Get(srv.URL + "/orders/available")
	if err != nil {
		t.Fatalf("get available: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("code = %d, want 200", resp.StatusCode)
	}
	var list []models.Order
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 available orders, got %d", len(list))
	}

	// The listing is now cached; a new order does not appear until the view
	// is invalidated or expires.
	if _, err := orders.Create(context.Background(), &models.Order{VendorID: 1, CustomerID: 2}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	resp2, err := http.Get(srv.URL + "/orders/available")
	if err != nil {
		t.Fatalf("get available again: %v", err)
	}
	defer resp2.Body.Close()
	var cached []models.Order
	if err := json.NewDecoder(resp2.Body).Decode(&cached); err != nil {
		t.Fatalf("decode cached: %v", err)
	}
	if len(cached) != 2 {
		t.Fatalf("expected cached view of 2 orders, got %d", len(cached))
	}

	// After invalidation the fresh order shows up.
	if err := views.Delete(context.Background(), cache.AvailableOrdersKey(views)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	resp3, err := http.Get(srv.URL + "/orders/available")
	if err != nil {
		t.Fatalf("get available third: %v", err)
	}
	defer resp3.Body.Close()
	var fresh []models.Order
	if err := json.NewDecoder(resp3.Body).Decode(&fresh); err != nil {
		t.Fatalf("decode fresh: %v", err)
	}
	if len(fresh) != 3 {
		t.Fatalf("expected 3 orders after invalidation, got %d", len(fresh))
	}
}
