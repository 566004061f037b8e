package clients_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/clients"
	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func newTestClient(userURL, productURL string) *clients.HTTPValidationClient {
	return clients.NewHTTPValidationClient(userURL, productURL, time.Second, nil)
}

func TestGetBuyer_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"name":"Alice","email":"alice@example.com","createdAt":"2024-01-01T00:00:00","updatedAt":"2024-01-01T00:00:00"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	buyer, err := client.GetBuyer(context.Background(), "1")
	if err != nil {
		t.Fatalf("get buyer: %v", err)
	}
	if buyer.ID != "1" || buyer.Name != "Alice" {
		t.Fatalf("unexpected buyer: %+v", buyer)
	}
}

func TestGetBuyer_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"User not found with ID: 99","status":"400"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.GetBuyer(context.Background(), "99")
	if !errors.Is(err, domain.ErrBuyerNotFound) {
		t.Fatalf("expected ErrBuyerNotFound, got %v", err)
	}
}

func TestGetBuyer_UnreachableAuthority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // порт закрыт, транспортная ошибка

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.GetBuyer(context.Background(), "1")
	if !errors.Is(err, domain.ErrBuyerNotFound) {
		t.Fatalf("expected unreachable directory to map to ErrBuyerNotFound, got %v", err)
	}
}

func TestGetProduct_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"name":"Laptop","description":"15 inch","price":999.99,"stockQuantity":10}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	entry, err := client.GetProduct(context.Background(), "7")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if entry.ID != "7" || entry.Name != "Laptop" || entry.StockQuantity != 10 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Price.String() != "999.99" {
		t.Fatalf("expected price 999.99, got %s", entry.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.GetProduct(context.Background(), "404")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestGetProduct_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := clients.NewHTTPValidationClient(srv.URL, srv.URL, 20*time.Millisecond, nil)
	_, err := client.GetProduct(context.Background(), "1")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected timeout to map to ErrProductNotFound, got %v", err)
	}
}
