package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	cartsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/cart"
	checkoutsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/checkout"
	listingsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/listings"
	ordersvc "github.com/oluwatobiadeoye/kolamart-backend/internal/orders"
	walletsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/wallet"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubCartService struct{}

func (stubCartService) Get(context.Context, string) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) AddItem(context.Context, string, uuid.UUID, int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(context.Context, string, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) SetQuantity(context.Context, string, uuid.UUID, int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) Clear(context.Context, string) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Submit(context.Context, checkoutsvc.SubmitInput) (*checkoutsvc.SubmitResult, error) {
	return &checkoutsvc.SubmitResult{State: enums.CheckoutStateSent}, nil
}

func (stubCheckoutService) VendorStates(context.Context, string) (map[uuid.UUID]enums.CheckoutState, error) {
	return map[uuid.UUID]enums.CheckoutState{}, nil
}

type stubWalletService struct{}

func (stubWalletService) Lookup(context.Context, string) (*walletsvc.LookupDTO, error) {
	return &walletsvc.LookupDTO{}, nil
}

func (stubWalletService) SetPin(context.Context, string, string, string) error { return nil }

func (stubWalletService) Balance(context.Context, string, string) (*walletsvc.BalanceDTO, error) {
	return &walletsvc.BalanceDTO{}, nil
}

func (stubWalletService) History(context.Context, string, string) ([]walletsvc.TransactionDTO, error) {
	return nil, nil
}

func (stubWalletService) VerifyPin(context.Context, string, string) error { return nil }

func (stubWalletService) RecordEarn(context.Context, walletsvc.RecordEarnInput) error { return nil }

func (stubWalletService) Audit(context.Context, string) error { return nil }

type stubListingService struct{}

func (stubListingService) Feed(context.Context) ([]listingsvc.ListingDTO, error) {
	return []listingsvc.ListingDTO{}, nil
}

type stubOrderService struct{}

func (stubOrderService) GetByID(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) ListByVendor(context.Context, uuid.UUID, pagination.Params) (*ordersvc.VendorOrdersPage, error) {
	return &ordersvc.VendorOrdersPage{}, nil
}

func (stubOrderService) ListByShopper(context.Context, string) ([]models.Order, error) {
	return nil, nil
}

func (stubOrderService) Complete(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) Cancel(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.ErrorLevel})

	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, prometheus.NewRegistry(), Services{
		Cart:     stubCartService{},
		Checkout: stubCheckoutService{},
		Wallet:   stubWalletService{},
		Orders:   stubOrderService{},
		Listings: stubListingService{},
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s returned %d", path, w.Code)
		}
		if got := w.Header().Get("X-Kolamart-Env"); got != "test" {
			t.Fatalf("GET %s env header %q", path, got)
		}
	}
}

func TestRouterServesMetrics(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics returned %d", w.Code)
	}
}

func TestRouterMarketplaceFeed(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/feed", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/marketplace/feed returned %d", w.Code)
	}
}

func TestRouterCartRequiresPhone(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("GET /api/v1/cart without phone returned %d", w.Code)
	}
}

func TestRouterWalletAudit(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallet/audit?phone=08031234567", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/wallet/audit returned %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallet/audit", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("audit without phone returned %d", w.Code)
	}
}

func TestRouterRejectsMalformedWalletBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/balance", strings.NewReader(`{"phone":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed wallet body returned %d", w.Code)
	}
}
