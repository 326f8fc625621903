package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linemk/campuskart/internal/app/handlers"
	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderService struct {
	created  []service.CreateOrderInput
	orders   []*models.EnrichedOrder
	cleared  []string
	updated  int64
	markRead *models.Order
	err      error
}

var _ service.OrderServiceInterface = (*fakeOrderService)(nil)

func (f *fakeOrderService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.EnrichedOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &models.EnrichedOrder{
		ID:      "O1",
		Product: &models.ProductSummary{ID: in.ProductID},
		Seller:  &models.UserSummary{ID: in.SellerID},
		Buyer:   &models.UserSummary{ID: in.BuyerID},
		Price:   in.Price,
		Status:  models.OrderStatusPending,
	}, nil
}

func (f *fakeOrderService) ListSellerOrders(ctx context.Context, userID string) ([]*models.EnrichedOrder, error) {
	return f.orders, f.err
}

func (f *fakeOrderService) ListUserOrders(ctx context.Context, userID string) ([]*models.EnrichedOrder, error) {
	return f.orders, f.err
}

func (f *fakeOrderService) ClearNotifications(ctx context.Context, sellerID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.cleared = append(f.cleared, sellerID)
	return f.updated, nil
}

func (f *fakeOrderService) MarkRead(ctx context.Context, orderID string) (*models.Order, error) {
	return f.markRead, f.err
}

func TestCreateOrderHandler(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.CreateOrderHandler(newTestLogger(), fakeSvc)

	reqBody := `{"productId": "P123", "sellerId": "S", "buyerId": "B", "price": 500}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, fakeSvc.created, 1)
	assert.Equal(t, service.CreateOrderInput{ProductID: "P123", SellerID: "S", BuyerID: "B", Price: 500}, fakeSvc.created[0])

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "O1", resp["_id"])
	assert.Equal(t, "pending", resp["status"])
}

func TestCreateOrderHandler_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"invalid json", `{"productId":`, nil, http.StatusBadRequest},
		{"validation", `{}`, &service.ValidationError{Op: "test", Fields: []string{"productId"}}, http.StatusBadRequest},
		{"not found", `{}`, &service.NotFoundError{Op: "test", Entity: "product or user"}, http.StatusNotFound},
		{"persistence", `{}`, &service.PersistenceError{Op: "test", Err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := handlers.CreateOrderHandler(newTestLogger(), &fakeOrderService{err: tc.err})
			req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			assert.NotEmpty(t, decodeMessage(t, rr))
		})
	}
}

func TestSellerOrdersHandler_EmptyList(t *testing.T) {
	handler := handlers.SellerOrdersHandler(newTestLogger(), &fakeOrderService{})

	req := withURLParams(httptest.NewRequest("GET", "/api/orders/seller/S", nil), map[string]string{"userId": "S"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestUserOrdersHandler(t *testing.T) {
	fakeSvc := &fakeOrderService{orders: []*models.EnrichedOrder{
		{ID: "O2", Product: &models.ProductSummary{ID: "P1", Title: "Lamp"}},
		{ID: "O1", Product: &models.ProductSummary{ID: "P2", Title: "Desk"}},
	}}
	handler := handlers.UserOrdersHandler(newTestLogger(), fakeSvc)

	req := withURLParams(httptest.NewRequest("GET", "/api/orders/S", nil), map[string]string{"userId": "S"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "O2", resp[0]["_id"])
	assert.Equal(t, "Lamp", resp[0]["productId"].(map[string]any)["title"])
}

func TestClearNotificationsHandler(t *testing.T) {
	fakeSvc := &fakeOrderService{updated: 3}
	handler := handlers.ClearNotificationsHandler(newTestLogger(), fakeSvc)

	req := withURLParams(httptest.NewRequest("PATCH", "/api/orders/clear/S", nil), map[string]string{"userId": "S"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"S"}, fakeSvc.cleared)

	var resp handlers.ClearResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.Updated)
}

func TestMarkReadHandler_NotFound(t *testing.T) {
	handler := handlers.MarkReadHandler(newTestLogger(), &fakeOrderService{
		err: &service.NotFoundError{Op: "test", Entity: "order", ID: "missing"},
	})

	req := withURLParams(httptest.NewRequest("PATCH", "/api/orders/missing/read", nil), map[string]string{"orderId": "missing"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "order not found", decodeMessage(t, rr))
}

func TestMarkReadHandler(t *testing.T) {
	handler := handlers.MarkReadHandler(newTestLogger(), &fakeOrderService{
		markRead: &models.Order{ID: "O1", Read: true},
	})

	req := withURLParams(httptest.NewRequest("PATCH", "/api/orders/O1/read", nil), map[string]string{"orderId": "O1"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp models.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Read)
}
