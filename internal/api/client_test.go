package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/dealhunt/dealhunt-go/internal/models"
	"github.com/dealhunt/dealhunt-go/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopAuthManager struct{}

func (noopAuthManager) ApplyAuth(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Bearer tok1")
	return nil
}

func (noopAuthManager) HandleUnauthorized(context.Context) (string, error) {
	return "", requester.ErrSessionExpired
}

func newTestAPI(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	req := requester.NewClient(requester.ClientParams{
		Config:      &config.APIConfig{BaseURL: server.URL, Timeout: 5 * time.Second},
		AuthManager: noopAuthManager{},
	})
	return NewClient(req)
}

func respond(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(w).Encode(models.APIResponse{Success: true, Data: raw}))
}

func TestProducts(t *testing.T) {
	client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "coffee", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))

		respond(t, w, ProductList{
			Items: []models.Product{
				{ID: "p1", Title: "Espresso beans", Price: 9.99, Discount: 30},
			},
			Pagination: models.Pagination{Page: 2, PerPage: 20, Total: 21, TotalPages: 2},
		})
	}))

	list, err := client.Products(context.Background(), ProductFilter{Query: "coffee", Page: 2})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p1", list.Items[0].ID)
	assert.Equal(t, 2, list.Pagination.Page)
}

func TestProduct(t *testing.T) {
	client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/p1", r.URL.Path)
		respond(t, w, models.Product{ID: "p1", Title: "Espresso beans"})
	}))

	product, err := client.Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Espresso beans", product.Title)
}

func TestFollowAndUnfollowStore(t *testing.T) {
	var calls []string
	client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		respond(t, w, map[string]bool{"following": r.Method == http.MethodPost})
	}))

	ctx := context.Background()
	require.NoError(t, client.FollowStore(ctx, "s1"))
	require.NoError(t, client.UnfollowStore(ctx, "s1"))

	assert.Equal(t, []string{"POST /stores/s1/follow", "DELETE /stores/s1/follow"}, calls)
}

func TestBookProduct(t *testing.T) {
	client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/bookings", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["product_id"])
		assert.Equal(t, float64(2), body["quantity"])

		respond(t, w, models.Booking{ID: "b1", ProductID: "p1", Quantity: 2, Status: "pending"})
	}))

	booking, err := client.BookProduct(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
	assert.Equal(t, "pending", booking.Status)
}

func TestNotifications(t *testing.T) {
	client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			respond(t, w, []models.Notification{{ID: "n1", Title: "Deal expiring", Read: false}})
		case "/notifications/n1/read":
			assert.Equal(t, http.MethodPost, r.Method)
			respond(t, w, map[string]bool{"read": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ctx := context.Background()
	notifications, err := client.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Deal expiring", notifications[0].Title)

	require.NoError(t, client.MarkNotificationRead(ctx, "n1"))
}
