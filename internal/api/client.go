package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dealhunt/dealhunt-go/internal/models"
	"github.com/dealhunt/dealhunt-go/internal/requester"
)

// Client is the typed storefront API surface. Every call goes through the
// requester, which attaches and renews the session credential.
type Client struct {
	requester *requester.Client
}

// NewClient creates the storefront API client
func NewClient(req *requester.Client) *Client {
	return &Client{requester: req}
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Query    string
	StoreID  string
	Category string
	Page     int
}

// ProductList is a paginated product listing.
type ProductList struct {
	Items      []models.Product  `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// Products lists deals matching the filter.
func (c *Client) Products(ctx context.Context, filter ProductFilter) (*ProductList, error) {
	query := url.Values{}
	if filter.Query != "" {
		query.Set("q", filter.Query)
	}
	if filter.StoreID != "" {
		query.Set("store_id", filter.StoreID)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Page > 0 {
		query.Set("page", fmt.Sprintf("%d", filter.Page))
	}

	path := "/products"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list ProductList
	if err := c.requester.Get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Product fetches a single deal.
func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.requester.Get(ctx, "/products/"+url.PathEscape(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Stores lists merchants.
func (c *Client) Stores(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := c.requester.Get(ctx, "/stores", &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// FollowStore subscribes the user to a merchant's deals.
func (c *Client) FollowStore(ctx context.Context, id string) error {
	return c.requester.Post(ctx, "/stores/"+url.PathEscape(id)+"/follow", nil, nil)
}

// UnfollowStore removes the subscription.
func (c *Client) UnfollowStore(ctx context.Context, id string) error {
	return c.requester.Delete(ctx, "/stores/"+url.PathEscape(id)+"/follow", nil)
}

// BookProduct reserves a quantity of a deal for pickup.
func (c *Client) BookProduct(ctx context.Context, productID string, quantity int) (*models.Booking, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}

	var booking models.Booking
	if err := c.requester.Post(ctx, "/bookings", body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Orders lists the user's orders.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.requester.Get(ctx, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Notifications lists the user's in-app notifications.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.requester.Get(ctx, "/notifications", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.requester.Post(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}
