package models

import "encoding/json"

// APIResponse is the JSON envelope every storefront endpoint returns.
type APIResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *APIError       `json:"error,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// APIError describes a failed storefront API call.
type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// API error codes for the transport layer.
const (
	CodeHTTPError    = "HTTP_ERROR"
	CodeNetworkError = "NETWORK_ERROR"
	CodeTimeout      = "TIMEOUT"
)

// Pagination carries paging metadata for list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Product is a storefront deal item.
type Product struct {
	ID            string  `json:"id"`
	StoreID       string  `json:"store_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price,omitempty"`
	Discount      int     `json:"discount,omitempty"`
	Image         string  `json:"image,omitempty"`
	ExpiresAt     string  `json:"expires_at,omitempty"`
}

// Store is a merchant the user can follow.
type Store struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Logo      string `json:"logo,omitempty"`
	Location  string `json:"location,omitempty"`
	Followers int    `json:"followers"`
	Following bool   `json:"following"`
}

// Booking reserves a product for pickup.
type Booking struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Order is a completed or pending purchase.
type Order struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Total     float64 `json:"total"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// Notification is an in-app message for the user.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}
