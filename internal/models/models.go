package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"is_active"`
	ProductCount int    `json:"product_count,omitempty"`
}

type Product struct {
	ID             string           `json:"id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Images         []string         `json:"images"`
	Tags           []string         `json:"tags"`
	IsActive       bool             `json:"is_active"`
	IsFeatured     bool             `json:"is_featured"`
	CategoryID     *string          `json:"category_id,omitempty"`
	Category       *Category        `json:"category,omitempty"`
	Variants       []ProductVariant `json:"variants,omitempty"`
	Reviews        []Review         `json:"reviews,omitempty"`
	AverageRating  float64          `json:"average_rating"`
	ReviewCount    int              `json:"review_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type ProductVariant struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	IsActive   bool            `json:"is_active"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Address struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Cart struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"total_items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type CartItem struct {
	ID        string       `json:"id"`
	CartID    string       `json:"cart_id"`
	ProductID string       `json:"product_id"`
	VariantID *string      `json:"variant_id,omitempty"`
	Quantity  int          `json:"quantity"`
	Product   CartProduct  `json:"product"`
	Variant   *CartVariant `json:"variant,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type CartProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Images   []string        `json:"images"`
	IsActive bool            `json:"is_active"`
}

type CartVariant struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// EffectiveUnitPrice returns the price charged for one unit of the line:
// the variant price when a variant is set, the product price otherwise.
func (i CartItem) EffectiveUnitPrice() decimal.Decimal {
	if i.Variant != nil {
		return i.Variant.Price
	}
	return i.Product.Price
}

type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	UserID            string          `json:"user_id"`
	ShippingAddressID string          `json:"shipping_address_id"`
	BillingAddressID  string          `json:"billing_address_id"`
	PaymentMethod     string          `json:"payment_method"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	Shipping          decimal.Decimal `json:"shipping"`
	Total             decimal.Decimal `json:"total"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	Notes             string          `json:"notes,omitempty"`
	Items             []OrderItem     `json:"items,omitempty"`
	User              *User           `json:"user,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	VariantID   *string         `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded:
		return true
	}
	return false
}

// CanCancel reports whether an order in the given status may still be
// cancelled by its owner. Shipped and delivered orders are final.
func CanCancel(status string) bool {
	switch status {
	case OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered:
		return false
	}
	return true
}
