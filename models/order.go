package models

import (
	"time"
)

// Order status constants
const (
	OrderStatusProcessing = "Processing"
	OrderStatusPacked     = "Packed"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
	OrderStatusRTO        = "RTO"
)

// Return flow status constants
const (
	ReturnStatusNone      = "None"
	ReturnStatusRequested = "Requested"
	ReturnStatusApproved  = "Approved"
	ReturnStatusRejected  = "Rejected"
)

// Payment method constants
const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "Online"
)

// ShippingAddress is snapshotted onto the order at checkout and immutable
// thereafter.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	District   string `json:"district"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Mobile     string `json:"mobile"`
	GPSLink    string `json:"gps_link,omitempty"`
}

type Order struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	// Version is the optimistic concurrency token. Every successful update
	// bumps it; a stale writer gets a conflict, never a silent overwrite.
	Version int64 `gorm:"not null;default:0" json:"version"`

	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	CustomerEmail   string          `json:"customer_email"`

	PaymentMethod     string     `json:"payment_method"` // COD or Online
	IsPaid            bool       `json:"is_paid"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	RazorpayOrderID   string     `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string     `json:"razorpay_payment_id,omitempty"`

	// Pricing is computed once at checkout and frozen. Catalog price changes
	// after creation never touch these fields.
	ItemsPrice    float64 `json:"items_price"`
	ShippingPrice float64 `json:"shipping_price"`
	TaxPrice      float64 `json:"tax_price"`
	Discount      float64 `json:"discount"`
	CouponCode    string  `json:"coupon_code,omitempty"`
	TotalPrice    float64 `json:"total_price"`

	Status      string     `gorm:"index" json:"status"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	// Carrier linkage is populated opportunistically; the push to the carrier
	// may fail without blocking the order, so all four can stay empty.
	CarrierOrderID string `gorm:"index" json:"carrier_order_id,omitempty"`
	ShipmentID     string `json:"shipment_id,omitempty"`
	AWBCode        string `gorm:"index" json:"awb_code,omitempty"`
	CourierName    string `json:"courier_name,omitempty"`

	ReturnStatus       string     `gorm:"default:None" json:"return_status"`
	ReturnReason       string     `json:"return_reason,omitempty"`
	ReturnRejectReason string     `json:"return_reject_reason,omitempty"`
	ReturnImages       []string   `gorm:"serializer:json" json:"return_images,omitempty"`
	ReturnRequestedAt  *time.Time `json:"return_requested_at,omitempty"`
	IsReturned         bool       `json:"is_returned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is a purchase-time snapshot of a catalog product. Name, price and
// image are copied at checkout so later catalog edits cannot change what the
// customer bought.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   string  `gorm:"index;size:36" json:"order_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // unit price in rupees at purchase time
}

// WeightKg returns the chargeable shipment weight. The catalog does not carry
// per-product weights, so the carrier quote uses a flat half kilo per unit.
func (o *Order) WeightKg() float64 {
	units := 0
	for _, item := range o.Items {
		units += item.Quantity
	}
	if units == 0 {
		units = 1
	}
	return 0.5 * float64(units)
}

// CarrierLinked reports whether the order has been pushed to the carrier.
func (o *Order) CarrierLinked() bool {
	return o.CarrierOrderID != ""
}
