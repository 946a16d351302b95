package models

import (
	"errors"
	"time"
)

// Coupon is read-mostly reference data. The fulfillment core only validates
// it at checkout; coupon CRUD lives with the catalog admin tooling.
type Coupon struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Code            string    `gorm:"uniqueIndex" json:"code"`
	DiscountPercent float64   `json:"discount_percent"`
	Expiry          time.Time `json:"expiry"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrCouponInactive = errors.New("coupon is not active")
	ErrCouponExpired  = errors.New("coupon has expired")
)

// ValidFor reports whether the coupon can be applied at the given time.
func (c Coupon) ValidFor(now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if now.After(c.Expiry) {
		return ErrCouponExpired
	}
	return nil
}

// DiscountOn returns the rupee discount for an item subtotal.
func (c Coupon) DiscountOn(itemsPrice float64) float64 {
	if c.DiscountPercent <= 0 {
		return 0
	}
	return itemsPrice * c.DiscountPercent / 100
}
