package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Arjun-745/TrendKart/models"
)

type gormStore struct {
	db *gorm.DB
}

// NewGorm returns a Store backed by the given gorm connection.
func NewGorm(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusProcessing
	}
	if order.ReturnStatus == "" {
		order.ReturnStatus = models.ReturnStatusNone
	}
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *gormStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *gormStore) GetForUser(ctx context.Context, id, userID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *gormStore) FindByCarrierRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("carrier_order_id = ? OR awb_code = ?", ref, ref).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *gormStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (s *gormStore) List(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (s *gormStore) Update(ctx context.Context, order *models.Order, expectedVersion int64) error {
	// Map-based Updates bypasses gorm's field serializers, so the images
	// slice is marshalled by hand into the JSON text the column holds.
	images, err := json.Marshal(order.ReturnImages)
	if err != nil {
		return err
	}

	// Items and address are immutable after creation, so the conditional
	// update only touches lifecycle, payment, carrier and return fields.
	fields := map[string]interface{}{
		"version":              expectedVersion + 1,
		"status":               order.Status,
		"is_paid":              order.IsPaid,
		"paid_at":              order.PaidAt,
		"razorpay_order_id":    order.RazorpayOrderID,
		"razorpay_payment_id":  order.RazorpayPaymentID,
		"shipped_at":           order.ShippedAt,
		"delivered_at":         order.DeliveredAt,
		"carrier_order_id":     order.CarrierOrderID,
		"shipment_id":          order.ShipmentID,
		"awb_code":             order.AWBCode,
		"courier_name":         order.CourierName,
		"return_status":        order.ReturnStatus,
		"return_reason":        order.ReturnReason,
		"return_reject_reason": order.ReturnRejectReason,
		"return_images":        string(images),
		"return_requested_at":  order.ReturnRequestedAt,
		"is_returned":          order.IsReturned,
		"updated_at":           time.Now(),
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or someone else bumped the version first.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Order{}).
			Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	order.Version = expectedVersion + 1
	return nil
}
