package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/statemachine"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	// One shared in-memory database per test, named so tests stay isolated
	// even though gorm pools connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return NewGorm(db)
}

func seedGormOrder(t *testing.T, s Store, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:        "user-1",
		Status:        status,
		PaymentMethod: models.PaymentMethodOnline,
		IsPaid:        true,
		ReturnStatus:  models.ReturnStatusNone,
		TotalPrice:    1250,
		Items: []models.OrderItem{
			{ProductID: "sku-1", Name: "Kurta", Quantity: 2, Price: 500},
		},
	}
	require.NoError(t, s.Create(context.Background(), order))
	return order
}

func TestGormStore_CreateAndGet(t *testing.T) {
	s := newSQLiteStore(t)
	order := seedGormOrder(t, s, models.OrderStatusProcessing)

	got, err := s.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Version)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Kurta", got.Items[0].Name)

	_, err = s.GetForUser(context.Background(), order.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound, "ownership is part of the lookup")
}

func TestGormStore_FindByCarrierRef(t *testing.T) {
	s := newSQLiteStore(t)
	order := seedGormOrder(t, s, models.OrderStatusPacked)
	order.CarrierOrderID = "4821001"
	order.AWBCode = "AWB777"
	require.NoError(t, s.Update(context.Background(), order, 0))

	byCarrierID, err := s.FindByCarrierRef(context.Background(), "4821001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCarrierID.ID)

	byAWB, err := s.FindByCarrierRef(context.Background(), "AWB777")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byAWB.ID)

	_, err = s.FindByCarrierRef(context.Background(), "AWB-FOREIGN")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_UpdateConflict(t *testing.T) {
	s := newSQLiteStore(t)
	order := seedGormOrder(t, s, models.OrderStatusProcessing)

	order.Status = models.OrderStatusPacked
	require.NoError(t, s.Update(context.Background(), order, 0))
	assert.Equal(t, int64(1), order.Version)

	stale := *order
	stale.Status = models.OrderStatusCancelled
	err := s.Update(context.Background(), &stale, 0)
	assert.ErrorIs(t, err, ErrConflict, "a stale version must never overwrite")

	ghost := *order
	ghost.ID = "ghost"
	err = s.Update(context.Background(), &ghost, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_ReturnImagesRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	order := seedGormOrder(t, s, models.OrderStatusDelivered)
	images := []string{"https://cdn.example/r1.jpg", "https://cdn.example/r2.jpg"}

	updated, change, err := Apply(context.Background(), s, order.ID, statemachine.Request{
		Event:  statemachine.EventRequestReturn,
		Actor:  statemachine.ActorCustomer,
		Now:    time.Now(),
		Reason: "damaged stitching",
		Images: images,
	})
	require.NoError(t, err, "a return request with images must persist")
	assert.True(t, change.Applied)
	assert.Equal(t, models.ReturnStatusRequested, updated.ReturnStatus)

	got, err := s.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusRequested, got.ReturnStatus)
	assert.Equal(t, "damaged stitching", got.ReturnReason)
	assert.Equal(t, images, got.ReturnImages)
	assert.NotNil(t, got.ReturnRequestedAt)
}
