package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun-745/TrendKart/models"
)

// Memory is an in-process Store with the same optimistic-concurrency
// semantics as the database-backed one. Tests use it to exercise race and
// reconciliation behavior without postgres.
type Memory struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{orders: make(map[string]models.Order)}
}

func (m *Memory) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusProcessing
	}
	if order.ReturnStatus == "" {
		order.ReturnStatus = models.ReturnStatusNone
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.orders[order.ID] = *order
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

func (m *Memory) GetForUser(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotFound
	}
	return order, nil
}

func (m *Memory) FindByCarrierRef(_ context.Context, ref string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if ref != "" && (order.CarrierOrderID == ref || order.AWBCode == ref) {
			o := order
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) List(_ context.Context, offset, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]models.Order, 0, len(m.orders))
	for _, order := range m.orders {
		all = append(all, order)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *Memory) Update(_ context.Context, order *models.Order, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrConflict
	}
	order.Version = expectedVersion + 1
	order.UpdatedAt = time.Now()
	m.orders[order.ID] = *order
	return nil
}
