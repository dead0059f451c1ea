package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-api-nosql/internal/domain"
	"github.com/shop-api-nosql/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, req domain.UpdateOrderStatusRequest) (*domain.Order, error)
}

type orderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, expected, next string) error
}

type productStore interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

type saleStore interface {
	Put(ctx context.Context, s *domain.Sale) error
}

type service struct {
	orders   orderStore
	products productStore
	sales    saleStore
}

type ServiceDeps struct {
	OrderRepo   orderStore
	ProductRepo productStore
	SaleRepo    saleStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		orders:   deps.OrderRepo,
		products: deps.ProductRepo,
		sales:    deps.SaleRepo,
	}
}

// Create snapshots product name and price into the order items. Disabled
// products cannot be ordered.
func (s *service) Create(ctx context.Context, userID string, req domain.CreateOrderRequest) (*domain.Order, error) {
	now := time.Now().UTC()
	o := &domain.Order{
		OrderID:   id.New(),
		UserID:    userID,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range req.Items {
		p, err := s.products.Get(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.Enable {
			return nil, fmt.Errorf("product %s is not available: %w", p.ProductID, domain.ErrBadRequest)
		}
		o.Items = append(o.Items, domain.OrderItem{
			ProductID:      p.ProductID,
			Name:           p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       item.Quantity,
		})
		o.TotalCents += p.PriceCents * int64(item.Quantity)
	}
	if err := s.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus moves the order along the status graph. Completing an
// order cuts its sale record; the conditional write in the store makes
// sure two racing completions produce at most one sale.
func (s *service) UpdateStatus(ctx context.Context, orderID string, req domain.UpdateOrderStatusRequest) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidOrderTransition(o.Status, req.Status) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", o.Status, req.Status, domain.ErrBadRequest)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, o.Status, req.Status); err != nil {
		return nil, err
	}
	o.Status = req.Status
	o.UpdatedAt = time.Now().UTC()
	if req.Status == domain.OrderCompleted {
		if err := s.recordSale(ctx, o); err != nil {
			slog.Error("order completed but sale record failed", "order_id", orderID, "err", err)
			return nil, err
		}
	}
	return o, nil
}

func (s *service) recordSale(ctx context.Context, o *domain.Order) error {
	now := time.Now().UTC()
	return s.sales.Put(ctx, &domain.Sale{
		SaleID:     id.New(),
		OrderID:    o.OrderID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		SaleDate:   now,
		CreatedAt:  now,
	})
}
