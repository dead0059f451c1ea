package sale

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shop-api-nosql/internal/domain"
)

// topSellersLimit caps the product ranking returned by ProductAnalytics.
const topSellersLimit = 10

// dayFormat buckets sale dates into UTC calendar days.
const dayFormat = "2006-01-02"

type Service interface {
	Get(ctx context.Context, saleID string) (*domain.Sale, error)
	List(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
	Summary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error)
	ProductAnalytics(ctx context.Context) (*domain.ProductAnalytics, error)
}

type saleStore interface {
	Get(ctx context.Context, saleID string) (*domain.Sale, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
}

type orderStore interface {
	ScanAll(ctx context.Context) ([]domain.Order, error)
}

type productStore interface {
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Product, string, error)
}

type service struct {
	sales    saleStore
	orders   orderStore
	products productStore
}

type ServiceDeps struct {
	SaleRepo    saleStore
	OrderRepo   orderStore
	ProductRepo productStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		sales:    deps.SaleRepo,
		orders:   deps.OrderRepo,
		products: deps.ProductRepo,
	}
}

func (s *service) Get(ctx context.Context, saleID string) (*domain.Sale, error) {
	return s.sales.Get(ctx, saleID)
}

func (s *service) List(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.sales.ListByDateRange(ctx, from, to)
}

// Summary aggregates sale count and revenue over the range, with a
// per-day breakdown in ascending date order.
func (s *service) Summary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	sales, err := s.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary := &domain.SalesSummary{From: from, To: to, SaleCount: len(sales)}
	byDay := map[string]*domain.DailySales{}
	for _, sale := range sales {
		summary.RevenueCents += sale.TotalCents
		day := sale.SaleDate.UTC().Format(dayFormat)
		bucket, ok := byDay[day]
		if !ok {
			bucket = &domain.DailySales{Date: day}
			byDay[day] = bucket
		}
		bucket.SaleCount++
		bucket.RevenueCents += sale.TotalCents
	}
	for _, bucket := range byDay {
		summary.SalesByDay = append(summary.SalesByDay, *bucket)
	}
	sort.Slice(summary.SalesByDay, func(i, j int) bool {
		return summary.SalesByDay[i].Date < summary.SalesByDay[j].Date
	})
	return summary, nil
}

// ProductAnalytics walks every order's item snapshots and ranks products
// by quantity sold, alongside the products no order has ever touched.
func (s *service) ProductAnalytics(ctx context.Context) (*domain.ProductAnalytics, error) {
	orders, err := s.orders.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	sold := map[string]*domain.ProductSales{}
	for _, o := range orders {
		for _, item := range o.Items {
			p, ok := sold[item.ProductID]
			if !ok {
				p = &domain.ProductSales{ProductID: item.ProductID, Name: item.Name}
				sold[item.ProductID] = p
			}
			p.QuantitySold += item.Quantity
			p.RevenueCents += int64(item.Quantity) * item.UnitPriceCents
		}
	}

	report := &domain.ProductAnalytics{}
	cursor := ""
	for {
		page, next, err := s.products.ScanPage(ctx, 100, cursor)
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			if entry, ok := sold[p.ProductID]; ok {
				entry.SKUCode = p.SKUCode
				continue
			}
			report.Unsold = append(report.Unsold, domain.ProductRef{
				ProductID: p.ProductID,
				Name:      p.Name,
				SKUCode:   p.SKUCode,
			})
		}
		if next == "" {
			break
		}
		cursor = next
	}

	for _, entry := range sold {
		report.TopSellers = append(report.TopSellers, *entry)
	}
	sort.Slice(report.TopSellers, func(i, j int) bool {
		a, b := report.TopSellers[i], report.TopSellers[j]
		if a.QuantitySold != b.QuantitySold {
			return a.QuantitySold > b.QuantitySold
		}
		return a.RevenueCents > b.RevenueCents
	})
	if len(report.TopSellers) > topSellersLimit {
		report.TopSellers = report.TopSellers[:topSellersLimit]
	}
	return report, nil
}

func checkRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("from and to are required: %w", domain.ErrBadRequest)
	}
	if to.Before(from) {
		return fmt.Errorf("to must not precede from: %w", domain.ErrBadRequest)
	}
	return nil
}
