package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shop-api-nosql/internal/domain"
	"github.com/shop-api-nosql/internal/pkg/id"
)

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldPriceCents  = "price_cents"
	fieldEnable      = "enable"
	fieldImageKey    = "image_key"
)

const imageURLTTL = 15 * time.Minute

type Service interface {
	Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	List(ctx context.Context, limit int32, cursor string) ([]domain.Product, string, error)
	Update(ctx context.Context, productID string, req domain.UpdateProductRequest) error
	Disable(ctx context.Context, productID string) error
	UploadImage(ctx context.Context, productID, filename string, r io.Reader, contentType string) error
}

type productStore interface {
	Put(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, productID string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Update(ctx context.Context, productID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Product, string, error)
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	products productStore
	images   imageStore
}

type ServiceDeps struct {
	ProductRepo productStore
	ImageStore  imageStore // optional; image operations fail without it
}

func NewService(deps ServiceDeps) Service {
	return &service{products: deps.ProductRepo, images: deps.ImageStore}
}

func (s *service) Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if _, err := s.products.GetBySKU(ctx, req.SKUCode); err == nil {
		return nil, fmt.Errorf("sku already in use: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Product{
		ProductID:   id.New(),
		SKUCode:     req.SKUCode,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.attachImageURL(ctx, p)
	return p, nil
}

func (s *service) List(ctx context.Context, limit int32, cursor string) ([]domain.Product, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	products, next, err := s.products.ScanPage(ctx, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	for i := range products {
		s.attachImageURL(ctx, &products[i])
	}
	return products, next, nil
}

func (s *service) Update(ctx context.Context, productID string, req domain.UpdateProductRequest) error {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = *req.Name
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.PriceCents != nil {
		updates[fieldPriceCents] = *req.PriceCents
	}
	if req.Enable != nil {
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return err
	}
	return s.products.Update(ctx, productID, updates)
}

func (s *service) Disable(ctx context.Context, productID string) error {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return err
	}
	return s.products.Update(ctx, productID, map[string]interface{}{fieldEnable: false})
}

// UploadImage stores the image under a fresh key, points the product at
// it, then removes the previous object. The old image is only deleted
// after the record update so a failed update never strands the product
// with a dangling key.
func (s *service) UploadImage(ctx context.Context, productID, filename string, r io.Reader, contentType string) error {
	if s.images == nil {
		return fmt.Errorf("image storage not configured: %w", domain.ErrBadRequest)
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("products/%s/%s-%s", productID, id.New(), filename)
	if _, err := s.images.Upload(ctx, key, r, contentType); err != nil {
		return err
	}
	if err := s.products.Update(ctx, productID, map[string]interface{}{fieldImageKey: key}); err != nil {
		return err
	}
	if p.ImageKey != nil {
		if err := s.images.Delete(ctx, *p.ImageKey); err != nil {
			slog.Warn("failed to delete replaced product image", "key", *p.ImageKey, "err", err)
		}
	}
	return nil
}

func (s *service) attachImageURL(ctx context.Context, p *domain.Product) {
	if s.images == nil || p.ImageKey == nil {
		return
	}
	url, err := s.images.PresignedURL(ctx, *p.ImageKey, imageURLTTL)
	if err != nil {
		slog.Warn("failed to presign product image", "product_id", p.ProductID, "err", err)
		return
	}
	p.ImageURL = &url
}
