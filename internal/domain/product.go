package domain

import "time"

type Product struct {
	ProductID   string    `json:"id" dynamodbav:"product_id"`
	SKUCode     string    `json:"sku_code" dynamodbav:"sku_code"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	PriceCents  int64     `json:"price_cents" dynamodbav:"price_cents"`
	ImageKey    *string   `json:"-" dynamodbav:"image_key"` // S3 object key
	ImageURL    *string   `json:"image_url,omitempty" dynamodbav:"-"`
	Enable      bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateProductRequest struct {
	SKUCode     string `json:"sku_code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gt=0"`
	Enable      *bool   `json:"enable"`
}
