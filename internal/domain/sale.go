package domain

import "time"

// Sale is the financial record cut when an order reaches completed.
type Sale struct {
	SaleID     string    `json:"id" dynamodbav:"sale_id"`
	OrderID    string    `json:"order_id" dynamodbav:"order_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	TotalCents int64     `json:"total_cents" dynamodbav:"total_cents"`
	SaleDate   time.Time `json:"sale_date" dynamodbav:"sale_date,unixtime"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// SalesSummary aggregates sales over a date range.
type SalesSummary struct {
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
	SaleCount    int          `json:"sale_count"`
	RevenueCents int64        `json:"revenue_cents"`
	SalesByDay   []DailySales `json:"sales_by_day"`
}

// DailySales is one calendar day's bucket in a summary. Date is the
// UTC day in YYYY-MM-DD form.
type DailySales struct {
	Date         string `json:"date"`
	SaleCount    int    `json:"sale_count"`
	RevenueCents int64  `json:"revenue_cents"`
}

// ProductSales ranks one product by what it has sold.
type ProductSales struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	SKUCode      string `json:"sku_code"`
	QuantitySold int    `json:"quantity_sold"`
	RevenueCents int64  `json:"revenue_cents"`
}

// ProductRef identifies a product that has never been ordered.
type ProductRef struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	SKUCode   string `json:"sku_code"`
}

// ProductAnalytics pairs the best sellers with the products nobody
// has ordered yet.
type ProductAnalytics struct {
	TopSellers []ProductSales `json:"top_sellers"`
	Unsold     []ProductRef   `json:"unsold"`
}
