package domain

import "time"

// Order statuses. An order becomes a Sale record the moment it is marked
// completed; cancelled is terminal without a sale.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// orderTransitions lists the statuses each status may move to.
var orderTransitions = map[string][]string{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
	OrderDelivered:  {OrderCompleted},
	OrderCompleted:  {},
	OrderCancelled:  {},
}

// ValidOrderTransition reports whether an order may move from one status
// to another.
func ValidOrderTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem snapshots the product name and unit price at order time so
// later catalog edits don't rewrite order history.
type OrderItem struct {
	ProductID      string `json:"product_id" dynamodbav:"product_id"`
	Name           string `json:"name" dynamodbav:"name"`
	UnitPriceCents int64  `json:"unit_price_cents" dynamodbav:"unit_price_cents"`
	Quantity       int    `json:"quantity" dynamodbav:"quantity"`
}

type Order struct {
	OrderID    string      `json:"id" dynamodbav:"order_id"`
	UserID     string      `json:"user_id" dynamodbav:"user_id"`
	Status     string      `json:"status" dynamodbav:"status"`
	Items      []OrderItem `json:"items" dynamodbav:"items"`
	TotalCents int64       `json:"total_cents" dynamodbav:"total_cents"`
	CreatedAt  time.Time   `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time   `json:"updated" dynamodbav:"updated_at"`
}

type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered completed cancelled"`
}
