package model

import "math"

// DefaultHoursPerUnit is the planning estimate used when no tuning is configured.
const DefaultHoursPerUnit = 2.0

// Product is the catalog entry an order item refers to.
type Product struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// OrderItem is one manufacturing line of an order.
type OrderItem struct {
	ID          int64  `json:"id" yaml:"id" validate:"required"`
	ProductID   int64  `json:"product_id" yaml:"product_id"`
	ProductName string `json:"product_name" yaml:"product_name"`
	Quantity    int    `json:"quantity" yaml:"quantity" validate:"gt=0"`
}

// Order groups items that must be produced together.
type Order struct {
	ID    int64       `json:"id" yaml:"id" validate:"required"`
	Items []OrderItem `json:"items" yaml:"items" validate:"dive"`
}

// OrderTask is the schedulable unit derived from one order item. It is never
// persisted.
type OrderTask struct {
	OrderID        int64   `json:"order_id"`
	ItemID         int64   `json:"order_item_id"`
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Quantity       int     `json:"quantity"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// EstimateHours returns the planning duration for qty units, never below one hour.
func EstimateHours(qty int, hoursPerUnit float64) float64 {
	if hoursPerUnit <= 0 {
		hoursPerUnit = DefaultHoursPerUnit
	}
	return math.Max(1, float64(qty)*hoursPerUnit)
}

// ExpandOrders flattens orders into tasks, keeping input order.
func ExpandOrders(orders []Order, hoursPerUnit float64) []OrderTask {
	var tasks []OrderTask
	for _, o := range orders {
		for _, it := range o.Items {
			tasks = append(tasks, OrderTask{
				OrderID:        o.ID,
				ItemID:         it.ID,
				ProductID:      it.ProductID,
				ProductName:    it.ProductName,
				Quantity:       it.Quantity,
				EstimatedHours: EstimateHours(it.Quantity, hoursPerUnit),
			})
		}
	}
	return tasks
}

// TotalHours sums the estimated hours of tasks.
func TotalHours(tasks []OrderTask) float64 {
	var sum float64
	for _, t := range tasks {
		sum += t.EstimatedHours
	}
	return sum
}
