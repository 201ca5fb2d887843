package models

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderInProgress OrderStatus = "In Progress"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus accepts "In Progress", "In_Progress" and any casing
func ParseOrderStatus(value string) (OrderStatus, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "_", " "))
	for _, status := range []OrderStatus{OrderPending, OrderInProgress, OrderDelivered, OrderCancelled} {
		if strings.ToLower(string(status)) == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no transition can leave the status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo encodes Pending -> In Progress -> Delivered, with
// Cancelled reachable from both non-terminal states.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderInProgress || next == OrderCancelled
	case OrderInProgress:
		return next == OrderDelivered || next == OrderCancelled
	default:
		return false
	}
}

// OrderPizzaLine is one (pizza, quantity) row of an order
type OrderPizzaLine struct {
	OrderID  uint  `gorm:"primaryKey;autoIncrement:false" json:"-"`
	PizzaID  uint  `gorm:"primaryKey;autoIncrement:false" json:"pizza_id"`
	Pizza    Pizza `gorm:"foreignKey:PizzaID" json:"pizza"`
	Quantity int   `gorm:"not null" json:"quantity"`
}

type Order struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	User             User             `gorm:"foreignKey:UserID" json:"-"`
	Lines            []OrderPizzaLine `gorm:"foreignKey:OrderID" json:"lines"`
	Extras           []Extra          `gorm:"many2many:order_extras" json:"extras"`
	Status           OrderStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"-"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty"`
	DeliveryPersonID *uint            `gorm:"index" json:"delivery_person_id,omitempty"`
	DeliveryPerson   *User            `gorm:"foreignKey:DeliveryPersonID" json:"-"`
	PostalCode       string           `gorm:"not null" json:"postal_code"`
	DiscountCodeID   *string          `gorm:"column:discount_code;size:64" json:"discount_code,omitempty"`
	DiscountCode     *DiscountCode    `gorm:"foreignKey:DiscountCodeID;references:Code" json:"-"`
}

// PizzaCount is the total number of pizza units in the order
func (o *Order) PizzaCount() int {
	total := 0
	for _, line := range o.Lines {
		total += line.Quantity
	}
	return total
}
