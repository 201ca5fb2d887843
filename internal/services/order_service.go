package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/pricing"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderLineInput struct {
	PizzaID  uint `json:"pizza_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

type CreateOrderInput struct {
	Lines        []OrderLineInput `json:"pizzas"`
	ExtraIDs     []uint           `json:"extra_ids"`
	DiscountCode string           `json:"discount_code"`
	// PostalCode defaults to the customer's own postal code
	PostalCode *string `json:"postal_code"`
}

// UpdateOrderInput is a partial update; nil fields are left alone
type UpdateOrderInput struct {
	Status           *models.OrderStatus `json:"status"`
	DeliveredAt      *time.Time          `json:"delivered_at"`
	DeliveryPersonID *uint               `json:"delivery_person_id"`
	PostalCode       *string             `json:"postal_code"`
}

// OrderDetails is an order with its total recomputed from the current
// line items
type OrderDetails struct {
	models.Order
	Pricing  pricing.Breakdown    `json:"pricing"`
	Discount *models.DiscountCode `json:"discount,omitempty"`
}

// Courier is the public face of a delivery person
type Courier struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone,omitempty"`
}

func courierOf(user *models.User) *Courier {
	if user == nil {
		return nil
	}
	return &Courier{ID: user.ID, Username: user.Username, Phone: user.Phone}
}

// OrderConfirmation is returned when an order is placed
type OrderConfirmation struct {
	OrderDetails
	DeliveryPerson *Courier              `json:"delivery_person,omitempty"`
	IssuedCodes    []models.DiscountCode `json:"issued_codes"`
}

// OrderService is the order lifecycle manager
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*OrderConfirmation, error)
	// GetOrder returns an order the viewer may see: its own orders, or any
	// order for staff
	GetOrder(id uint, viewer *models.User) (*OrderDetails, error)
	ListOrdersForUser(userID uint) ([]OrderDetails, error)
	UpdateOrder(ctx context.Context, id uint, input UpdateOrderInput) (*OrderDetails, error)
	// AssignDeliveryPerson returns nil without error when nobody is available
	AssignDeliveryPerson(ctx context.Context, orderID uint) (*models.User, error)
}

type orderService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, publisher events.Publisher) OrderService {
	return &orderService{db: db, publisher: publisher, now: time.Now}
}

// mergeLines validates quantities and folds repeated pizza ids into one line
func mergeLines(lines []OrderLineInput) ([]models.OrderPizzaLine, error) {
	if len(lines) == 0 {
		return nil, invalidInput("an order needs at least one pizza")
	}
	quantities := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.PizzaID == 0 {
			return nil, invalidInput("pizza_id is required")
		}
		if line.Quantity < 1 {
			return nil, invalidInput("quantity for pizza %d must be at least 1", line.PizzaID)
		}
		quantities[line.PizzaID] += line.Quantity
	}
	merged := make([]models.OrderPizzaLine, 0, len(quantities))
	for pizzaID, quantity := range quantities {
		merged = append(merged, models.OrderPizzaLine{PizzaID: pizzaID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].PizzaID < merged[j].PizzaID })
	return merged, nil
}

func (s *orderService) CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*OrderConfirmation, error) {
	lines, err := mergeLines(input.Lines)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var (
		confirmation OrderConfirmation
		redeemed     *models.DiscountCode
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return lookupErr(err, "user %d", userID)
		}

		postalCode := strings.TrimSpace(user.PostalCode)
		if input.PostalCode != nil {
			postalCode = strings.TrimSpace(*input.PostalCode)
			if postalCode == "" {
				return invalidInput("postal_code cannot be empty")
			}
		}
		if postalCode == "" {
			return invalidInput("postal_code is required")
		}

		for _, line := range lines {
			if err := takeStock(tx, line.PizzaID, line.Quantity); err != nil {
				return err
			}
		}

		extras, err := findExtras(tx, input.ExtraIDs)
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:     user.ID,
			Status:     models.OrderPending,
			PostalCode: postalCode,
		}

		courier, err := claimAvailableCourier(tx)
		if err != nil {
			return err
		}
		if courier == nil {
			if courier, err = pickRandomCourier(tx); err != nil {
				return err
			}
		}
		if courier != nil {
			order.DeliveryPersonID = &courier.ID
		}

		if code := strings.TrimSpace(input.DiscountCode); code != "" {
			if redeemed, err = redeemCode(tx, code, &user, now); err != nil {
				return err
			}
			order.DiscountCodeID = &redeemed.Code
		}

		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return err
		}
		if len(extras) > 0 {
			if err := tx.Model(&order).Association("Extras").Append(extras); err != nil {
				return err
			}
		}

		var issued []models.DiscountCode
		if user.IsCustomer() {
			if issued, err = accrueLoyalty(tx, &user, (&models.Order{Lines: lines}).PizzaCount(), now); err != nil {
				return err
			}
		}

		details, err := loadOrderDetails(tx, order.ID)
		if err != nil {
			return err
		}
		confirmation = OrderConfirmation{
			OrderDetails:   *details,
			DeliveryPerson: courierOf(courier),
			IssuedCodes:    issued,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if confirmation.IssuedCodes == nil {
		confirmation.IssuedCodes = []models.DiscountCode{}
	}

	logrus.WithFields(logrus.Fields{
		"order_id": confirmation.ID,
		"user_id":  userID,
		"total":    confirmation.Pricing.Total.String(),
	}).Info("Order created")

	batch := []events.Event{{
		Type:       events.OrderCreated,
		OrderID:    confirmation.ID,
		UserID:     userID,
		Status:     string(confirmation.Status),
		OccurredAt: now,
	}}
	if confirmation.DeliveryPersonID != nil {
		batch = append(batch, events.Event{
			Type:       events.OrderAssigned,
			OrderID:    confirmation.ID,
			UserID:     *confirmation.DeliveryPersonID,
			OccurredAt: now,
		})
	}
	if redeemed != nil {
		batch = append(batch, events.Event{
			Type:       events.DiscountRedeemed,
			OrderID:    confirmation.ID,
			UserID:     userID,
			Code:       redeemed.Code,
			OccurredAt: now,
		})
	}
	for _, code := range confirmation.IssuedCodes {
		batch = append(batch, issuedEvent(code, now))
	}
	publish(ctx, s.publisher, batch...)
	return &confirmation, nil
}

// takeStock decrements the stock of a pizza. The WHERE clause keeps the
// stock from ever going negative even under concurrent orders.
func takeStock(tx *gorm.DB, pizzaID uint, quantity int) error {
	var pizza models.Pizza
	if err := tx.Select("id", "stock").First(&pizza, pizzaID).Error; err != nil {
		return lookupErr(err, "pizza %d", pizzaID)
	}
	if pizza.Stock < quantity {
		return insufficientStock(pizzaID, quantity, pizza.Stock)
	}
	result := tx.Model(&models.Pizza{}).
		Where("id = ? AND stock >= ?", pizzaID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return insufficientStock(pizzaID, quantity, pizza.Stock)
	}
	return nil
}

func findExtras(tx *gorm.DB, ids []uint) ([]models.Extra, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}
	var extras []models.Extra
	if err := tx.Where("id IN ?", unique).Find(&extras).Error; err != nil {
		return nil, err
	}
	if len(extras) != len(unique) {
		return nil, notFound("one or more extras do not exist")
	}
	return extras, nil
}

func loadOrderDetails(db *gorm.DB, id uint) (*OrderDetails, error) {
	var order models.Order
	if err := db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("pizza_id") }).
		Preload("Lines.Pizza.Ingredients").
		Preload("Extras").
		Preload("DiscountCode").
		First(&order, id).Error; err != nil {
		return nil, lookupErr(err, "order %d", id)
	}
	return describe(order), nil
}

func describe(order models.Order) *OrderDetails {
	if order.Lines == nil {
		order.Lines = []models.OrderPizzaLine{}
	}
	if order.Extras == nil {
		order.Extras = []models.Extra{}
	}
	breakdown := pricing.ApplyDiscount(pricing.OrderTotal(order), order, order.DiscountCode)
	return &OrderDetails{Order: order, Pricing: breakdown, Discount: order.DiscountCode}
}

func (s *orderService) GetOrder(id uint, viewer *models.User) (*OrderDetails, error) {
	details, err := loadOrderDetails(s.db, id)
	if err != nil {
		return nil, err
	}
	if viewer != nil && !viewer.IsEmployee() && details.UserID != viewer.ID {
		return nil, notFound("order %d", id)
	}
	return details, nil
}

func (s *orderService) ListOrdersForUser(userID uint) ([]OrderDetails, error) {
	var orders []models.Order
	if err := s.db.Preload("Lines.Pizza.Ingredients").
		Preload("Extras").
		Preload("DiscountCode").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	details := make([]OrderDetails, 0, len(orders))
	for _, order := range orders {
		details = append(details, *describe(order))
	}
	return details, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uint, input UpdateOrderInput) (*OrderDetails, error) {
	now := s.now()
	var (
		details *OrderDetails
		changed *models.OrderStatus
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return lookupErr(err, "order %d", id)
		}

		updates := map[string]any{}
		if input.Status != nil {
			next, ok := models.ParseOrderStatus(string(*input.Status))
			if !ok {
				return invalidInput("unknown order status %q", *input.Status)
			}
			if next != order.Status {
				if !order.Status.CanTransitionTo(next) {
					return stateConflict("order %d cannot go from %s to %s", id, order.Status, next)
				}
				updates["status"] = next
				changed = &next
				if next == models.OrderDelivered && order.DeliveredAt == nil && input.DeliveredAt == nil {
					updates["delivered_at"] = now
				}
			}
		}
		if input.DeliveredAt != nil {
			updates["delivered_at"] = *input.DeliveredAt
		}
		if input.DeliveryPersonID != nil {
			var courier models.User
			err := tx.Where("id = ? AND kind = ?", *input.DeliveryPersonID, models.KindDeliveryPerson).First(&courier).Error
			if err != nil {
				return lookupErr(err, "delivery person %d", *input.DeliveryPersonID)
			}
			updates["delivery_person_id"] = courier.ID
		}
		if input.PostalCode != nil {
			postalCode := strings.TrimSpace(*input.PostalCode)
			if postalCode == "" {
				return invalidInput("postal_code cannot be empty")
			}
			updates["postal_code"] = postalCode
		}

		if len(updates) > 0 {
			if err := tx.Model(&order).Updates(updates).Error; err != nil {
				return err
			}
		}
		var err error
		details, err = loadOrderDetails(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed != nil {
		publish(ctx, s.publisher, events.Event{
			Type:       events.OrderStatusChanged,
			OrderID:    id,
			UserID:     details.UserID,
			Status:     string(*changed),
			OccurredAt: now,
		})
	}
	return details, nil
}

func (s *orderService) AssignDeliveryPerson(ctx context.Context, orderID uint) (*models.User, error) {
	var courier *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return lookupErr(err, "order %d", orderID)
		}
		if order.Status != models.OrderInProgress {
			return stateConflict("order %d is %s, not In Progress", orderID, order.Status)
		}
		if order.DeliveryPersonID != nil {
			return stateConflict("order %d already has a delivery person", orderID)
		}
		var err error
		if courier, err = claimAvailableCourier(tx); err != nil || courier == nil {
			return err
		}
		return tx.Model(&order).Update("delivery_person_id", courier.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if courier == nil {
		logrus.WithField("order_id", orderID).Warn("No delivery person available")
		return nil, nil
	}
	publish(ctx, s.publisher, events.Event{
		Type:       events.OrderAssigned,
		OrderID:    orderID,
		UserID:     courier.ID,
		OccurredAt: s.now(),
	})
	return courier, nil
}
