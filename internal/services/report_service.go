package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TopPizzaCount  = 3
	TopPizzaWindow = 30 * 24 * time.Hour
)

// EarningsReport sums the recomputed totals of every non-cancelled order
// in a group
type EarningsReport struct {
	GroupBy         string          `json:"group_by"`
	FilterValue     string          `json:"filter_value"`
	Orders          int             `json:"orders"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	AverageEarnings decimal.Decimal `json:"average_earnings"`
}

type TopPizza struct {
	PizzaID       uint   `json:"pizza_id"`
	PizzaName     string `json:"pizza_name"`
	TotalQuantity int    `json:"total_quantity"`
}

type ReportService interface {
	EarningsByGender(gender string) (EarningsReport, error)
	// EarningsByAgeGroup groups by the customer's age today, bounds inclusive
	EarningsByAgeGroup(minAge, maxAge int) (EarningsReport, error)
	// EarningsByPostalCode groups by the delivery postal code of the order
	EarningsByPostalCode(postalCode string) (EarningsReport, error)
	// TopPizzas ranks pizzas by units sold over the last 30 days
	TopPizzas() ([]TopPizza, error)
	// UndeliveredOrders lists Pending and In Progress orders placed by staff
	// accounts when staff is true, by customers otherwise
	UndeliveredOrders(staff bool) ([]models.Order, error)
}

type reportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db, now: time.Now}
}

// billableOrders starts a query over non-cancelled orders joined with
// their owner
func (s *reportService) billableOrders() *gorm.DB {
	return s.db.Model(&models.Order{}).
		Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.status <> ?", models.OrderCancelled).
		Preload("Lines.Pizza.Ingredients").
		Preload("Extras").
		Preload("DiscountCode").
		Preload("User")
}

func summarize(groupBy, filter string, orders []models.Order) EarningsReport {
	report := EarningsReport{
		GroupBy:         groupBy,
		FilterValue:     filter,
		Orders:          len(orders),
		TotalEarnings:   decimal.Zero,
		AverageEarnings: decimal.Zero,
	}
	for _, order := range orders {
		report.TotalEarnings = report.TotalEarnings.Add(describe(order).Pricing.Total)
	}
	if len(orders) > 0 {
		report.AverageEarnings = report.TotalEarnings.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}
	report.TotalEarnings = report.TotalEarnings.Round(2)
	return report
}

func (s *reportService) EarningsByGender(gender string) (EarningsReport, error) {
	gender = strings.TrimSpace(gender)
	if gender == "" {
		return EarningsReport{}, invalidInput("gender is required")
	}
	var orders []models.Order
	if err := s.billableOrders().
		Where("LOWER(users.gender) = ?", strings.ToLower(gender)).
		Find(&orders).Error; err != nil {
		return EarningsReport{}, err
	}
	return summarize("gender", gender, orders), nil
}

func (s *reportService) EarningsByAgeGroup(minAge, maxAge int) (EarningsReport, error) {
	if minAge < 0 || maxAge < minAge {
		return EarningsReport{}, invalidInput("age range %d-%d is invalid", minAge, maxAge)
	}
	var orders []models.Order
	if err := s.billableOrders().
		Where("users.birthdate IS NOT NULL").
		Find(&orders).Error; err != nil {
		return EarningsReport{}, err
	}
	now := s.now()
	inGroup := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		age := order.User.AgeAt(now)
		if age >= minAge && age <= maxAge {
			inGroup = append(inGroup, order)
		}
	}
	return summarize("age_group", strconv.Itoa(minAge)+"-"+strconv.Itoa(maxAge), inGroup), nil
}

func (s *reportService) EarningsByPostalCode(postalCode string) (EarningsReport, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return EarningsReport{}, invalidInput("postal code is required")
	}
	var orders []models.Order
	if err := s.billableOrders().
		Where("orders.postal_code = ?", postalCode).
		Find(&orders).Error; err != nil {
		return EarningsReport{}, err
	}
	return summarize("postal_code", postalCode, orders), nil
}

func (s *reportService) TopPizzas() ([]TopPizza, error) {
	since := s.now().Add(-TopPizzaWindow)
	top := []TopPizza{}
	err := s.db.Table("order_pizza_lines").
		Select("order_pizza_lines.pizza_id AS pizza_id, pizzas.name AS pizza_name, SUM(order_pizza_lines.quantity) AS total_quantity").
		Joins("JOIN orders ON orders.id = order_pizza_lines.order_id").
		Joins("JOIN pizzas ON pizzas.id = order_pizza_lines.pizza_id").
		Where("orders.created_at >= ? AND orders.status <> ?", since, models.OrderCancelled).
		Group("order_pizza_lines.pizza_id, pizzas.name").
		Order("total_quantity DESC, order_pizza_lines.pizza_id").
		Limit(TopPizzaCount).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}
	return top, nil
}

func (s *reportService) UndeliveredOrders(staff bool) ([]models.Order, error) {
	kinds := []models.UserKind{models.KindCustomer}
	if staff {
		kinds = []models.UserKind{models.KindEmployee, models.KindDeliveryPerson}
	}
	orders := []models.Order{}
	err := s.db.Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.status IN ?", []models.OrderStatus{models.OrderPending, models.OrderInProgress}).
		Where("users.kind IN ?", kinds).
		Preload("Lines.Pizza").
		Preload("Extras").
		Order("orders.created_at, orders.id").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
