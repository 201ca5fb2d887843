// Package pricing derives pizza prices, order totals and dietary
// classification from ingredient data. It never touches the database.
package pricing

import (
	"sort"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// Margin is applied on top of the ingredient cost
	Margin = decimal.RequireFromString("1.40")
	// VAT is applied on top of the margin
	VAT = decimal.RequireFromString("1.09")

	hundred = decimal.NewFromInt(100)
)

const (
	ItemTypePizza = "pizza"
	ItemTypeExtra = "extra"
)

// PizzaPrice is round(sum(ingredient prices) * 1.40 * 1.09, 2), or zero for
// a pizza without ingredients
func PizzaPrice(pizza models.Pizza) decimal.Decimal {
	if len(pizza.Ingredients) == 0 {
		return decimal.Zero
	}
	cost := decimal.Zero
	for _, ingredient := range pizza.Ingredients {
		cost = cost.Add(ingredient.Price)
	}
	return cost.Mul(Margin).Mul(VAT).Round(2)
}

// DietaryPolicy decides how a pizza without ingredients is classified
type DietaryPolicy struct {
	EmptyAs models.DietaryType
}

// DefaultDietaryPolicy treats an empty ingredient set as Vegan: "all
// ingredients are vegan" holds vacuously.
var DefaultDietaryPolicy = DietaryPolicy{EmptyAs: models.DietaryVegan}

// Classify returns Vegan iff every ingredient is vegan, Vegetarian iff every
// ingredient is vegan or vegetarian, Normal otherwise
func (p DietaryPolicy) Classify(pizza models.Pizza) models.DietaryType {
	if len(pizza.Ingredients) == 0 {
		if p.EmptyAs == "" {
			return models.DietaryVegan
		}
		return p.EmptyAs
	}
	result := models.DietaryVegan
	for _, ingredient := range pizza.Ingredients {
		switch ingredient.Type {
		case models.DietaryVegan:
		case models.DietaryVegetarian:
			result = models.DietaryVegetarian
		default:
			return models.DietaryNormal
		}
	}
	return result
}

// Item is one row of an itemized order breakdown
type Item struct {
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Breakdown is the itemized total of an order. Every figure is rounded to
// two decimals when it is produced.
type Breakdown struct {
	Items    []Item          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total_price"`
}

// OrderTotal prices every pizza line and extra of the order. Lines must have
// their Pizza and its Ingredients loaded.
func OrderTotal(order models.Order) Breakdown {
	breakdown := Breakdown{
		Items:    make([]Item, 0, len(order.Lines)+len(order.Extras)),
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
	}
	for _, line := range order.Lines {
		unit := PizzaPrice(line.Pizza)
		subtotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		breakdown.Items = append(breakdown.Items, Item{
			Type:      ItemTypePizza,
			Name:      line.Pizza.Name,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			Subtotal:  subtotal,
		})
		breakdown.Subtotal = breakdown.Subtotal.Add(subtotal)
	}
	for _, extra := range order.Extras {
		price := extra.Price.Round(2)
		breakdown.Items = append(breakdown.Items, Item{
			Type:      ItemTypeExtra,
			Name:      extra.Name,
			Quantity:  1,
			UnitPrice: price,
			Subtotal:  price,
		})
		breakdown.Subtotal = breakdown.Subtotal.Add(price)
	}
	breakdown.Subtotal = breakdown.Subtotal.Round(2)
	breakdown.Total = breakdown.Subtotal
	return breakdown
}

// ApplyDiscount returns a copy of the breakdown with the code's discount
// subtracted. The total never goes below zero.
func ApplyDiscount(breakdown Breakdown, order models.Order, code *models.DiscountCode) Breakdown {
	if code == nil {
		return breakdown
	}
	breakdown.Discount = DiscountAmount(order, breakdown.Subtotal, code)
	breakdown.Total = decimal.Max(breakdown.Subtotal.Sub(breakdown.Discount), decimal.Zero).Round(2)
	return breakdown
}

// DiscountAmount computes subtotal * percentage / 100 for percentage codes.
// Birthday codes credit the cheapest pizza plus the cheapest drink; a missing
// component credits zero.
func DiscountAmount(order models.Order, subtotal decimal.Decimal, code *models.DiscountCode) decimal.Decimal {
	if !code.IsBirthday() {
		return subtotal.Mul(code.Percentage).Div(hundred).Round(2)
	}
	return CheapestPizzaPrice(order.Lines).Add(CheapestDrinkPrice(order.Extras)).Round(2)
}

// CheapestPizzaPrice returns the lowest unit price among the lines, or zero
func CheapestPizzaPrice(lines []models.OrderPizzaLine) decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		prices = append(prices, PizzaPrice(line.Pizza))
	}
	return lowest(prices)
}

// CheapestDrinkPrice returns the lowest drink price among the extras, or zero
func CheapestDrinkPrice(extras []models.Extra) decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(extras))
	for _, extra := range extras {
		if extra.Type == models.ExtraDrink {
			prices = append(prices, extra.Price.Round(2))
		}
	}
	return lowest(prices)
}

func lowest(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	return prices[0]
}
