package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DietaryType classifies ingredients and, by derivation, pizzas
type DietaryType string

const (
	DietaryVegan      DietaryType = "Vegan"
	DietaryVegetarian DietaryType = "Vegetarian"
	DietaryNormal     DietaryType = "Normal"
)

// ParseDietaryType accepts the canonical names case-insensitively
func ParseDietaryType(value string) (DietaryType, bool) {
	switch DietaryType(capitalize(value)) {
	case DietaryVegan:
		return DietaryVegan, true
	case DietaryVegetarian:
		return DietaryVegetarian, true
	case DietaryNormal:
		return DietaryNormal, true
	}
	return "", false
}

// Ingredient is a pizza topping with its unit cost
type Ingredient struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Type      DietaryType     `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}
