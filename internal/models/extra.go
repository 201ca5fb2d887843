package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExtraType string

const (
	ExtraDrink   ExtraType = "Drink"
	ExtraDessert ExtraType = "Dessert"
)

// ParseExtraType accepts "drink"/"dessert" in any case
func ParseExtraType(value string) (ExtraType, bool) {
	switch ExtraType(capitalize(value)) {
	case ExtraDrink:
		return ExtraDrink, true
	case ExtraDessert:
		return ExtraDessert, true
	}
	return "", false
}

// Extra is a flat-priced side item (drink or dessert)
type Extra struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Type      ExtraType       `gorm:"type:varchar(20);not null;index" json:"type"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}
