package models

import "time"

// Pizza represents a pizza on the menu. Its price is never stored: it is
// derived from the ingredients every time it is needed.
type Pizza struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description"`
	Ingredients []Ingredient `gorm:"many2many:pizza_ingredients" json:"ingredients"`
	Stock       int          `gorm:"not null;check:stock >= 0" json:"stock"`
	CreatedAt   time.Time    `json:"-"`
	UpdatedAt   time.Time    `json:"-"`
}
