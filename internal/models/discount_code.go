package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountCode is a one-time code. A zero percentage marks a birthday code:
// the cheapest pizza and the cheapest drink of the order are free.
type DiscountCode struct {
	Code       string          `gorm:"primaryKey;size:64" json:"code"`
	Percentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percentage"`
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidUntil time.Time       `gorm:"not null" json:"valid_until"`
	Used       bool            `gorm:"not null" json:"used"`
	UsedAt     *time.Time      `json:"used_at,omitempty"`
	IssuedToID *uint           `gorm:"index" json:"issued_to_id,omitempty"`
	UsedByID   *uint           `gorm:"index" json:"used_by_id,omitempty"`
	UsedBy     *User           `gorm:"foreignKey:UsedByID" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (d *DiscountCode) IsBirthday() bool {
	return d.Percentage.IsZero()
}

// UsableAt reports !used && valid_from <= now <= valid_until. A missing
// valid_from means the code is valid from its creation.
func (d *DiscountCode) UsableAt(now time.Time) bool {
	if d.Used {
		return false
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return false
	}
	return !now.After(d.ValidUntil)
}

// Kind returns "birthday" or "percentage"
func (d *DiscountCode) Kind() string {
	if d.IsBirthday() {
		return "birthday"
	}
	return "percentage"
}
