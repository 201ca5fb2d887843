package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UserKind is the discriminator of the users table. It is chosen at
// creation and never changes.
type UserKind string

const (
	KindCustomer       UserKind = "customer"
	KindEmployee       UserKind = "employee"
	KindDeliveryPerson UserKind = "delivery_person"
)

// ParseUserKind validates a user kind coming from a request
func ParseUserKind(value string) (UserKind, bool) {
	switch UserKind(strings.ToLower(strings.TrimSpace(value))) {
	case KindCustomer:
		return KindCustomer, true
	case KindEmployee:
		return KindEmployee, true
	case KindDeliveryPerson:
		return KindDeliveryPerson, true
	}
	return "", false
}

// IsStaff reports whether the kind carries employee fields. A delivery
// person is an employee.
func (k UserKind) IsStaff() bool {
	return k == KindEmployee || k == KindDeliveryPerson
}

type DeliveryStatus string

const (
	DeliveryAvailable  DeliveryStatus = "Available"
	DeliveryOnDelivery DeliveryStatus = "On Delivery"
	DeliveryOffDuty    DeliveryStatus = "Off Duty"
)

// ParseDeliveryStatus accepts both "On Delivery" and "On_Delivery" spellings
func ParseDeliveryStatus(value string) (DeliveryStatus, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "_", " "))
	for _, status := range []DeliveryStatus{DeliveryAvailable, DeliveryOnDelivery, DeliveryOffDuty} {
		if strings.ToLower(string(status)) == normalized {
			return status, true
		}
	}
	return "", false
}

// CustomerProfile holds the columns only meaningful for customers
type CustomerProfile struct {
	LoyaltyPoints int  `gorm:"not null;default:0"`
	BirthdayOrder bool `gorm:"not null"`
}

// EmployeeProfile holds the columns shared by employees and delivery persons
type EmployeeProfile struct {
	Position string
	Salary   decimal.Decimal `gorm:"type:decimal(10,2)"`
}

// DeliveryProfile holds the columns only meaningful for delivery persons
type DeliveryProfile struct {
	Status DeliveryStatus `gorm:"type:varchar(20);index"`
}

// User is stored in a single table for every kind. The profile groups are
// embedded columns; only the groups matching Kind carry data.
type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"uniqueIndex;not null"`
	Email        string   `gorm:"uniqueIndex;not null"`
	Kind         UserKind `gorm:"type:varchar(20);not null;index"`
	Birthdate    *time.Time
	Address      string
	PostalCode   string
	Phone        string
	Gender       string
	PasswordHash string          `gorm:"not null"`
	Salt         string          `gorm:"not null"`
	Customer     CustomerProfile `gorm:"embedded;embeddedPrefix:customer_"`
	Employee     EmployeeProfile `gorm:"embedded;embeddedPrefix:employee_"`
	Delivery     DeliveryProfile `gorm:"embedded;embeddedPrefix:delivery_"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsCustomer() bool       { return u.Kind == KindCustomer }
func (u *User) IsEmployee() bool       { return u.Kind.IsStaff() }
func (u *User) IsDeliveryPerson() bool { return u.Kind == KindDeliveryPerson }

// AgeAt returns the age in whole years at the given moment, or -1 when the
// birthdate is unknown
func (u *User) AgeAt(now time.Time) int {
	if u.Birthdate == nil {
		return -1
	}
	b := *u.Birthdate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}

// HasBirthdayOn compares month and day only
func (u *User) HasBirthdayOn(day time.Time) bool {
	if u.Birthdate == nil {
		return false
	}
	return u.Birthdate.Month() == day.Month() && u.Birthdate.Day() == day.Day()
}
