package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error taxonomy shared by every service. Callers match with errors.Is; the
// HTTP layer maps each one to a status code.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrStateConflict     = errors.New("state conflict")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func stateConflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

func invalidDiscount(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDiscount, fmt.Sprintf(format, args...))
}

func insufficientStock(pizzaID uint, requested, available int) error {
	return fmt.Errorf("%w: pizza %d has %d left, %d requested", ErrInsufficientStock, pizzaID, available, requested)
}

// lookupErr turns gorm.ErrRecordNotFound into ErrNotFound and passes every
// other error through
func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(format, args...)
	}
	return err
}
