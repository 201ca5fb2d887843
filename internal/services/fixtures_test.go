package services

import (
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 5, 14, 18, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return db
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// menu holds the fixtures most tests price against: a 2.29 margherita, a
// 1.50 cola and a 2.00 tiramisu
type menu struct {
	Sauce      models.Ingredient
	Mozzarella models.Ingredient
	Margherita models.Pizza
	Cola       models.Extra
	Tiramisu   models.Extra
}

func seedMenu(t *testing.T, db *gorm.DB, stock int) menu {
	m := menu{
		Sauce:      models.Ingredient{Name: "Tomato Sauce", Price: dec("0.50"), Type: models.DietaryVegan},
		Mozzarella: models.Ingredient{Name: "Mozzarella", Price: dec("1.00"), Type: models.DietaryVegetarian},
		Cola:       models.Extra{Name: "Cola", Price: dec("1.50"), Type: models.ExtraDrink},
		Tiramisu:   models.Extra{Name: "Tiramisu", Price: dec("2.00"), Type: models.ExtraDessert},
	}
	require.NoError(t, db.Create(&m.Sauce).Error)
	require.NoError(t, db.Create(&m.Mozzarella).Error)
	require.NoError(t, db.Create(&m.Cola).Error)
	require.NoError(t, db.Create(&m.Tiramisu).Error)

	m.Margherita = models.Pizza{
		Name:        "Margherita",
		Stock:       stock,
		Ingredients: []models.Ingredient{m.Sauce, m.Mozzarella},
	}
	require.NoError(t, db.Create(&m.Margherita).Error)
	return m
}

func createUser(t *testing.T, db *gorm.DB, username string, kind models.UserKind) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@pizza.com",
		Kind:         kind,
		PostalCode:   "1011AB",
		PasswordHash: "hash",
		Salt:         "salt",
	}
	if kind.IsStaff() {
		user.Employee = models.EmployeeProfile{Position: "Staff", Salary: dec("2500")}
	}
	if kind == models.KindDeliveryPerson {
		user.Delivery = models.DeliveryProfile{Status: models.DeliveryAvailable}
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func setDeliveryStatus(t *testing.T, db *gorm.DB, user *models.User, status models.DeliveryStatus) {
	require.NoError(t, db.Model(user).Update("delivery_status", status).Error)
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return user
}

func reloadPizza(t *testing.T, db *gorm.DB, id uint) models.Pizza {
	var pizza models.Pizza
	require.NoError(t, db.First(&pizza, id).Error)
	return pizza
}

func createCode(t *testing.T, db *gorm.DB, code string, percentage string, validUntil time.Time) models.DiscountCode {
	discount := models.DiscountCode{
		Code:       code,
		Percentage: dec(percentage),
		ValidUntil: validUntil,
	}
	require.NoError(t, db.Create(&discount).Error)
	return discount
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
