package database

import (
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedMenu inserts a starter menu when no pizza exists yet. It returns
// whether anything was inserted.
func SeedMenu(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&models.Pizza{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		log.Info("Database already seeded with initial data")
		return false, nil
	}

	log.Info("Database is empty, seeding initial data")
	err := db.Transaction(func(tx *gorm.DB) error {
		ingredients := map[string]*models.Ingredient{
			"Tomato Sauce": {Name: "Tomato Sauce", Price: decimal.RequireFromString("0.50"), Type: models.DietaryVegan},
			"Mozzarella":   {Name: "Mozzarella", Price: decimal.RequireFromString("1.00"), Type: models.DietaryVegetarian},
			"Basil":        {Name: "Basil", Price: decimal.RequireFromString("0.20"), Type: models.DietaryVegan},
			"Pepperoni":    {Name: "Pepperoni", Price: decimal.RequireFromString("1.50"), Type: models.DietaryNormal},
			"Bell Peppers": {Name: "Bell Peppers", Price: decimal.RequireFromString("0.60"), Type: models.DietaryVegan},
			"Olives":       {Name: "Olives", Price: decimal.RequireFromString("0.70"), Type: models.DietaryVegan},
			"Mushrooms":    {Name: "Mushrooms", Price: decimal.RequireFromString("0.80"), Type: models.DietaryVegan},
			"Ham":          {Name: "Ham", Price: decimal.RequireFromString("1.40"), Type: models.DietaryNormal},
		}
		for _, ingredient := range ingredients {
			if err := tx.Create(ingredient).Error; err != nil {
				return err
			}
		}

		pick := func(names ...string) []models.Ingredient {
			picked := make([]models.Ingredient, 0, len(names))
			for _, name := range names {
				picked = append(picked, *ingredients[name])
			}
			return picked
		}
		pizzas := []models.Pizza{
			{Name: "Margherita", Description: "Tomato, mozzarella and basil", Stock: 50, Ingredients: pick("Tomato Sauce", "Mozzarella", "Basil")},
			{Name: "Pepperoni", Description: "Classic pepperoni", Stock: 50, Ingredients: pick("Tomato Sauce", "Mozzarella", "Pepperoni")},
			{Name: "Vegetarian", Description: "Peppers, olives and mushrooms", Stock: 40, Ingredients: pick("Tomato Sauce", "Mozzarella", "Bell Peppers", "Olives", "Mushrooms")},
			{Name: "Marinara", Description: "No cheese", Stock: 30, Ingredients: pick("Tomato Sauce", "Basil", "Olives")},
			{Name: "Prosciutto", Description: "Ham and mushrooms", Stock: 30, Ingredients: pick("Tomato Sauce", "Mozzarella", "Ham", "Mushrooms")},
		}
		for i := range pizzas {
			if err := tx.Create(&pizzas[i]).Error; err != nil {
				return err
			}
		}

		extras := []models.Extra{
			{Name: "Cola", Price: decimal.RequireFromString("1.50"), Type: models.ExtraDrink},
			{Name: "Sparkling Water", Price: decimal.RequireFromString("1.20"), Type: models.ExtraDrink},
			{Name: "Tiramisu", Price: decimal.RequireFromString("3.50"), Type: models.ExtraDessert},
			{Name: "Panna Cotta", Price: decimal.RequireFromString("3.00"), Type: models.ExtraDessert},
		}
		return tx.Create(&extras).Error
	})
	if err != nil {
		return false, err
	}
	log.Info("Database seeded successfully")
	return true, nil
}
