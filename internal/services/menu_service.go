package services

import (
	"strings"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IngredientInput struct {
	Name  string             `json:"name" binding:"required"`
	Price decimal.Decimal    `json:"price"`
	Type  models.DietaryType `json:"type" binding:"required"`
}

type ExtraInput struct {
	Name  string           `json:"name" binding:"required"`
	Price decimal.Decimal  `json:"price"`
	Type  models.ExtraType `json:"type" binding:"required"`
}

// MenuService manages ingredients and extras
type MenuService interface {
	ListIngredients() ([]models.Ingredient, error)
	CreateIngredient(input IngredientInput) (*models.Ingredient, error)
	// UpdateIngredient refuses to change the price of an ingredient that a
	// pizza already uses
	UpdateIngredient(id uint, input IngredientInput) (*models.Ingredient, error)
	// ListExtras returns every extra, or only those of extraType when set
	ListExtras(extraType models.ExtraType) ([]models.Extra, error)
	CreateExtra(input ExtraInput) (*models.Extra, error)
	// UpdateExtra refuses to change the price of an extra that was ordered
	UpdateExtra(id uint, input ExtraInput) (*models.Extra, error)
}

type menuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) MenuService {
	return &menuService{db: db}
}

func (s *menuService) ListIngredients() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.Order("id").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func normalizeIngredient(input IngredientInput) (IngredientInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalidInput("name is required")
	}
	if input.Price.IsNegative() {
		return input, invalidInput("price cannot be negative")
	}
	dietary, ok := models.ParseDietaryType(string(input.Type))
	if !ok {
		return input, invalidInput("type must be Vegan, Vegetarian or Normal")
	}
	input.Type = dietary
	input.Price = input.Price.Round(2)
	return input, nil
}

func (s *menuService) CreateIngredient(input IngredientInput) (*models.Ingredient, error) {
	input, err := normalizeIngredient(input)
	if err != nil {
		return nil, err
	}
	ingredient := &models.Ingredient{Name: input.Name, Price: input.Price, Type: input.Type}
	if err := s.db.Create(ingredient).Error; err != nil {
		return nil, err
	}
	return ingredient, nil
}

func (s *menuService) UpdateIngredient(id uint, input IngredientInput) (*models.Ingredient, error) {
	input, err := normalizeIngredient(input)
	if err != nil {
		return nil, err
	}
	var ingredient models.Ingredient
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ingredient, id).Error; err != nil {
			return lookupErr(err, "ingredient %d", id)
		}
		if !ingredient.Price.Equal(input.Price) {
			var used int64
			if err := tx.Table("pizza_ingredients").Where("ingredient_id = ?", id).Count(&used).Error; err != nil {
				return err
			}
			if used > 0 {
				return stateConflict("ingredient %d is used by %d pizzas, its price cannot change", id, used)
			}
		}
		ingredient.Name = input.Name
		ingredient.Price = input.Price
		ingredient.Type = input.Type
		return tx.Save(&ingredient).Error
	})
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (s *menuService) ListExtras(extraType models.ExtraType) ([]models.Extra, error) {
	query := s.db.Order("id")
	if extraType != "" {
		parsed, ok := models.ParseExtraType(string(extraType))
		if !ok {
			return nil, invalidInput("type must be Drink or Dessert")
		}
		query = query.Where("type = ?", parsed)
	}
	var extras []models.Extra
	if err := query.Find(&extras).Error; err != nil {
		return nil, err
	}
	return extras, nil
}

func normalizeExtra(input ExtraInput) (ExtraInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalidInput("name is required")
	}
	if input.Price.IsNegative() {
		return input, invalidInput("price cannot be negative")
	}
	extraType, ok := models.ParseExtraType(string(input.Type))
	if !ok {
		return input, invalidInput("type must be Drink or Dessert")
	}
	input.Type = extraType
	input.Price = input.Price.Round(2)
	return input, nil
}

func (s *menuService) CreateExtra(input ExtraInput) (*models.Extra, error) {
	input, err := normalizeExtra(input)
	if err != nil {
		return nil, err
	}
	extra := &models.Extra{Name: input.Name, Price: input.Price, Type: input.Type}
	if err := s.db.Create(extra).Error; err != nil {
		return nil, err
	}
	return extra, nil
}

func (s *menuService) UpdateExtra(id uint, input ExtraInput) (*models.Extra, error) {
	input, err := normalizeExtra(input)
	if err != nil {
		return nil, err
	}
	var extra models.Extra
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&extra, id).Error; err != nil {
			return lookupErr(err, "extra %d", id)
		}
		if !extra.Price.Equal(input.Price) {
			var ordered int64
			if err := tx.Table("order_extras").Where("extra_id = ?", id).Count(&ordered).Error; err != nil {
				return err
			}
			if ordered > 0 {
				return stateConflict("extra %d appears in %d orders, its price cannot change", id, ordered)
			}
		}
		extra.Name = input.Name
		extra.Price = input.Price
		extra.Type = input.Type
		return tx.Save(&extra).Error
	})
	if err != nil {
		return nil, err
	}
	return &extra, nil
}
