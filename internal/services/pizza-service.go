package services

import (
	"strings"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PizzaView is a pizza as the menu shows it, with its derived price and
// dietary type
type PizzaView struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	DietaryType models.DietaryType  `json:"dietary_type"`
	Stock       int                 `json:"stock"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

// PizzaFilter narrows the menu. Diet "Vegetarian" includes vegan pizzas.
type PizzaFilter struct {
	Diet        models.DietaryType
	InStockOnly bool
}

type PizzaPage struct {
	Items    []PizzaView `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

// PizzaInput is used for both creation and full updates
type PizzaInput struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	IngredientIDs []uint `json:"ingredient_ids"`
	Stock         int    `json:"stock" binding:"gte=0"`
}

// PizzaService provides methods to interact with the pizza database
type PizzaService interface {
	// GetAllPizzas retrieves the menu, optionally filtered
	GetAllPizzas(filter PizzaFilter) ([]PizzaView, error)
	// GetPizzasPage retrieves one page of the menu ordered by id
	GetPizzasPage(page, pageSize int) (PizzaPage, error)
	// GetPizzaByID retrieves a pizza by its ID
	GetPizzaByID(id uint) (PizzaView, error)
	// GetPizzaPrice computes the current sale price of a pizza
	GetPizzaPrice(id uint) (decimal.Decimal, error)
	GetPizzaIngredients(id uint) ([]models.Ingredient, error)
	// CreatePizza creates a new pizza in the database
	CreatePizza(input PizzaInput) (PizzaView, error)
	// UpdatePizza replaces name, description, ingredients and stock. The
	// ingredient set of a pizza that was already ordered is frozen.
	UpdatePizza(id uint, input PizzaInput) (PizzaView, error)
	// Restock adds quantity units to the stock
	Restock(id uint, quantity int) (PizzaView, error)
	// DeletePizza deletes a pizza that no order references
	DeletePizza(id uint) error
}

// pizzaService is the implementation of the PizzaService interface
type pizzaService struct {
	db     *gorm.DB
	policy pricing.DietaryPolicy
}

// NewPizzaService creates a new instance of PizzaService
func NewPizzaService(db *gorm.DB, policy pricing.DietaryPolicy) PizzaService {
	return &pizzaService{db: db, policy: policy}
}

func (s *pizzaService) view(pizza models.Pizza) PizzaView {
	ingredients := pizza.Ingredients
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	return PizzaView{
		ID:          pizza.ID,
		Name:        pizza.Name,
		Description: pizza.Description,
		Price:       pricing.PizzaPrice(pizza),
		DietaryType: s.policy.Classify(pizza),
		Stock:       pizza.Stock,
		Ingredients: ingredients,
	}
}

func matchesDiet(dietary, wanted models.DietaryType) bool {
	switch wanted {
	case "", models.DietaryNormal:
		return true
	case models.DietaryVegetarian:
		return dietary == models.DietaryVegan || dietary == models.DietaryVegetarian
	default:
		return dietary == wanted
	}
}

func (s *pizzaService) GetAllPizzas(filter PizzaFilter) ([]PizzaView, error) {
	query := s.db.Preload("Ingredients").Order("id")
	if filter.InStockOnly {
		query = query.Where("stock > 0")
	}
	var pizzas []models.Pizza
	if err := query.Find(&pizzas).Error; err != nil {
		return nil, err
	}
	views := make([]PizzaView, 0, len(pizzas))
	for _, pizza := range pizzas {
		view := s.view(pizza)
		if matchesDiet(view.DietaryType, filter.Diet) {
			views = append(views, view)
		}
	}
	return views, nil
}

func (s *pizzaService) GetPizzasPage(page, pageSize int) (PizzaPage, error) {
	if page < 1 {
		return PizzaPage{}, invalidInput("page must be at least 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return PizzaPage{}, invalidInput("page_size must be between 1 and %d", MaxPageSize)
	}
	var total int64
	if err := s.db.Model(&models.Pizza{}).Count(&total).Error; err != nil {
		return PizzaPage{}, err
	}
	var pizzas []models.Pizza
	if err := s.db.Preload("Ingredients").Order("id").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&pizzas).Error; err != nil {
		return PizzaPage{}, err
	}
	items := make([]PizzaView, 0, len(pizzas))
	for _, pizza := range pizzas {
		items = append(items, s.view(pizza))
	}
	return PizzaPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *pizzaService) load(db *gorm.DB, id uint) (models.Pizza, error) {
	var pizza models.Pizza
	if err := db.Preload("Ingredients").First(&pizza, id).Error; err != nil {
		return models.Pizza{}, lookupErr(err, "pizza %d", id)
	}
	return pizza, nil
}

func (s *pizzaService) GetPizzaByID(id uint) (PizzaView, error) {
	pizza, err := s.load(s.db, id)
	if err != nil {
		return PizzaView{}, err
	}
	return s.view(pizza), nil
}

func (s *pizzaService) GetPizzaPrice(id uint) (decimal.Decimal, error) {
	pizza, err := s.load(s.db, id)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.PizzaPrice(pizza), nil
}

func (s *pizzaService) GetPizzaIngredients(id uint) ([]models.Ingredient, error) {
	pizza, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	if pizza.Ingredients == nil {
		return []models.Ingredient{}, nil
	}
	return pizza.Ingredients, nil
}

func findIngredients(tx *gorm.DB, ids []uint) ([]models.Ingredient, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return []models.Ingredient{}, nil
	}
	var ingredients []models.Ingredient
	if err := tx.Where("id IN ?", unique).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	if len(ingredients) != len(unique) {
		return nil, notFound("one or more ingredients do not exist")
	}
	return ingredients, nil
}

func validatePizzaInput(input PizzaInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return invalidInput("name is required")
	}
	if input.Stock < 0 {
		return invalidInput("stock cannot be negative")
	}
	return nil
}

func (s *pizzaService) CreatePizza(input PizzaInput) (PizzaView, error) {
	if err := validatePizzaInput(input); err != nil {
		return PizzaView{}, err
	}
	var created models.Pizza
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ingredients, err := findIngredients(tx, input.IngredientIDs)
		if err != nil {
			return err
		}
		pizza := models.Pizza{
			Name:        strings.TrimSpace(input.Name),
			Description: input.Description,
			Stock:       input.Stock,
			Ingredients: ingredients,
		}
		if err := tx.Omit("Ingredients.*").Create(&pizza).Error; err != nil {
			return err
		}
		created, err = s.load(tx, pizza.ID)
		return err
	})
	if err != nil {
		return PizzaView{}, err
	}
	return s.view(created), nil
}

func (s *pizzaService) UpdatePizza(id uint, input PizzaInput) (PizzaView, error) {
	if err := validatePizzaInput(input); err != nil {
		return PizzaView{}, err
	}
	var updated models.Pizza
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pizza, err := s.load(tx, id)
		if err != nil {
			return err
		}
		ingredients, err := findIngredients(tx, input.IngredientIDs)
		if err != nil {
			return err
		}
		if !sameIngredients(pizza.Ingredients, ingredients) {
			var ordered int64
			if err := tx.Model(&models.OrderPizzaLine{}).Where("pizza_id = ?", id).Count(&ordered).Error; err != nil {
				return err
			}
			if ordered > 0 {
				return stateConflict("pizza %d appears in %d order lines, its ingredients cannot change", id, ordered)
			}
		}
		if err := tx.Model(&pizza).Updates(map[string]any{
			"name":        strings.TrimSpace(input.Name),
			"description": input.Description,
			"stock":       input.Stock,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&pizza).Association("Ingredients").Replace(ingredients); err != nil {
			return err
		}
		updated, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return PizzaView{}, err
	}
	return s.view(updated), nil
}

func (s *pizzaService) Restock(id uint, quantity int) (PizzaView, error) {
	if quantity < 1 {
		return PizzaView{}, invalidInput("restock quantity must be at least 1")
	}
	var restocked models.Pizza
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Pizza{}).Where("id = ?", id).
			Update("stock", gorm.Expr("stock + ?", quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound("pizza %d", id)
		}
		var err error
		restocked, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return PizzaView{}, err
	}
	return s.view(restocked), nil
}

func (s *pizzaService) DeletePizza(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		pizza, err := s.load(tx, id)
		if err != nil {
			return err
		}
		var ordered int64
		if err := tx.Model(&models.OrderPizzaLine{}).Where("pizza_id = ?", id).Count(&ordered).Error; err != nil {
			return err
		}
		if ordered > 0 {
			return stateConflict("pizza %d appears in %d order lines", id, ordered)
		}
		if err := tx.Model(&pizza).Association("Ingredients").Clear(); err != nil {
			return err
		}
		return tx.Delete(&pizza).Error
	})
}

// sameIngredients compares two ingredient lists as sets of ids
func sameIngredients(current, next []models.Ingredient) bool {
	if len(current) != len(next) {
		return false
	}
	ids := make(map[uint]struct{}, len(current))
	for _, ingredient := range current {
		ids[ingredient.ID] = struct{}{}
	}
	for _, ingredient := range next {
		if _, ok := ids[ingredient.ID]; !ok {
			return false
		}
	}
	return true
}

// dedupe keeps the first occurrence of every id
func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
