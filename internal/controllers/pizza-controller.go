package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
)

// PizzaController handles HTTP requests related to pizzas
type PizzaController interface {
	// GetAllPizzas retrieves the menu
	GetAllPizzas(c *gin.Context)
	// GetPizzasPage retrieves one page of the menu
	GetPizzasPage(c *gin.Context)
	// GetPizzaByID retrieves a pizza by its ID
	GetPizzaByID(c *gin.Context)
	GetPizzaPrice(c *gin.Context)
	GetPizzaIngredients(c *gin.Context)
	// CreatePizza creates a new pizza
	CreatePizza(c *gin.Context)
	// UpdatePizza updates an existing pizza
	UpdatePizza(c *gin.Context)
	RestockPizza(c *gin.Context)
	// DeletePizza deletes a pizza by its ID
	DeletePizza(c *gin.Context)
}

type controller struct {
	service services.PizzaService
}

// NewPizzaController creates a new instance of PizzaController
func NewPizzaController(service services.PizzaService) PizzaController {
	return &controller{service: service}
}

// GetAllPizzas godoc
// @Summary Get all pizzas
// @Description Get the menu with derived prices and dietary types
// @Tags pizzas
// @Accept json
// @Produce json
// @Param diet query string false "Dietary filter: vegan or vegetarian (vegetarian includes vegan)"
// @Param in_stock query bool false "Only pizzas with stock left"
// @Success 200 {array} services.PizzaView
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Router /api/v1/public/pizzas [get]
func (c *controller) GetAllPizzas(ctx *gin.Context) {
	var filter services.PizzaFilter
	if diet := ctx.Query("diet"); diet != "" {
		parsed, ok := models.ParseDietaryType(diet)
		if !ok {
			badRequest(ctx, "diet must be vegan or vegetarian")
			return
		}
		filter.Diet = parsed
	}
	if inStock := ctx.Query("in_stock"); inStock != "" {
		parsed, err := strconv.ParseBool(inStock)
		if err != nil {
			badRequest(ctx, "in_stock must be true or false")
			return
		}
		filter.InStockOnly = parsed
	}

	pizzas, err := c.service.GetAllPizzas(filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pizzas)
}

// GetPizzasPage godoc
// @Summary Get pizzas page by page
// @Description Get one page of the menu ordered by id
// @Tags pizzas
// @Produce json
// @Param page query int false "Page number, starting at 1" default(1)
// @Param page_size query int false "Items per page, at most 100" default(10)
// @Success 200 {object} services.PizzaPage
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/pizzas [get]
func (c *controller) GetPizzasPage(ctx *gin.Context) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(ctx, "page must be a number")
		return
	}
	pageSize, err := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(services.DefaultPageSize)))
	if err != nil {
		badRequest(ctx, "page_size must be a number")
		return
	}

	result, err := c.service.GetPizzasPage(page, pageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetPizzaByID godoc
// @Summary Get pizza by ID
// @Description Get a single pizza by its ID
// @Tags pizzas
// @Accept json
// @Produce json
// @Param id path int true "Pizza ID"
// @Success 200 {object} services.PizzaView
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/pizzas/{id} [get]
func (c *controller) GetPizzaByID(ctx *gin.Context) {
	pizzaID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	pizza, err := c.service.GetPizzaByID(pizzaID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pizza)
}

// GetPizzaPrice godoc
// @Summary Get pizza price
// @Description Ingredient cost plus 40% margin plus 9% VAT, rounded to cents
// @Tags pizzas
// @Produce json
// @Param id path int true "Pizza ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/pizzas/{id}/price [get]
func (c *controller) GetPizzaPrice(ctx *gin.Context) {
	pizzaID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	price, err := c.service.GetPizzaPrice(pizzaID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"pizza_id": pizzaID, "price": price})
}

// GetPizzaIngredients godoc
// @Summary Get pizza ingredients
// @Tags pizzas
// @Produce json
// @Param id path int true "Pizza ID"
// @Success 200 {array} models.Ingredient
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/pizzas/{id}/ingredients [get]
func (c *controller) GetPizzaIngredients(ctx *gin.Context) {
	pizzaID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	ingredients, err := c.service.GetPizzaIngredients(pizzaID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ingredients)
}

// CreatePizza godoc
// @Summary Create a new pizza
// @Description Create a new pizza from existing ingredients
// @Tags pizzas
// @Accept json
// @Produce json
// @Param pizza body services.PizzaInput true "Pizza"
// @Success 201 {object} services.PizzaView
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/pizzas [post]
func (c *controller) CreatePizza(ctx *gin.Context) {
	var input services.PizzaInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	created, err := c.service.CreatePizza(input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// UpdatePizza godoc
// @Summary Update a pizza
// @Description Replace name, description, ingredients and stock of a pizza
// @Tags pizzas
// @Accept json
// @Produce json
// @Param id path int true "Pizza ID"
// @Param pizza body services.PizzaInput true "Pizza"
// @Success 200 {object} services.PizzaView
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/pizzas/{id} [put]
func (c *controller) UpdatePizza(ctx *gin.Context) {
	pizzaID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var input services.PizzaInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	updated, err := c.service.UpdatePizza(pizzaID, input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// RestockPizza godoc
// @Summary Restock a pizza
// @Tags pizzas
// @Accept json
// @Produce json
// @Param id path int true "Pizza ID"
// @Param restock body object{quantity=int} true "Units to add"
// @Success 200 {object} services.PizzaView
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/pizzas/{id}/restock [post]
func (c *controller) RestockPizza(ctx *gin.Context) {
	pizzaID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	pizza, err := c.service.Restock(pizzaID, req.Quantity)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pizza)
}

// DeletePizza godoc
// @Summary Delete a pizza
// @Description Delete a pizza that no order references
// @Tags pizzas
// @Produce json
// @Param id path int true "Pizza ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/pizzas/{id} [delete]
func (c *controller) DeletePizza(ctx *gin.Context) {
	pizzaID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeletePizza(pizzaID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
