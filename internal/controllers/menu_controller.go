package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
)

type MenuController struct {
	menuService services.MenuService
}

func NewMenuController(menuService services.MenuService) *MenuController {
	return &MenuController{menuService: menuService}
}

// ListIngredients godoc
// @Summary List ingredients
// @Tags menu
// @Produce json
// @Success 200 {array} models.Ingredient
// @Router /api/v1/public/ingredients [get]
func (mc *MenuController) ListIngredients(c *gin.Context) {
	ingredients, err := mc.menuService.ListIngredients()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// CreateIngredient godoc
// @Summary Create an ingredient
// @Tags menu
// @Accept json
// @Produce json
// @Param ingredient body services.IngredientInput true "Ingredient"
// @Success 201 {object} models.Ingredient
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/ingredients [post]
func (mc *MenuController) CreateIngredient(c *gin.Context) {
	var input services.IngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ingredient, err := mc.menuService.CreateIngredient(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}

// UpdateIngredient godoc
// @Summary Update an ingredient
// @Description The price of an ingredient used by a pizza cannot change
// @Tags menu
// @Accept json
// @Produce json
// @Param id path int true "Ingredient ID"
// @Param ingredient body services.IngredientInput true "Ingredient"
// @Success 200 {object} models.Ingredient
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/ingredients/{id} [put]
func (mc *MenuController) UpdateIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.IngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ingredient, err := mc.menuService.UpdateIngredient(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

// ListExtras godoc
// @Summary List extras
// @Tags menu
// @Produce json
// @Param type query string false "Drink or Dessert"
// @Success 200 {array} models.Extra
// @Failure 400 {object} models.APIError
// @Router /api/v1/public/extras [get]
func (mc *MenuController) ListExtras(c *gin.Context) {
	extras, err := mc.menuService.ListExtras(models.ExtraType(c.Query("type")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, extras)
}

// CreateExtra godoc
// @Summary Create an extra
// @Tags menu
// @Accept json
// @Produce json
// @Param extra body services.ExtraInput true "Extra"
// @Success 201 {object} models.Extra
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/extras [post]
func (mc *MenuController) CreateExtra(c *gin.Context) {
	var input services.ExtraInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	extra, err := mc.menuService.CreateExtra(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, extra)
}

// UpdateExtra godoc
// @Summary Update an extra
// @Tags menu
// @Accept json
// @Produce json
// @Param id path int true "Extra ID"
// @Param extra body services.ExtraInput true "Extra"
// @Success 200 {object} models.Extra
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/extras/{id} [put]
func (mc *MenuController) UpdateExtra(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.ExtraInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	extra, err := mc.menuService.UpdateExtra(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, extra)
}
