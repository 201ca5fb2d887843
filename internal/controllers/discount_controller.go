package controllers

import (
	"net/http"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DiscountCodeView is what anyone holding a code may learn about it
type DiscountCodeView struct {
	Code        string          `json:"code"`
	Type        string          `json:"type" example:"percentage"`
	Percentage  decimal.Decimal `json:"percentage" swaggertype:"number"`
	Description string          `json:"description"`
	ValidUntil  time.Time       `json:"valid_until"`
	Usable      bool            `json:"usable"`
}

func newDiscountCodeView(code *models.DiscountCode, now time.Time) DiscountCodeView {
	description := code.Percentage.StringFixed(0) + "% off the order"
	if code.IsBirthday() {
		description = "cheapest pizza and cheapest drink free"
	}
	return DiscountCodeView{
		Code:        code.Code,
		Type:        code.Kind(),
		Percentage:  code.Percentage,
		Description: description,
		ValidUntil:  code.ValidUntil,
		Usable:      code.UsableAt(now),
	}
}

type LoyaltyRequest struct {
	Points int `json:"points" binding:"required,gt=0"`
}

type DiscountController struct {
	discountService services.DiscountService
	now             func() time.Time
}

func NewDiscountController(discountService services.DiscountService) *DiscountController {
	return &DiscountController{discountService: discountService, now: time.Now}
}

// GetCode godoc
// @Summary Look up a discount code
// @Tags discounts
// @Produce json
// @Param code path string true "Discount code"
// @Success 200 {object} DiscountCodeView
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/discounts/{code} [get]
func (dc *DiscountController) GetCode(c *gin.Context) {
	code, err := dc.discountService.GetCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDiscountCodeView(code, dc.now()))
}

// CreateCode godoc
// @Summary Create a discount code
// @Description A zero percentage creates a birthday code
// @Tags discounts
// @Accept json
// @Produce json
// @Param discount body services.DiscountInput true "Discount"
// @Success 201 {object} models.DiscountCode
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/discounts [post]
func (dc *DiscountController) CreateCode(c *gin.Context) {
	var input services.DiscountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	code, err := dc.discountService.CreateCode(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

// BirthdaySweep godoc
// @Summary Issue today's birthday codes
// @Tags discounts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/protected/staff/discounts/birthday-sweep [post]
func (dc *DiscountController) BirthdaySweep(c *gin.Context) {
	codes, err := dc.discountService.IssueBirthdayCodes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	logrus.WithField("issued", len(codes)).Info("Birthday sweep finished")
	c.JSON(http.StatusOK, gin.H{"issued": len(codes), "codes": codes})
}

// AddLoyaltyPoints godoc
// @Summary Credit loyalty points to a customer
// @Tags discounts
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param points body LoyaltyRequest true "Points"
// @Success 200 {object} services.LoyaltyResult
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/customers/{id}/loyalty [post]
func (dc *DiscountController) AddLoyaltyPoints(c *gin.Context) {
	customerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var request LoyaltyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := dc.discountService.AddLoyaltyPoints(c.Request.Context(), customerID, request.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
