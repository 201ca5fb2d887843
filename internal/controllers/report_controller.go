package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
)

type ReportController struct {
	reportService services.ReportService
}

func NewReportController(reportService services.ReportService) *ReportController {
	return &ReportController{reportService: reportService}
}

// EarningsByGender godoc
// @Summary Earnings of customers of one gender
// @Tags reports
// @Produce json
// @Param gender query string true "Gender"
// @Success 200 {object} services.EarningsReport
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/reports/earnings/gender [get]
func (rc *ReportController) EarningsByGender(c *gin.Context) {
	report, err := rc.reportService.EarningsByGender(c.Query("gender"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// EarningsByAgeGroup godoc
// @Summary Earnings of customers in an age range
// @Tags reports
// @Produce json
// @Param min_age query int true "Minimum age, inclusive"
// @Param max_age query int true "Maximum age, inclusive"
// @Success 200 {object} services.EarningsReport
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/reports/earnings/age-group [get]
func (rc *ReportController) EarningsByAgeGroup(c *gin.Context) {
	minAge, err := strconv.Atoi(c.Query("min_age"))
	if err != nil {
		badRequest(c, "min_age must be an integer")
		return
	}
	maxAge, err := strconv.Atoi(c.Query("max_age"))
	if err != nil {
		badRequest(c, "max_age must be an integer")
		return
	}
	report, err := rc.reportService.EarningsByAgeGroup(minAge, maxAge)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// EarningsByPostalCode godoc
// @Summary Earnings for one delivery postal code
// @Tags reports
// @Produce json
// @Param postal_code query string true "Postal code"
// @Success 200 {object} services.EarningsReport
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/reports/earnings/postal-code [get]
func (rc *ReportController) EarningsByPostalCode(c *gin.Context) {
	report, err := rc.reportService.EarningsByPostalCode(c.Query("postal_code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// TopPizzas godoc
// @Summary Best selling pizzas of the last 30 days
// @Tags reports
// @Produce json
// @Success 200 {array} services.TopPizza
// @Security BearerAuth
// @Router /api/v1/protected/staff/reports/top-pizzas [get]
func (rc *ReportController) TopPizzas(c *gin.Context) {
	top, err := rc.reportService.TopPizzas()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}

// UndeliveredOrders godoc
// @Summary Orders not delivered yet
// @Tags reports
// @Produce json
// @Param placed_by query string false "customers (default) or staff"
// @Success 200 {array} models.Order
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/reports/undelivered [get]
func (rc *ReportController) UndeliveredOrders(c *gin.Context) {
	var staff bool
	switch c.DefaultQuery("placed_by", "customers") {
	case "customers":
	case "staff":
		staff = true
	default:
		badRequest(c, "placed_by must be customers or staff")
		return
	}
	orders, err := rc.reportService.UndeliveredOrders(staff)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
