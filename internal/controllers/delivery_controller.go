package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DeliveryStatusRequest struct {
	Status models.DeliveryStatus `json:"status" binding:"required" example:"Available"`
}

type DeliveryController struct {
	deliveryService services.DeliveryService
}

func NewDeliveryController(deliveryService services.DeliveryService) *DeliveryController {
	return &DeliveryController{deliveryService: deliveryService}
}

func couriers(users []models.User) []services.Courier {
	views := make([]services.Courier, 0, len(users))
	for _, user := range users {
		views = append(views, services.Courier{ID: user.ID, Username: user.Username, Phone: user.Phone})
	}
	return views
}

// ListAvailable godoc
// @Summary List available delivery persons
// @Tags delivery
// @Produce json
// @Success 200 {array} services.Courier
// @Router /api/v1/public/delivery/persons/available [get]
func (dc *DeliveryController) ListAvailable(c *gin.Context) {
	users, err := dc.deliveryService.ListAvailable()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, couriers(users))
}

// Random godoc
// @Summary Pick a random delivery person
// @Tags delivery
// @Produce json
// @Success 200 {object} services.Courier
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/delivery/persons/random [get]
func (dc *DeliveryController) Random(c *gin.Context) {
	user, err := dc.deliveryService.RandomDeliveryPerson()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Courier{ID: user.ID, Username: user.Username, Phone: user.Phone})
}

// SetStatus godoc
// @Summary Set my delivery status
// @Description Available or Off Duty. On Delivery is only set by assignment.
// @Tags delivery
// @Accept json
// @Produce json
// @Param status body DeliveryStatusRequest true "New status"
// @Success 200 {object} UserResponse
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/delivery/status [put]
func (dc *DeliveryController) SetStatus(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	var request DeliveryStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := dc.deliveryService.SetStatus(caller.ID, request.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "status": user.Delivery.Status}).Info("Delivery status changed")
	c.JSON(http.StatusOK, NewUserResponse(user))
}

// AssignedOrders godoc
// @Summary List orders assigned to me
// @Tags delivery
// @Produce json
// @Success 200 {array} models.Order
// @Security BearerAuth
// @Router /api/v1/protected/delivery/orders [get]
func (dc *DeliveryController) AssignedOrders(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := dc.deliveryService.AssignedOrders(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
