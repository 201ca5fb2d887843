package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder godoc
// @Summary Place an order
// @Description Takes stock, assigns a delivery person, applies an optional discount code and accrues loyalty points in one transaction
// @Tags orders
// @Accept json
// @Produce json
// @Param order body services.CreateOrderInput true "Order"
// @Success 201 {object} services.OrderConfirmation
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/orders [post]
func (oc *OrderController) CreateOrder(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	confirmation, err := oc.orderService.CreateOrder(c.Request.Context(), caller.ID, input)
	if err != nil {
		logrus.WithError(err).WithField("user_id", caller.ID).Debug("Order rejected")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, confirmation)
}

// ListOrders godoc
// @Summary List my orders
// @Tags orders
// @Produce json
// @Success 200 {array} services.OrderDetails
// @Security BearerAuth
// @Router /api/v1/protected/orders [get]
func (oc *OrderController) ListOrders(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := oc.orderService.ListOrdersForUser(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder godoc
// @Summary Get an order
// @Description Customers can only see their own orders
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} services.OrderDetails
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/orders/{id} [get]
func (oc *OrderController) GetOrder(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := oc.orderService.GetOrder(orderID, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder godoc
// @Summary Update an order
// @Description Partial update. Status follows Pending -> In Progress -> Delivered, with Cancelled reachable from both open states.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param order body services.UpdateOrderInput true "Fields to change"
// @Success 200 {object} services.OrderDetails
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/orders/{id} [patch]
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, err := oc.orderService.UpdateOrder(c.Request.Context(), orderID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AssignDeliveryPerson godoc
// @Summary Assign a delivery person
// @Description Picks the first Available delivery person for an In Progress order. Returns assigned=false when nobody is available.
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/orders/{id}/assign [post]
func (oc *OrderController) AssignDeliveryPerson(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	courier, err := oc.orderService.AssignDeliveryPerson(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if courier == nil {
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "assigned": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":        orderID,
		"assigned":        true,
		"delivery_person": services.Courier{ID: courier.ID, Username: courier.Username, Phone: courier.Phone},
	})
}
