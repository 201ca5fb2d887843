package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CreateClientRequest struct {
	Name string `json:"name" binding:"required"`
}

// ClientController lets staff manage the client-credentials clients that
// act on their behalf
type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

// CreateClient godoc
// @Summary Register an API client
// @Description The client secret is only returned once
// @Tags clients
// @Accept json
// @Produce json
// @Param client body CreateClientRequest true "Client"
// @Success 201 {object} services.IssuedClient
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	var request CreateClientRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err.Error())
		return
	}
	issued, err := cc.clientService.CreateClient(caller.ID, request.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"client_id": issued.Client.ID, "user_id": caller.ID}).Info("OAuth client created")
	c.JSON(http.StatusCreated, issued)
}

// ListClients godoc
// @Summary List my API clients
// @Tags clients
// @Produce json
// @Success 200 {array} models.OAuthClient
// @Security BearerAuth
// @Router /api/v1/protected/staff/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	clients, err := cc.clientService.GetClientsByUserID(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// DeleteClient godoc
// @Summary Delete one of my API clients
// @Tags clients
// @Param id path string true "Client ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	if err := cc.clientService.DeleteClient(c.Param("id"), caller.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
