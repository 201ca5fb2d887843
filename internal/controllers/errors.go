package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/pizza-order-api/internal/middleware"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError translates the service error taxonomy into an HTTP status
// and a models.APIError body. Unexpected errors are logged with the request
// context and reported without detail.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, models.ErrInternalServer
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, models.ErrNotFound
	case errors.Is(err, services.ErrInvalidInput):
		status, code = http.StatusBadRequest, models.ErrValidationFailed
	case errors.Is(err, services.ErrInsufficientStock):
		status, code = http.StatusBadRequest, models.ErrInsufficientStock
	case errors.Is(err, services.ErrInvalidDiscount):
		status, code = http.StatusBadRequest, models.ErrInvalidDiscount
	case errors.Is(err, services.ErrStateConflict):
		status, code = http.StatusConflict, models.ErrStateConflict
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusConflict, models.ErrConflict
	case errors.Is(err, services.ErrUnauthorized):
		status, code = http.StatusUnauthorized, models.ErrUnauthorized
	}

	if status == http.StatusInternalServerError {
		userID, _ := middleware.CurrentUserID(c)
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"user_id": userID,
		}).Error("Request failed")
		c.AbortWithStatusJSON(status, models.NewAPIError(code, "internal server error"))
		return
	}
	c.AbortWithStatusJSON(status, models.NewAPIError(code, err.Error()))
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, message))
}

// idParam reads a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated caller as a minimal user carrying
// only the id and kind from the token
func currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "user not authenticated"))
		return nil, false
	}
	kind, _ := middleware.CurrentUserKind(c)
	return &models.User{ID: userID, Kind: kind}, true
}
