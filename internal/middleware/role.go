package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireKind is a middleware that checks the caller's user kind against
// the allowed ones. It must run after Authenticate.
func RequireKind(allowed ...models.UserKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := CurrentUserID(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "user not authenticated"))
			return
		}

		kind, exists := CurrentUserKind(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "user kind not found in token"))
			return
		}

		for _, candidate := range allowed {
			if kind == candidate {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(
			models.ErrForbidden, "insufficient permissions",
			map[string]interface{}{
				"required_kind": allowed,
				"user_kind":     kind,
				"user_id":       userID,
			},
		))
	}
}

// RequireStaff lets employees and delivery persons through
func RequireStaff() gin.HandlerFunc {
	return RequireKind(models.KindEmployee, models.KindDeliveryPerson)
}
