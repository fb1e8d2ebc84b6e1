package supplier

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/restomarket/restomarket/gateway"
	"github.com/restomarket/restomarket/models"
	"github.com/restomarket/restomarket/store"
)

// MyRestaurants lists the restaurants visible to the authenticated supplier:
// every confirmed, non-paused linkage joined to company display data. The
// response is always a JSON array, empty included.
func (s *Service) MyRestaurants(c *gin.Context) {
	supplierID := gateway.CompanyIDFromCtx(c)
	if supplierID == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "principal has no company", "code": "forbidden"})
		return
	}
	views, err := s.Store.VisibleRestaurants(c.Request.Context(), supplierID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "database_error"})
		return
	}
	if views == nil {
		views = []models.RestaurantView{}
	}
	for i := range views {
		if views[i].Name == "" {
			views[i].Name = NameUnavailable
		}
	}
	c.JSON(http.StatusOK, views)
}

// AcceptLink drives the linkage with the given restaurant to the accepted
// state through the same filter-based upsert the admin scripts use.
func (s *Service) AcceptLink(c *gin.Context) {
	supplierID := gateway.CompanyIDFromCtx(c)
	restaurantID := c.Param("restaurantId")
	if supplierID == "" || restaurantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing company id", "code": "bad_request"})
		return
	}
	linkage, created, err := s.Store.UpsertLinkage(c.Request.Context(), supplierID, restaurantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "database_error"})
		return
	}
	s.Logger.WithFields(map[string]interface{}{
		"supplier_id":   supplierID,
		"restaurant_id": restaurantID,
		"created":       created,
	}).Info("linkage accepted")
	c.JSON(http.StatusOK, gin.H{"result": linkage, "created": created})
}

// PauseLink pauses or resumes an existing linkage. Unknown pairs 404.
func (s *Service) PauseLink(c *gin.Context) {
	supplierID := gateway.CompanyIDFromCtx(c)
	restaurantID := c.Param("restaurantId")
	paused := c.Query("resume") == ""
	if err := s.Store.PauseLinkage(c.Request.Context(), supplierID, restaurantID, paused); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "no linkage with this restaurant", "code": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "database_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "ok", "paused": paused})
}
