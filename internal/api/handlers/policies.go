package handlers

import (
	"net/http"

	"neighborgrid/internal/api/models"
	"neighborgrid/internal/dispatch"

	"github.com/gin-gonic/gin"
)

// ListPolicies handles GET /api/v1/policies
func ListPolicies(c *gin.Context) {
	known := dispatch.Policies()
	policies := make([]models.PolicyInfo, 0, len(known))
	for _, p := range known {
		policies = append(policies, models.PolicyInfo{
			Name:        p.Name,
			Description: p.Description,
			Implemented: p.Implemented,
		})
	}
	c.JSON(http.StatusOK, gin.H{"policies": policies})
}
