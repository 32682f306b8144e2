package handlers

import (
	"net/http"

	"neighborgrid/internal/api/models"
	"neighborgrid/internal/data"
	"neighborgrid/internal/model"

	"github.com/gin-gonic/gin"
)

// HomeHandler lists the configured community roster
type HomeHandler struct {
	homes []model.Home
}

// NewHomeHandler creates a new home handler. An empty roster lists the
// built-in default community.
func NewHomeHandler(homes []model.Home) *HomeHandler {
	if len(homes) == 0 {
		homes = data.DefaultCommunity()
	}
	return &HomeHandler{homes: homes}
}

// ListHomes handles GET /api/v1/homes
func (h *HomeHandler) ListHomes(c *gin.Context) {
	homes := make([]models.HomeInfo, 0, len(h.homes))
	for _, home := range h.homes {
		homes = append(homes, models.HomeInfo{
			ID:             home.ID,
			SolarKW:        home.SolarKW,
			BatteryKWh:     home.BatteryKWh,
			LoadBaseKWh:    home.LoadBaseKWh,
			LoadPeakKWh:    home.LoadPeakKWh,
			Orientation:    home.Orientation(),
			LoadShiftHours: home.LoadShiftHours,
			InitialSOC:     home.InitialSOC,
			IsNetConsumer:  home.IsNetConsumer,
		})
	}
	c.JSON(http.StatusOK, gin.H{"homes": homes})
}
