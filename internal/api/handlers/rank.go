package handlers

import (
	"net/http"

	"neighborgrid/internal/analysis"
	"neighborgrid/internal/api/models"
	"neighborgrid/internal/data"

	"github.com/gin-gonic/gin"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	store *data.RunStore
}

// NewRankHandler creates a new rank handler
func NewRankHandler(store *data.RunStore) *RankHandler {
	return &RankHandler{store: store}
}

// RankHomes handles GET /api/v1/runs/:id/rank
func (h *RankHandler) RankHomes(c *gin.Context) {
	run, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondRunError(c, err)
		return
	}

	ranked := analysis.RankHomes(run.Records)
	rankings := make([]models.Ranking, 0, len(ranked))
	for _, r := range ranked {
		rankings = append(rankings, models.Ranking{
			Rank:               r.Rank,
			HomeID:             r.HomeID,
			FinalCreditsKWh:    r.FinalCreditsKWh,
			SelfSufficiencyPct: r.SelfSufficiencyPct,
			TotalToPoolKWh:     r.TotalToPoolKWh,
			TotalFromPoolKWh:   r.TotalFromPoolKWh,
			TotalGridImportKWh: r.TotalGridImportKWh,
		})
	}
	c.JSON(http.StatusOK, models.RankResponse{ID: run.ID, Rankings: rankings})
}
