// Package rest exposes the read API over the last committed snapshot.
// It never touches the pipeline's in-flight state: requests are answered
// from the snapshot store only, so the API can serve while a run executes.
package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/pverdier/patrimoine-backend/internal/domain"
)

// Handler serves the daily-total series.
type Handler struct {
	Snapshots domain.SnapshotStore
}

// NewHandler creates a new read API handler
func NewHandler(snapshots domain.SnapshotStore) *Handler {
	return &Handler{Snapshots: snapshots}
}

// dailyTotalResponse is the wire shape of one daily total.
type dailyTotalResponse struct {
	Date        string          `json:"date"`
	MarketValue decimal.Decimal `json:"market_value"`
	Invested    decimal.Decimal `json:"invested"`
}

func toResponse(total domain.DailyTotal) dailyTotalResponse {
	return dailyTotalResponse{
		Date:        total.Date.Format(domain.DateFormat),
		MarketValue: total.MarketValue,
		Invested:    total.Invested,
	}
}

// GetDailyTotals handles GET /api/valeurmarche
func (h *Handler) GetDailyTotals(c *gin.Context) {
	totals, err := h.Snapshots.ReadTotals()
	if err != nil {
		respondSnapshotError(c, err)
		return
	}

	response := make([]dailyTotalResponse, 0, len(totals))
	for _, total := range totals {
		response = append(response, toResponse(total))
	}
	c.JSON(http.StatusOK, response)
}

// GetLatestDailyTotal handles GET /api/valeurmarche/last
func (h *Handler) GetLatestDailyTotal(c *gin.Context) {
	totals, err := h.Snapshots.ReadTotals()
	if err != nil {
		respondSnapshotError(c, err)
		return
	}
	if len(totals) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NO_DATA",
				"message": "snapshot contains no daily totals yet",
			},
		})
		return
	}

	c.JSON(http.StatusOK, toResponse(totals[len(totals)-1]))
}

func respondSnapshotError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrSnapshotMissing) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"code":    "SNAPSHOT_MISSING",
				"message": "no pipeline run has completed yet",
			},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "SNAPSHOT_UNREADABLE",
			"message": err.Error(),
		},
	})
}
