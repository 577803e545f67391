package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/repository"
)

// ReportHandler serves the executive ride summary.  Mounted behind
// RequireRole(EXECUTIVE, ADMIN, DEVELOPER) and the Redis response
// cache.
type ReportHandler struct {
	Rides repository.RideRepository
}

func NewReportHandler(rides repository.RideRepository) *ReportHandler {
	return &ReportHandler{Rides: rides}
}

// RideSummary aggregates ride counts by status.
func (h *ReportHandler) RideSummary(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	summary, err := h.Rides.Summary(ctx)
	if err != nil {
		return internalError(c, "ride summary", err)
	}

	byStatus := map[string]int64{}
	var total int64
	for status, count := range summary {
		byStatus[string(status)] = count
		total += count
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total":       total,
		"byStatus":    byStatus,
		"generatedAt": time.Now().UTC(),
	})
}
