package api

import (
	"net/http"

	reqdto "stayfinder/internal/handler/dto/request"
	resdto "stayfinder/internal/handler/dto/response"
	"stayfinder/internal/pkg/errs"
	"stayfinder/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// @Summary Check availability
// @Description Advisory overlap check for a listing and date range. A listing
// reported available can still be lost to a concurrent booking.
// @Tags availability
// @Produce json
// @Param id path string true "Listing ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Router /listings/{id}/availability [get]
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid listing ID format",
		})
		return
	}

	var req reqdto.AvailabilityRequest
	if bindErr := c.ShouldBindQuery(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "check_in and check_out are required",
		})
		return
	}

	checkIn, checkOut, err := req.Parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	view, err := h.availability.Check(c.Request.Context(), listingID, checkIn, checkOut)
	if err != nil {
		switch {
		case errs.Is(err, queries.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid date range",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityView(view))
}
