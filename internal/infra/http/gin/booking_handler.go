package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID       string `json:"listing_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, ok := parseFlexibleTime(req.CheckIn)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be a valid date"})
		return
	}
	checkOut, ok := parseFlexibleTime(req.CheckOut)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be a valid date"})
		return
	}

	cmd := bookingapp.CreateBookingCommand{
		CommandID:       uuid.NewString(),
		ListingID:       req.ListingID,
		GuestID:         user.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, "booking create failed", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// UpdateStatus drives host confirmations and guest or host cancellations.
// The target state comes from the body; whether the caller may apply it is
// decided in the command handler, not here.
func (h BookingHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := bookingapp.UpdateStatusCommand{
		BookingID: c.Param("id"),
		ActorID:   user.ID,
		Requested: req.Status,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.UpdateStatusCommand, *bookingapp.UpdateStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, "booking status update failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices a stay without creating anything. Open to anonymous callers
// so the catalog can show totals before login.
func (h BookingHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	checkIn, ok := parseFlexibleTime(c.Query("check_in"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be a valid date"})
		return
	}
	checkOut, ok := parseFlexibleTime(c.Query("check_out"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be a valid date"})
		return
	}

	query := bookingapp.QuotePriceQuery{
		ListingID: c.Param("id"),
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	}
	result, err := queries.Ask[bookingapp.QuotePriceQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, "quote failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) fail(c *gin.Context, msg string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error(msg, "error", err, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ BookingHTTP = BookingHandler{}
