package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
)

type HostBookingHTTP interface {
	List(c *gin.Context)
}

// HostBookingHandler serves the host inbox: requests waiting for a decision
// by default, any state via ?status=.
type HostBookingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h HostBookingHandler) List(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListHostBookingsQuery{
		HostID: principal.ID,
		Status: c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.HostBookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError && h.Logger != nil {
			h.Logger.Error("host bookings query failed", "error", err, "host_id", principal.ID)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostBookingHTTP = HostBookingHandler{}
