package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	reviewsapp "staybook/internal/app/handlers/reviews"
	"staybook/internal/app/queries"
)

type ReviewsHTTP interface {
	Submit(c *gin.Context)
	Update(c *gin.Context)
	ListByListing(c *gin.Context)
}

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type reviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reviews: commands unavailable"})
		return
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking id is required"})
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := reviewsapp.SubmitReviewCommand{
		BookingID: bookingID,
		AuthorID:  user.ID,
		Rating:    req.Rating,
		Text:      req.Text,
		Now:       time.Now().UTC(),
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, "review submit failed", err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) Update(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reviews: commands unavailable"})
		return
	}
	reviewID := c.Param("id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "review id is required"})
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := reviewsapp.UpdateReviewCommand{
		ReviewID: reviewID,
		AuthorID: user.ID,
		Rating:   req.Rating,
		Text:     req.Text,
		Now:      time.Now().UTC(),
	}
	review, err := commands.Dispatch[reviewsapp.UpdateReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, "review update failed", err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h ReviewsHandler) ListByListing(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reviews: queries unavailable"})
		return
	}
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}

	query := reviewsapp.ListListingReviewsQuery{
		ListingID: listingID,
		Limit:     parsePositiveInt(c.Query("limit"), 20),
		Offset:    parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[reviewsapp.ListListingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, "review list failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) fail(c *gin.Context, msg string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error(msg, "error", err, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

var _ ReviewsHTTP = ReviewsHandler{}
