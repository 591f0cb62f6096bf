package ginserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/queries"
	domainlistings "staybook/internal/domain/listings"
)

const maxListingPhotoSizeBytes int64 = 10 * 1024 * 1024

type HostListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h HostListingHandler) List(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}

	limit := parseIntWithDefault(c.Query("limit"), 20)
	page := parseIntWithDefault(c.Query("page"), 1)
	offset := parseInt(c.Query("offset"))
	if offset == 0 && page > 1 {
		offset = (page - 1) * limit
	}

	query := listingapp.ListHostListingsQuery{
		HostID: principal.ID,
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
	result, err := queries.Ask[listingapp.ListHostListingsQuery, dto.HostListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Create(c *gin.Context) {
	// any authenticated user may create a listing; the first one grants
	// the host role
	principal, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	var req hostListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}

	cmd := listingapp.CreateHostListingCommand{HostID: principal.ID, Payload: buildHostListingPayload(req)}
	result, err := commands.Dispatch[listingapp.CreateHostListingCommand, *dto.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/host/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h HostListingHandler) Get(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}

	query := listingapp.GetHostListingQuery{
		HostID:    principal.ID,
		ListingID: c.Param("id"),
	}
	result, err := queries.Ask[listingapp.GetHostListingQuery, dto.HostListingDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Update(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	var req hostListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}

	cmd := listingapp.UpdateHostListingCommand{
		HostID:    principal.ID,
		ListingID: c.Param("id"),
		Payload:   buildHostListingPayload(req),
	}
	result, err := commands.Dispatch[listingapp.UpdateHostListingCommand, *dto.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Publish(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	cmd := listingapp.PublishHostListingCommand{
		HostID:    principal.ID,
		ListingID: c.Param("id"),
	}
	result, err := commands.Dispatch[listingapp.PublishHostListingCommand, *dto.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Unpublish(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	cmd := listingapp.UnpublishHostListingCommand{
		HostID:    principal.ID,
		ListingID: c.Param("id"),
	}
	result, err := commands.Dispatch[listingapp.UnpublishHostListingCommand, *dto.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) UploadPhoto(c *gin.Context) {
	principal, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		h.respondWithError(c, http.StatusBadRequest, errors.New("listing id is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	if fileHeader.Size <= 0 {
		h.respondWithError(c, http.StatusBadRequest, errors.New("file is empty"))
		return
	}
	if fileHeader.Size > maxListingPhotoSizeBytes {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("file too large (max %d MB)", maxListingPhotoSizeBytes/1024/1024))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxListingPhotoSizeBytes+1024))
	if err != nil {
		h.respondWithError(c, http.StatusInternalServerError, fmt.Errorf("cannot read file: %w", err))
		return
	}
	if len(data) == 0 {
		h.respondWithError(c, http.StatusBadRequest, errors.New("file is empty"))
		return
	}
	if int64(len(data)) > maxListingPhotoSizeBytes {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("file too large (max %d MB)", maxListingPhotoSizeBytes/1024/1024))
		return
	}

	contentType := http.DetectContentType(data)
	if !isAllowedImageType(contentType) {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("unsupported content type: %s", contentType))
		return
	}

	objectKey := buildPhotoObjectKey(listingID, fileHeader.Filename, contentType)
	cmd := listingapp.UploadHostListingPhotoCommand{
		HostID:      principal.ID,
		ListingID:   listingID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Reader:      bytes.NewReader(data),
	}
	result, err := commands.Dispatch[listingapp.UploadHostListingPhotoCommand, *dto.HostListingPhotoUploadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h HostListingHandler) handleError(c *gin.Context, err error) {
	if isListingValidationError(err) {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	h.respondWithError(c, statusForError(err), err)
}

func (h HostListingHandler) respondWithError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError && h.Logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath()}
		if host, ok := currentPrincipal(c); ok {
			fields = append(fields, "host_id", host.ID)
		}
		h.Logger.Error("host listing request failed", fields...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func isAllowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}

func extensionForContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func buildPhotoObjectKey(listingID, filename, contentType string) string {
	ext := extensionForContentType(contentType)
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	if ext == "" {
		ext = ".img"
	}
	return fmt.Sprintf("listings/%s/%s%s", sanitizePathToken(listingID), uuid.NewString(), ext)
}

func sanitizePathToken(value string) string {
	if strings.TrimSpace(value) == "" {
		return "listing"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	result := strings.Trim(b.String(), "-")
	if result == "" {
		return "listing"
	}
	return result
}

func buildHostListingPayload(req hostListingRequest) listingapp.HostListingPayload {
	address := domainlistings.Address{
		Line1:   strings.TrimSpace(req.Address.Line1),
		City:    strings.TrimSpace(req.Address.City),
		Region:  strings.TrimSpace(req.Address.Region),
		Country: strings.TrimSpace(req.Address.Country),
		Lat:     req.Address.Lat,
		Lon:     req.Address.Lon,
	}
	return listingapp.HostListingPayload{
		Title:            req.Title,
		Description:      req.Description,
		PropertyType:     strings.TrimSpace(req.PropertyType),
		Address:          address,
		Amenities:        cleanStrings(req.Amenities),
		GuestsLimit:      req.GuestsLimit,
		MinNights:        req.MinNights,
		MaxNights:        req.MaxNights,
		NightlyRateCents: req.NightlyRateCents,
		Currency:         strings.TrimSpace(req.Currency),
		InstantBook:      req.InstantBook,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		ThumbnailURL:     strings.TrimSpace(req.ThumbnailURL),
		Photos:           cleanStrings(req.Photos),
	}
}

func cleanStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isListingValidationError(err error) bool {
	switch {
	case errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrGuestsLimit),
		errors.Is(err, domainlistings.ErrNightsRange),
		errors.Is(err, domainlistings.ErrNightlyRate),
		errors.Is(err, domainlistings.ErrAddressRequired),
		errors.Is(err, domainlistings.ErrInvalidState):
		return true
	}
	return false
}

type hostListingRequest struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	PropertyType     string             `json:"property_type"`
	Address          hostListingAddress `json:"address"`
	Amenities        []string           `json:"amenities"`
	GuestsLimit      int                `json:"guests_limit"`
	Bedrooms         int                `json:"bedrooms"`
	Bathrooms        int                `json:"bathrooms"`
	MinNights        int                `json:"min_nights"`
	MaxNights        int                `json:"max_nights"`
	NightlyRateCents int64              `json:"nightly_rate_cents"`
	Currency         string             `json:"currency"`
	InstantBook      bool               `json:"instant_book"`
	ThumbnailURL     string             `json:"thumbnail_url"`
	Photos           []string           `json:"photos"`
}

type hostListingAddress struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}
