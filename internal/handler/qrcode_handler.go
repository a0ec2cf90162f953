package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/SergeiKhy/qr-tracker/internal/middleware"
	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/qr"
	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QRCodeHandler struct {
	service      service.QRCodeService
	statsService service.StatsService
	renderer     qr.Renderer
	logger       *zap.Logger
}

func NewQRCodeHandler(
	qrService service.QRCodeService,
	statsService service.StatsService,
	renderer qr.Renderer,
	logger *zap.Logger,
) *QRCodeHandler {
	return &QRCodeHandler{
		service:      qrService,
		statsService: statsService,
		renderer:     renderer,
		logger:       logger,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Create handles POST /api/v1/qrcodes
func (h *QRCodeHandler) Create(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Authentication required"})
		return
	}

	var input models.CreateQRCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	code, err := h.service.Create(c.Request.Context(), &input, requesterID)
	if err != nil {
		h.respondError(c, err, "Failed to create qr code")
		return
	}

	c.JSON(http.StatusCreated, code)
}

// GetByID handles GET /api/v1/qrcodes/:id
func (h *QRCodeHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	code, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get qr code")
		return
	}

	c.JSON(http.StatusOK, code)
}

// ListByOwner handles GET /api/v1/qrcodes
func (h *QRCodeHandler) ListByOwner(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Authentication required"})
		return
	}

	codes, err := h.service.ListByOwner(c.Request.Context(), requesterID)
	if err != nil {
		h.respondError(c, err, "Failed to list qr codes")
		return
	}
	if codes == nil {
		codes = []*models.QRCode{}
	}

	c.JSON(http.StatusOK, codes)
}

// Update handles PATCH /api/v1/qrcodes/:id
func (h *QRCodeHandler) Update(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Authentication required"})
		return
	}

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var changes models.UpdateQRCodeInput
	if err := c.ShouldBindJSON(&changes); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	code, err := h.service.Modify(c.Request.Context(), id, requesterID, &changes)
	if err != nil {
		h.respondError(c, err, "Failed to update qr code")
		return
	}

	c.JSON(http.StatusOK, code)
}

// Delete handles DELETE /api/v1/qrcodes/:id
func (h *QRCodeHandler) Delete(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Authentication required"})
		return
	}

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, requesterID); err != nil {
		h.respondError(c, err, "Failed to delete qr code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR code deleted successfully"})
}

// GetStats handles GET /api/v1/qrcodes/:id/stats
func (h *QRCodeHandler) GetStats(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Authentication required"})
		return
	}

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	includeDetail := true
	if d := c.Query("detail"); d != "" {
		if parsed, err := strconv.ParseBool(d); err == nil {
			includeDetail = parsed
		}
	}

	report, err := h.statsService.Report(c.Request.Context(), id, requesterID, includeDetail)
	if err != nil {
		h.respondError(c, err, "Failed to build stats report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// Image handles GET /qrcodes/:id/image and serves the pre-rendered PNG.
func (h *QRCodeHandler) Image(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.service.GetByID(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to get qr code")
		return
	}

	path := h.renderer.ImagePath(id)
	if _, err := os.Stat(path); err != nil {
		h.logger.Error("Image file missing for existing qr code", zap.Int64("qrcode_id", id), zap.String("path", path))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "image_missing",
			Message: "QR code exists but its image file is missing",
		})
		return
	}

	c.File(path)
}

func (h *QRCodeHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "QR code id must be an integer"})
		return 0, false
	}
	return id, true
}

// respondError maps service sentinels to HTTP responses.
func (h *QRCodeHandler) respondError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "QR code not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "Only the owner may access this QR code"})
	case errors.Is(err, service.ErrInvalidDestination):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_destination", Message: "Destination must be a non-empty http(s) URL"})
	case errors.Is(err, service.ErrInvalidColor):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_color", Message: "Color must be #RRGGBB or a supported name"})
	case errors.Is(err, service.ErrStatsUnavailable):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "stats_unavailable", Message: "Statistics are not recorded for untracked QR codes"})
	case errors.Is(err, service.ErrScanBaseNotConfigured):
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "not_configured", Message: "Tracked QR codes require a configured base URL"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: logMsg})
	}
}
