package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ScanHandler struct {
	service service.ScanService
	logger  *zap.Logger
}

func NewScanHandler(scanService service.ScanService, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{
		service: scanService,
		logger:  logger,
	}
}

// Scan handles GET /s/:id. Whatever happens to analytics, a known code
// always answers with a temporary redirect.
func (h *ScanHandler) Scan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "QR code id must be an integer"})
		return
	}

	meta := service.ScanMeta{
		ClientIP:       c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
		Referer:        c.Request.Referer(),
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}

	target, err := h.service.HandleScan(c.Request.Context(), id, meta)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "QR code not found"})
			return
		}
		h.logger.Error("Failed to handle scan", zap.Int64("qrcode_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to handle scan"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, target)
}
