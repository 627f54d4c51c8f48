package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/service"
)

type UploadHandler struct {
	service  *service.IngestService
	maxBytes int64
}

// NewUploadHandler limits request bodies to maxUploadMB megabytes (0 disables the limit).
func NewUploadHandler(service *service.IngestService, maxUploadMB int) *UploadHandler {
	return &UploadHandler{service: service, maxBytes: int64(maxUploadMB) << 20}
}

// Upload ingests the multipart field "file" into the family named in the path.
func (h *UploadHandler) Upload(c *gin.Context) {
	family, ok := domain.ParseFamily(c.Param("family"))
	if !ok {
		errorResponse(c, fmt.Errorf("%w: %q", pipeline.ErrUnknownFamily, c.Param("family")))
		return
	}

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if status := statusOf(err); status == http.StatusRequestEntityTooLarge {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		errorResponse(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	outcome, err := h.service.IngestUpload(c.Request.Context(), family, fh.Filename, f)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// ClearData empties the history collections. Snapshots are kept.
func (h *UploadHandler) ClearData(c *gin.Context) {
	if err := h.service.ClearHistory(c.Request.Context()); err != nil {
		errorResponse(c, err)
		return
	}
	log.Info().Str("ip", c.ClientIP()).Msg("history cleared over http")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
