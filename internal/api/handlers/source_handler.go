package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/drive"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/service"
)

// SourceHandler serves the archive and Drive import routes.
type SourceHandler struct {
	service    *service.IngestService
	downloader *drive.Downloader
}

func NewSourceHandler(service *service.IngestService, downloader *drive.Downloader) *SourceHandler {
	return &SourceHandler{service: service, downloader: downloader}
}

func optionalFamily(raw string) (domain.Family, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	f, ok := domain.ParseFamily(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", pipeline.ErrUnknownFamily, raw)
	}
	return f, nil
}

func (h *SourceHandler) ListArchive(c *gin.Context) {
	family, err := optionalFamily(c.Query("family"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	objects, err := h.service.ListArchive(c.Request.Context(), family)
	respond(c, objects, err)
}

type replayRequest struct {
	Key    string `json:"key" binding:"required"`
	Family string `json:"family"`
}

func (h *SourceHandler) ReplayArchive(c *gin.Context) {
	var req replayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	family, err := optionalFamily(req.Family)
	if err != nil {
		errorResponse(c, err)
		return
	}
	outcome, err := h.service.ReplayArchive(c.Request.Context(), req.Key, family)
	respond(c, outcome, err)
}

func (h *SourceHandler) ListDriveFiles(c *gin.Context) {
	if h.downloader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "drive is not configured"})
		return
	}
	files, err := h.downloader.ListImportable(c.Request.Context(), c.Query("folder"))
	if files == nil {
		files = []*drive.File{}
	}
	respond(c, files, err)
}

type driveImportRequest struct {
	FileID string `json:"file_id" binding:"required"`
	Family string `json:"family"`
}

func (h *SourceHandler) ImportDrive(c *gin.Context) {
	if h.downloader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "drive is not configured"})
		return
	}
	var req driveImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}
	family, err := optionalFamily(req.Family)
	if err != nil {
		errorResponse(c, err)
		return
	}
	outcome, err := h.service.ImportDrive(c.Request.Context(), h.downloader, req.FileID, family)
	respond(c, outcome, err)
}
