package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// respond writes v, or maps err to a status code.
func respond[T any](c *gin.Context, v T, err error) {
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ReportHandler) query(c *gin.Context, defaultLimit int) domain.ReportQuery {
	return parseQuery(c, defaultLimit)
}

// Production

func (h *ReportHandler) ProductionDaily(c *gin.Context) {
	out, err := h.service.ProductionDaily(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) ProductionHourly(c *gin.Context) {
	out, err := h.service.ProductionHourly(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) ProductionSummary(c *gin.Context) {
	out, err := h.service.ProductionSummary(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

// Turnaround

func (h *ReportHandler) TurnaroundDaily(c *gin.Context) {
	out, err := h.service.TurnaroundDaily(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) TurnaroundBreakdown(c *gin.Context) {
	out, err := h.service.TurnaroundBreakdown(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) TurnaroundSummary(c *gin.Context) {
	out, err := h.service.TurnaroundSummary(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

// Bypass

func (h *ReportHandler) BypassLocations(c *gin.Context) {
	out, err := h.service.BypassLocations(c.Request.Context(), h.query(c, DefaultListLimit))
	respond(c, out, err)
}

func (h *ReportHandler) BypassHourly(c *gin.Context) {
	out, err := h.service.BypassHourly(c.Request.Context(), h.query(c, DefaultListLimit))
	respond(c, out, err)
}

func (h *ReportHandler) BypassSummary(c *gin.Context) {
	out, err := h.service.BypassSummary(c.Request.Context(), h.query(c, DefaultListLimit))
	respond(c, out, err)
}

// Usage

func (h *ReportHandler) UsageDaily(c *gin.Context) {
	out, err := h.service.UsageDaily(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) UsageBreakdown(c *gin.Context) {
	out, err := h.service.UsageBreakdown(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) UsageSummary(c *gin.Context) {
	out, err := h.service.UsageSummary(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

// Product usage snapshot

func (h *ReportHandler) ProductUsageSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ProductUsageSummary(c.Request.Context()))
}

func (h *ReportHandler) ProductUsageProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ProductUsageProducts(c.Request.Context(), h.query(c, DefaultBreakdownLimit)))
}

func (h *ReportHandler) ProductUsageLocations(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ProductUsageLocations(c.Request.Context(), h.query(c, DefaultBreakdownLimit)))
}

// Product wastage snapshot

func (h *ReportHandler) WastageProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.WastageProducts(c.Request.Context(), h.query(c, DefaultBreakdownLimit)))
}

func (h *ReportHandler) WastageTypes(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.WastageTypes(c.Request.Context()))
}

func (h *ReportHandler) WastageSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.WastageSummary(c.Request.Context()))
}

// Detailed wastage snapshot

func (h *ReportHandler) DetailedWastageDaily(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.DetailedWastageDaily(c.Request.Context()))
}

func (h *ReportHandler) DetailedWastageBreakdown(c *gin.Context) {
	out, err := h.service.DetailedWastageBreakdown(c.Request.Context(), h.query(c, DefaultBreakdownLimit))
	respond(c, out, err)
}

func (h *ReportHandler) DetailedWastageSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.DetailedWastageSummary(c.Request.Context()))
}

// Stock doses snapshot

func (h *ReportHandler) StockDoses(c *gin.Context) {
	out, err := h.service.StockDoses(c.Request.Context(), h.query(c, DefaultListLimit))
	respond(c, out, err)
}

func (h *ReportHandler) StockDosesSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.StockDosesSummary(c.Request.Context()))
}
