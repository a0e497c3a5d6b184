package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitescope/backend/internal/services"
)

type AnalyticsHandler struct {
	reportService *services.ReportService
}

func NewAnalyticsHandler(reportService *services.ReportService) *AnalyticsHandler {
	return &AnalyticsHandler{reportService: reportService}
}

// GetSummary returns the dashboard datasets
// GET /user/analytics
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetReportPDF renders the summary as a downloadable PDF
// GET /user/analytics/report.pdf
func (h *AnalyticsHandler) GetReportPDF(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute analytics"})
		return
	}

	pdf, err := h.reportService.BuildPDF(summary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}

	filename := fmt.Sprintf("analytics-%s.pdf", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
