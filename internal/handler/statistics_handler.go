package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/service"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/response"
)

// StatisticsHandler handles aggregate metric endpoints.
type StatisticsHandler struct {
	service *service.StatisticsService
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(svc *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: svc}
}

// Department godoc
// @Summary Department statistics
// @Description Publication metrics aggregated for one department
// @Tags Statistics
// @Produce json
// @Param departmentId query string true "Department ID"
// @Param fillGaps query bool false "Zero-fill missing years in the trend"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /statistics/department [get]
func (h *StatisticsHandler) Department(c *gin.Context) {
	departmentID := c.Query("departmentId")
	if departmentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentId is required"))
		return
	}
	fillGaps, _ := strconv.ParseBool(c.DefaultQuery("fillGaps", "false"))

	stats, err := h.service.DepartmentStats(c.Request.Context(), departmentID, fillGaps)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Overview godoc
// @Summary Overview statistics
// @Description Publication metrics aggregated across all departments
// @Tags Statistics
// @Produce json
// @Param fillGaps query bool false "Zero-fill missing years in the trend"
// @Success 200 {object} response.Envelope
// @Router /statistics/overview [get]
func (h *StatisticsHandler) Overview(c *gin.Context) {
	fillGaps, _ := strconv.ParseBool(c.DefaultQuery("fillGaps", "false"))

	stats, err := h.service.Overview(c.Request.Context(), fillGaps)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export department publications
// @Description Download the department's publication table as csv or pdf
// @Tags Statistics
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Department ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /statistics/department/{id}/export [get]
func (h *StatisticsHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	departmentID := c.Param("id")
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.service.ExportDepartment(c.Request.Context(), claims, departmentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("publications-%s-%s.%s", departmentID, time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
