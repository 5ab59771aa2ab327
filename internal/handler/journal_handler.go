package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/service"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/response"
)

// JournalHandler handles journal CRUD and import endpoints.
type JournalHandler struct {
	service   *service.JournalService
	importSvc *service.ImportService
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(svc *service.JournalService, importSvc *service.ImportService) *JournalHandler {
	return &JournalHandler{service: svc, importSvc: importSvc}
}

// List godoc
// @Summary List journals
// @Tags Journals
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Search term"
// @Param quartile query string false "Quartile filter"
// @Param year query int false "Metric year filter"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /journals [get]
func (h *JournalHandler) List(c *gin.Context) {
	var filter models.JournalFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if quartile := c.Query("quartile"); quartile != "" {
		q := models.Quartile(quartile)
		filter.Quartile = &q
	}
	if year := c.Query("year"); year != "" {
		if val, err := strconv.Atoi(year); err == nil {
			filter.Year = &val
		}
	}
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	journals, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, journals, &pagination)
}

// Get godoc
// @Summary Get journal
// @Tags Journals
// @Produce json
// @Param id path string true "Journal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /journals/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	journal, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, journal, nil)
}

// Create godoc
// @Summary Create journal
// @Tags Journals
// @Accept json
// @Produce json
// @Param payload body dto.CreateJournalRequest true "Journal payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /journals [post]
func (h *JournalHandler) Create(c *gin.Context) {
	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid journal payload"))
		return
	}

	journal, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, journal)
}

// Update godoc
// @Summary Update journal
// @Tags Journals
// @Accept json
// @Produce json
// @Param id path string true "Journal ID"
// @Param payload body dto.UpdateJournalRequest true "Journal payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /journals/{id} [put]
func (h *JournalHandler) Update(c *gin.Context) {
	var req dto.UpdateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid journal payload"))
		return
	}

	journal, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, journal, nil)
}

// Delete godoc
// @Summary Delete journal
// @Tags Journals
// @Produce json
// @Param id path string true "Journal ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /journals/{id} [delete]
func (h *JournalHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import journals
// @Description Upload an xlsx or csv file with journal reference data
// @Tags Journals
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /journals/import [post]
func (h *JournalHandler) Import(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFileUpload, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrFileUpload.Code, appErrors.ErrFileUpload.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	result, err := h.importSvc.ImportJournals(c.Request.Context(), claims, file, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
