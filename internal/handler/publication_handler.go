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

// PublicationHandler handles publication CRUD and import endpoints.
type PublicationHandler struct {
	service   *service.PublicationService
	importSvc *service.ImportService
}

// NewPublicationHandler creates a new publication handler.
func NewPublicationHandler(svc *service.PublicationService, importSvc *service.ImportService) *PublicationHandler {
	return &PublicationHandler{service: svc, importSvc: importSvc}
}

// List godoc
// @Summary List publications
// @Description List publication detail rows with pagination and filtering
// @Tags Publications
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param department_id query string false "Department filter"
// @Param journal_id query string false "Journal filter"
// @Param quartile query string false "Quartile filter"
// @Param year_from query int false "First publish year"
// @Param year_to query int false "Last publish year"
// @Param search query string false "Search in title and authors"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /publications [get]
func (h *PublicationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	var filter models.PublicationFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if from := c.Query("year_from"); from != "" {
		if val, err := strconv.Atoi(from); err == nil {
			filter.YearFrom = &val
		}
	}
	if to := c.Query("year_to"); to != "" {
		if val, err := strconv.Atoi(to); err == nil {
			filter.YearTo = &val
		}
	}
	if quartile := c.Query("quartile"); quartile != "" {
		q := models.Quartile(quartile)
		filter.Quartile = &q
	}
	filter.DepartmentID = c.Query("department_id")
	filter.JournalID = c.Query("journal_id")
	filter.UserID = c.Query("user_id")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	publications, pagination, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, publications, &pagination)
}

// Get godoc
// @Summary Get publication
// @Tags Publications
// @Produce json
// @Param id path string true "Publication ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /publications/{id} [get]
func (h *PublicationHandler) Get(c *gin.Context) {
	pub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pub, nil)
}

// Create godoc
// @Summary Record publication
// @Tags Publications
// @Accept json
// @Produce json
// @Param payload body dto.CreatePublicationRequest true "Publication payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /publications [post]
func (h *PublicationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	var req dto.CreatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publication payload"))
		return
	}

	pub, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pub)
}

// Update godoc
// @Summary Update publication
// @Tags Publications
// @Accept json
// @Produce json
// @Param id path string true "Publication ID"
// @Param payload body dto.UpdatePublicationRequest true "Publication payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /publications/{id} [put]
func (h *PublicationHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	var req dto.UpdatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publication payload"))
		return
	}

	pub, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pub, nil)
}

// Delete godoc
// @Summary Delete publication
// @Tags Publications
// @Produce json
// @Param id path string true "Publication ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /publications/{id} [delete]
func (h *PublicationHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import publications
// @Description Upload an xlsx or csv file; rows are processed independently
// @Tags Publications
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet"
// @Param department_id formData string false "Default department for rows without one"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /publications/import [post]
func (h *PublicationHandler) Import(c *gin.Context) {
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

	defaultDepartmentID := c.PostForm("department_id")
	result, err := h.importSvc.ImportPublications(c.Request.Context(), claims, file, fileHeader.Filename, fileHeader.Size, defaultDepartmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
