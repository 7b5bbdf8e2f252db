package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acconduty/od-form-api/internal/dto"
	"github.com/acconduty/od-form-api/internal/models"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/response"
)

type submissionService interface {
	Save(ctx context.Context, req dto.CreateSubmissionRequest) (*models.Submission, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	ListRecords(ctx context.Context, parentFormID string) ([]models.StudentRecord, error)
	Export(ctx context.Context, id, format string) ([]byte, string, error)
}

// SubmissionHandler exposes the OD form save/read endpoints.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Create godoc
// @Summary Save an OD form submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}

	sub, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SubmissionFromModel(sub))
}

// List godoc
// @Summary List submissions
// @Tags Submissions
// @Produce json
// @Param mode query string false "Filter by mode (single/multiple)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		Mode:     models.Mode(c.Query("mode")),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 20),
	}

	subs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, dto.SubmissionFromModel(&subs[i]))
	}
	response.JSON(c, http.StatusOK, out, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Fetch one submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SubmissionFromModel(sub), nil)
}

// Records godoc
// @Summary List per-student records of a bulk submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/records [get]
func (h *SubmissionHandler) Records(c *gin.Context) {
	records, err := h.service.ListRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.StudentRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, dto.StudentRecordFromModel(&records[i]))
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Export godoc
// @Summary Export one submission as CSV or PDF
// @Tags Submissions
// @Produce octet-stream
// @Param id path string true "Submission ID"
// @Param format query string false "Export format (csv/pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/export [get]
func (h *SubmissionHandler) Export(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.service.Export(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if format == "pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="od-form-`+id+`.`+ext+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
