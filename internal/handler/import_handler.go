package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/internal/dto"
	"github.com/acconduty/od-form-api/internal/importer"
	"github.com/acconduty/od-form-api/internal/models"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/response"
)

type fileImporter interface {
	Import(r io.Reader, format importer.Format) (*importer.Result, error)
}

type importMetrics interface {
	RecordImport(format string, ok bool)
}

// ImportHandler parses uploaded CSV/spreadsheet files into subject and
// student records. Parsing is stateless: nothing is persisted until the
// client submits the mapped records.
type ImportHandler struct {
	importer     fileImporter
	metrics      importMetrics
	maxFileBytes int64
	logger       *zap.Logger
}

// NewImportHandler constructs the handler.
func NewImportHandler(imp fileImporter, metrics importMetrics, maxFileBytes int64, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{importer: imp, metrics: metrics, maxFileBytes: maxFileBytes, logger: logger}
}

// Import godoc
// @Summary Parse a tabular upload into subjects and students
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or spreadsheet file"
// @Param type formData string false "Declared file type (csv/spreadsheet)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if h.maxFileBytes > 0 && fileHeader.Size > h.maxFileBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
		return
	}

	format, err := importer.DetectFormat(c.PostForm("type"), fileHeader.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	result, err := h.importer.Import(file, format)
	if h.metrics != nil {
		h.metrics.RecordImport(string(format), err == nil)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ImportResponse{
		Subjects: result.Subjects,
		Students: result.Students,
		Counts:   models.Counts{Subjects: len(result.Subjects), Students: len(result.Students)},
		FileName: fileHeader.Filename,
	}, nil)
}
