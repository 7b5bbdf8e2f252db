package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/acconduty/od-form-api/internal/dto"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/response"
)

type fileService interface {
	SaveTimetable(filename string, size int64, r io.Reader) (*dto.UploadResponse, error)
	OpenByToken(token string) (io.ReadCloser, string, error)
}

// FileHandler exposes timetable upload and signed file download.
type FileHandler struct {
	service fileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(service fileService) *FileHandler {
	return &FileHandler{service: service}
}

// UploadTimetable godoc
// @Summary Store a timetable image for use in submissions
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Timetable image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables [post]
func (h *FileHandler) UploadTimetable(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	resp, err := h.service.SaveTimetable(fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Download godoc
// @Summary Download a stored file via signed token
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	f, name, err := h.service.OpenByToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+name+`"`)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, f); err != nil {
		_ = c.Error(err)
	}
}
