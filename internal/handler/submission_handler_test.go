package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acconduty/od-form-api/internal/dto"
	"github.com/acconduty/od-form-api/internal/models"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/response"
)

type stubSubmissionService struct {
	saved     *models.Submission
	saveErr   error
	found     *models.Submission
	records   []models.StudentRecord
	exportErr error
}

func (s *stubSubmissionService) Save(_ context.Context, req dto.CreateSubmissionRequest) (*models.Submission, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = &models.Submission{
		ID:        "form-1",
		Mode:      models.Mode(req.Mode),
		Subjects:  req.Subjects,
		Students:  req.Students,
		CreatedAt: time.Now(),
	}
	return s.saved, nil
}

func (s *stubSubmissionService) Get(_ context.Context, id string) (*models.Submission, error) {
	if s.found == nil {
		return nil, appErrors.ErrNotFound
	}
	return s.found, nil
}

func (s *stubSubmissionService) List(_ context.Context, _ models.SubmissionFilter) ([]models.Submission, int, error) {
	if s.found == nil {
		return nil, 0, nil
	}
	return []models.Submission{*s.found}, 1, nil
}

func (s *stubSubmissionService) ListRecords(_ context.Context, _ string) ([]models.StudentRecord, error) {
	return s.records, nil
}

func (s *stubSubmissionService) Export(_ context.Context, id, format string) ([]byte, string, error) {
	if s.exportErr != nil {
		return nil, "", s.exportErr
	}
	return []byte("Code,Name\n"), "text/csv", nil
}

func testContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestSubmissionHandlerCreate(t *testing.T) {
	svc := &stubSubmissionService{}
	c, w := testContext(t, http.MethodPost, "/submissions", `{"mode":"single","students":[{"name":"Asha Verma","enrollmentNo":"21BCS104"}]}`)

	NewSubmissionHandler(svc).Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var resp dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "form-1", resp.ID)
	assert.Equal(t, "single", resp.Mode)
}

func TestSubmissionHandlerCreateInvalidJSON(t *testing.T) {
	c, w := testContext(t, http.MethodPost, "/submissions", `{"mode":`)

	NewSubmissionHandler(&stubSubmissionService{}).Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerCreatePermissionDenied(t *testing.T) {
	svc := &stubSubmissionService{saveErr: appErrors.ErrPermissionDenied}
	c, w := testContext(t, http.MethodPost, "/submissions", `{"mode":"single","students":[{"enrollmentNo":"21BCS104"}]}`)

	NewSubmissionHandler(svc).Create(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PERMISSION_DENIED")
}

func TestSubmissionHandlerGetNotFound(t *testing.T) {
	c, w := testContext(t, http.MethodGet, "/submissions/missing", "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	NewSubmissionHandler(&stubSubmissionService{}).Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmissionHandlerList(t *testing.T) {
	svc := &stubSubmissionService{found: &models.Submission{ID: "form-1", Mode: models.ModeSingle}}
	c, w := testContext(t, http.MethodGet, "/submissions?page=2&pageSize=5", "")

	NewSubmissionHandler(svc).List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
	assert.Equal(t, 5, envelope.Pagination.PageSize)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestSubmissionHandlerExport(t *testing.T) {
	c, w := testContext(t, http.MethodGet, "/submissions/form-1/export?format=csv", "")
	c.Params = gin.Params{{Key: "id", Value: "form-1"}}

	NewSubmissionHandler(&stubSubmissionService{}).Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "od-form-form-1.csv")
}
