package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/internal/dto"
	"github.com/acconduty/od-form-api/internal/importer"
	"github.com/acconduty/od-form-api/pkg/config"
	"github.com/acconduty/od-form-api/pkg/response"
)

func multipartUpload(t *testing.T, filename, declared, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if declared != "" {
		require.NoError(t, writer.WriteField("type", declared))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func performImport(t *testing.T, filename, declared, content string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, contentType := multipartUpload(t, filename, declared, content)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", body)
	c.Request.Header.Set("Content-Type", contentType)

	imp := importer.NewImporter(config.ImportConfig{}, zap.NewNop())
	NewImportHandler(imp, nil, 1<<20, zap.NewNop()).Import(c)
	return w
}

func TestImportHandlerCSV(t *testing.T) {
	csvData := "Roll No.,Name,Subject Code,Subject Name,Faculty Name\n" +
		"21BCS104,Asha Verma,CS301,Operating Systems,Dr. Rao\n"

	w := performImport(t, "list.csv", "", csvData)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var resp dto.ImportResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	require.Len(t, resp.Students, 1)
	require.Len(t, resp.Subjects, 1)
	assert.Equal(t, "21BCS104", resp.Students[0].EnrollmentNo)
	assert.Equal(t, "CS301", resp.Subjects[0].SubjectCode)
	assert.Equal(t, 1, resp.Counts.Students)
	assert.Equal(t, "list.csv", resp.FileName)
}

func TestImportHandlerUnrecognizedColumns(t *testing.T) {
	w := performImport(t, "junk.csv", "csv", "Colour,Size\nred,10\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no rows recognized")
}

func TestImportHandlerUnknownExtension(t *testing.T) {
	w := performImport(t, "notes.docx", "", "whatever")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", &bytes.Buffer{})
	c.Request.Header.Set("Content-Type", "multipart/form-data")

	imp := importer.NewImporter(config.ImportConfig{}, zap.NewNop())
	NewImportHandler(imp, nil, 0, zap.NewNop()).Import(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
