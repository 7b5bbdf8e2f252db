package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/pkg/config"
	"github.com/acconduty/od-form-api/pkg/errors"
)

func newTestImporter(maxRows int) *Importer {
	return NewImporter(config.ImportConfig{MaxRows: maxRows}, zap.NewNop())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		declared string
		filename string
		want     Format
		wantErr  bool
	}{
		{"csv", "anything.bin", FormatCSV, false},
		{"spreadsheet", "anything.bin", FormatSpreadsheet, false},
		{"XLSX", "", FormatSpreadsheet, false},
		{"", "students.csv", FormatCSV, false},
		{"", "students.XLSX", FormatSpreadsheet, false},
		{"", "students.pdf", "", true},
		{"pdf", "students.csv", "", true},
	}
	for _, tc := range tests {
		got, err := DetectFormat(tc.declared, tc.filename)
		if tc.wantErr {
			assert.Error(t, err, "%s/%s", tc.declared, tc.filename)
			continue
		}
		require.NoError(t, err, "%s/%s", tc.declared, tc.filename)
		assert.Equal(t, tc.want, got)
	}
}

func TestImport_CSVMixedRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Roll No.,Name,Sem,Course,Section,Subject Code,Subject Name,Faculty Name,Slot,Date",
		"21BCS101,Asha Verma,5,B.Tech CSE,B,CS301,Operating Systems,Dr. Rao,10:00-11:00,2026-09-01",
		"21BCS102,Rohit Jain,5,B.Tech CSE,B,CS301,Operating Systems,Dr. Rao,10:00-11:00,2026-09-01",
		"21BCS103,Meena Das,5,B.Tech CSE,B,CS405,Compiler Design,Dr. Iyer,11:00-12:00,2026-09-01",
	}, "\n")

	result, err := newTestImporter(0).Import(strings.NewReader(csvData), FormatCSV)
	require.NoError(t, err)

	require.Len(t, result.Students, 3)
	assert.Equal(t, "21BCS101", result.Students[0].EnrollmentNo)
	assert.Equal(t, "Meena Das", result.Students[2].Name)

	// CS301 appears twice: the first occurrence wins and order is preserved.
	require.Len(t, result.Subjects, 2)
	assert.Equal(t, "CS301", result.Subjects[0].SubjectCode)
	assert.Equal(t, "CS405", result.Subjects[1].SubjectCode)
}

func TestImport_SkipsEmptyRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Enrollment,Name,Subject Code",
		"21BCS101,Asha Verma,CS301",
		",,",
		"21BCS102,Rohit Jain,",
	}, "\n")

	result, err := newTestImporter(0).Import(strings.NewReader(csvData), FormatCSV)
	require.NoError(t, err)
	assert.Len(t, result.Students, 2)
	assert.Len(t, result.Subjects, 1)
}

func TestImport_NoRowsRecognized(t *testing.T) {
	csvData := "Favourite Colour,Shoe Size\nblue,42\n"

	_, err := newTestImporter(0).Import(strings.NewReader(csvData), FormatCSV)
	require.Error(t, err)

	appErr := errors.FromError(err)
	assert.Equal(t, errors.ErrNoRowsRecognized.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "enrollmentNo")
	assert.Contains(t, appErr.Message, "subjectCode")
}

func TestImport_MissingSubjects(t *testing.T) {
	csvData := "Enrollment,Name\n21BCS101,Asha Verma\n"

	_, err := newTestImporter(0).Import(strings.NewReader(csvData), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, errors.FromError(err).Message, "no subjects found")
}

func TestImport_MissingStudents(t *testing.T) {
	csvData := "Subject Code\nCS301\n"

	_, err := newTestImporter(0).Import(strings.NewReader(csvData), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, errors.FromError(err).Message, "no students found")
}

func TestImport_RespectsMaxRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Enrollment,Subject Code\n")
	for i := 0; i < 10; i++ {
		sb.WriteString("21BCS10,CS301\n")
	}

	result, err := newTestImporter(3).Import(strings.NewReader(sb.String()), FormatCSV)
	require.NoError(t, err)
	assert.Len(t, result.Students, 3)
}

func TestImport_Spreadsheet(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]interface{}{"Enrollment No.", "Name", "Subject Code", "Subject Name"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]interface{}{"21BCS104", "Asha Verma", "CS301", "Operating Systems"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]interface{}{"21BCS105", "Rohit Jain", "CS301", "Operating Systems"}))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	result, err := newTestImporter(0).Import(buf, FormatSpreadsheet)
	require.NoError(t, err)
	assert.Len(t, result.Students, 2)
	require.Len(t, result.Subjects, 1)
	assert.Equal(t, "Operating Systems", result.Subjects[0].SubjectName)
}

func TestImport_SpreadsheetGarbage(t *testing.T) {
	_, err := newTestImporter(0).Import(strings.NewReader("not a zip archive"), FormatSpreadsheet)
	assert.Error(t, err)
}

func TestImport_RaggedCSVRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Enrollment,Name,Subject Code",
		"21BCS101,Asha Verma",
		"21BCS102,Rohit Jain,CS301,extra",
	}, "\n")

	result, err := newTestImporter(0).Import(strings.NewReader(csvData), FormatCSV)
	require.NoError(t, err)
	assert.Len(t, result.Students, 2)
	require.Len(t, result.Subjects, 1)
	assert.Equal(t, "CS301", result.Subjects[0].SubjectCode)
}
