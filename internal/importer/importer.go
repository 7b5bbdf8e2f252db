package importer

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/internal/models"
	"github.com/acconduty/od-form-api/pkg/config"
	"github.com/acconduty/od-form-api/pkg/errors"
)

// Format identifies how an uploaded file should be parsed.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
)

// DetectFormat resolves the parse format from the declared type when one
// was given, falling back to the file extension.
func DetectFormat(declared, filename string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "csv":
		return FormatCSV, nil
	case "spreadsheet", "xlsx", "xls", "excel":
		return FormatSpreadsheet, nil
	case "":
	default:
		return "", errors.Clone(errors.ErrValidation, "unsupported file type: "+declared)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatSpreadsheet, nil
	}
	return "", errors.Clone(errors.ErrValidation, "cannot determine file type for "+filename+": upload a .csv or .xlsx file")
}

// Result is the outcome of one import: subjects deduplicated by code in
// first-seen order, and every student row in file order.
type Result struct {
	Subjects []models.Subject
	Students []models.Student
}

// Importer parses uploaded tabular files into submission records.
type Importer struct {
	maxRows int
	logger  *zap.Logger
}

func NewImporter(cfg config.ImportConfig, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{maxRows: cfg.MaxRows, logger: logger}
}

// Import parses the reader in the given format and maps every row. The
// first subject seen for a code wins; later rows with the same code only
// contribute their student columns.
func (i *Importer) Import(r io.Reader, format Format) (*Result, error) {
	var (
		rows []Row
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = i.parseCSV(r)
	case FormatSpreadsheet:
		rows, err = i.parseSpreadsheet(r)
	default:
		return nil, errors.Clone(errors.ErrValidation, "unsupported file format")
	}
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seenCodes := make(map[string]bool)
	for _, row := range rows {
		mapped := MapRow(row)
		if mapped.Student != nil {
			result.Students = append(result.Students, *mapped.Student)
		}
		if mapped.Subject != nil && !seenCodes[mapped.Subject.SubjectCode] {
			seenCodes[mapped.Subject.SubjectCode] = true
			result.Subjects = append(result.Subjects, *mapped.Subject)
		}
	}

	if len(result.Subjects) == 0 && len(result.Students) == 0 {
		return nil, errors.Clone(errors.ErrNoRowsRecognized,
			"no rows recognized: expected subject columns (subjectCode, or subjectName with facultyName) or student columns (enrollmentNo, enrollment, rollNo, rollNumber, enrollNo, admNo)")
	}
	if len(result.Subjects) == 0 {
		return nil, errors.Clone(errors.ErrValidation,
			"no subjects found: expected a subjectCode column, or subjectName together with facultyName")
	}
	if len(result.Students) == 0 {
		return nil, errors.Clone(errors.ErrValidation,
			"no students found: expected an enrollment column (enrollmentNo, enrollment, rollNo, rollNumber, enrollNo, admNo)")
	}

	i.logger.Info("import parsed",
		zap.Int("rows", len(rows)),
		zap.Int("subjects", len(result.Subjects)),
		zap.Int("students", len(result.Students)))
	return result, nil
}

func (i *Importer) parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "failed to read CSV header")
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "failed to read CSV row")
		}
		rows = append(rows, i.buildRow(headers, record))
		if i.maxRows > 0 && len(rows) >= i.maxRows {
			break
		}
	}
	return rows, nil
}

func (i *Importer) parseSpreadsheet(r io.Reader) ([]Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "failed to open spreadsheet")
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Clone(errors.ErrValidation, "spreadsheet has no sheets")
	}
	raw, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "failed to read spreadsheet rows")
	}
	if len(raw) == 0 {
		return nil, nil
	}

	headers := raw[0]
	var rows []Row
	for _, record := range raw[1:] {
		rows = append(rows, i.buildRow(headers, record))
		if i.maxRows > 0 && len(rows) >= i.maxRows {
			break
		}
	}
	return rows, nil
}

func (i *Importer) buildRow(headers, record []string) Row {
	row := NewRow()
	for idx, header := range headers {
		var value string
		if idx < len(record) {
			value = record[idx]
		}
		row.Set(header, value)
	}
	return row
}
