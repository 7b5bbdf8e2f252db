// Package importer turns tabular files with unpredictable header naming
// into subject and student records.
package importer

import (
	"regexp"
	"strings"

	"github.com/acconduty/od-form-api/internal/models"
)

// Alias lists per logical field, tried in order. Headers are normalised
// before lookup, so "Enrollment No." and "enrollmentNo" both hit
// "enrollmentno".
var (
	enrollmentAliases  = []string{"enrollmentno", "enrollment", "rollno", "rollnumber", "enrollno", "admno"}
	nameAliases        = []string{"name", "studentname", "fullname"}
	semesterAliases    = []string{"semester", "sem"}
	courseAliases      = []string{"course", "program", "programme"}
	sectionAliases     = []string{"section", "sec"}
	subjectNameAliases = []string{"subjectname", "subject", "subjecttitle"}
	subjectCodeAliases = []string{"subjectcode", "code", "coursecode"}
	timeSlotAliases    = []string{"timeslot", "slot", "time"}
	facultyNameAliases = []string{"facultyname", "faculty", "teacher"}
	facultyCodeAliases = []string{"facultycode", "teachercode"}
	dateAliases        = []string{"date", "oddate"}
)

const (
	unknownSubject = "UNKNOWN SUBJECT"
	unknownFaculty = "UNKNOWN FACULTY"
	autoGenCode    = "AUTO_GEN"
)

// codePattern matches a plausible subject code: at least two letters
// followed by at least two digits, anywhere in a value.
var codePattern = regexp.MustCompile(`[A-Za-z]{2,}\d{2,}`)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeKey lower-cases a header and strips everything that is not a
// letter or digit ("Subject Code" -> "subjectcode").
func normalizeKey(raw string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(raw), "")
}

// Row is one parsed tabular row. Column order is preserved because code
// synthesis scans values in their original order.
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow returns an empty row.
func NewRow() Row {
	return Row{values: make(map[string]string)}
}

// Set records a header/value pair under the normalised header key. The
// first column wins when two headers normalise to the same key.
func (r *Row) Set(rawHeader, value string) {
	key := normalizeKey(rawHeader)
	if key == "" {
		return
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	if r.values[key] == "" {
		r.values[key] = strings.TrimSpace(value)
	}
}

// get returns the first non-empty value among the candidate keys.
func (r Row) get(candidates ...string) string {
	for _, key := range candidates {
		if v := r.values[key]; v != "" {
			return v
		}
	}
	return ""
}

// Empty reports whether every value in the row is blank.
func (r Row) Empty() bool {
	for _, key := range r.keys {
		if r.values[key] != "" {
			return false
		}
	}
	return true
}

// MappedRow is the outcome of mapping one row. Both pointers can be set at
// once: wide spreadsheets commonly mix student and subject columns in the
// same row.
type MappedRow struct {
	Student *models.Student
	Subject *models.Subject
}

// MapRow extracts candidate student and subject records from a raw row.
// Fully empty rows yield nothing.
func MapRow(row Row) MappedRow {
	if row.Empty() {
		return MappedRow{}
	}

	var mapped MappedRow

	if enrollment := row.get(enrollmentAliases...); enrollment != "" {
		mapped.Student = &models.Student{
			Name:         row.get(nameAliases...),
			Semester:     row.get(semesterAliases...),
			Course:       row.get(courseAliases...),
			Section:      row.get(sectionAliases...),
			EnrollmentNo: enrollment,
		}
	}

	code := row.get(subjectCodeAliases...)
	subjectName := row.get(subjectNameAliases...)
	facultyName := row.get(facultyNameAliases...)

	if code != "" || (subjectName != "" && facultyName != "") {
		if code == "" {
			code = synthesizeCode(row, subjectName)
		}
		if subjectName == "" {
			subjectName = unknownSubject
		}
		if facultyName == "" {
			facultyName = unknownFaculty
		}
		mapped.Subject = &models.Subject{
			SubjectName: subjectName,
			SubjectCode: code,
			TimeSlot:    row.get(timeSlotAliases...),
			FacultyName: facultyName,
			FacultyCode: row.get(facultyCodeAliases...),
			Date:        row.get(dateAliases...),
		}
	}

	return mapped
}

// synthesizeCode derives a subject code when none was given: the first
// code-shaped token found in any value, else the first six characters of
// the subject name, else a literal placeholder.
func synthesizeCode(row Row, subjectName string) string {
	for _, key := range row.keys {
		if match := codePattern.FindString(row.values[key]); match != "" {
			return match
		}
	}

	stripped := strings.Join(strings.Fields(subjectName), "")
	if stripped == "" {
		return autoGenCode
	}
	if len(stripped) > 6 {
		stripped = stripped[:6]
	}
	return strings.ToUpper(stripped)
}
