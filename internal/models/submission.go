package models

import "time"

// Mode distinguishes single-entry submissions from bulk uploads.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
)

// Valid reports whether the mode is one of the two accepted values.
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMultiple
}

// Subject is one class session covered by an OD request. JSON field names
// follow the stored document contract shared with existing clients.
type Subject struct {
	SubjectName string `json:"subjectName"`
	SubjectCode string `json:"subjectCode"`
	TimeSlot    string `json:"timeSlot"`
	FacultyName string `json:"facultyName"`
	FacultyCode string `json:"facultyCode"`
	Date        string `json:"date"`
}

// Student is one person named on an OD request. A non-empty EnrollmentNo is
// what marks an imported row as student data.
type Student struct {
	Name         string `json:"name"`
	Semester     string `json:"semester"`
	Course       string `json:"course"`
	Section      string `json:"section"`
	EnrollmentNo string `json:"enrollmentNo"`
}

// Counts carries optional bulk-upload metadata.
type Counts struct {
	Subjects int `json:"subjects"`
	Students int `json:"students"`
}

// Submission is one save operation's worth of subjects, students and
// metadata. Submissions are append-only: created once, never mutated.
type Submission struct {
	ID               string    `json:"id"`
	Mode             Mode      `json:"mode"`
	Subjects         []Subject `json:"subjects"`
	Students         []Student `json:"students"`
	TimetableFileURL *string   `json:"timetableFileUrl,omitempty"`
	FileName         *string   `json:"fileName,omitempty"`
	Counts           *Counts   `json:"counts,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// StudentRecord is the bulk-mode per-student fan-out of a submission, with
// its own pre-rendered email body. Like submissions, records are never
// mutated after creation.
type StudentRecord struct {
	ID           string    `json:"id"`
	ParentFormID string    `json:"parentFormId"`
	Student      Student   `json:"student"`
	Subjects     []Subject `json:"subjects"`
	EmailBody    string    `json:"emailBody"`
	FileName     *string   `json:"fileName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SubmissionFilter captures supported filters for listing submissions.
type SubmissionFilter struct {
	Mode     Mode
	Page     int
	PageSize int
}

// Pagination describes list slicing in responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
