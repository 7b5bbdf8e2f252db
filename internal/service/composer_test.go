package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acconduty/od-form-api/internal/models"
)

func sampleSubmission() *models.Submission {
	url := "https://files.example.com/tt.png"
	return &models.Submission{
		ID:   "form-1",
		Mode: models.ModeMultiple,
		Subjects: []models.Subject{
			{SubjectCode: "CS301", SubjectName: "Operating Systems", FacultyName: "Dr. Rao", FacultyCode: "F42", TimeSlot: "10:00-11:00", Date: "2026-09-01"},
		},
		Students: []models.Student{
			{Name: "Asha Verma", EnrollmentNo: "21BCS104", Course: "B.Tech CSE", Semester: "5", Section: "B"},
		},
		TimetableFileURL: &url,
	}
}

func TestComposePlainText(t *testing.T) {
	got := NewComposer().ComposePlainText(sampleSubmission())

	want := strings.Join([]string{
		"OD Request (Bulk)",
		"",
		"Subjects:",
		"1. CS301 Operating Systems",
		"   Faculty: Dr. Rao [F42] | Time: 10:00-11:00 | Date: 2026-09-01",
		"",
		"Students:",
		"1. Asha Verma (21BCS104) - B.Tech CSE 5 B",
		"",
		"Timetable: https://files.example.com/tt.png",
		"",
		"Regards,",
		"ACConduty",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestComposePlainText_SingleModeLabel(t *testing.T) {
	sub := sampleSubmission()
	sub.Mode = models.ModeSingle

	got := NewComposer().ComposePlainText(sub)
	assert.True(t, strings.HasPrefix(got, "OD Request (Single)"))
}

func TestComposePlainText_EmptySections(t *testing.T) {
	sub := &models.Submission{Mode: models.ModeSingle}

	got := NewComposer().ComposePlainText(sub)
	assert.Equal(t, 2, strings.Count(got, "  (none)"))
	assert.NotContains(t, got, "Timetable:")
}

func TestComposePlainText_Deterministic(t *testing.T) {
	c := NewComposer()
	sub := sampleSubmission()
	assert.Equal(t, c.ComposePlainText(sub), c.ComposePlainText(sub))
}

func TestComposeHTML(t *testing.T) {
	got := NewComposer().ComposeHTML(sampleSubmission())

	assert.Contains(t, got, "<h2>OD Request (Bulk)</h2>")
	assert.Contains(t, got, "<strong>Subject:</strong> CS301 Operating Systems<br/>")
	assert.Contains(t, got, "<strong>Faculty:</strong> Dr. Rao [F42]<br/>")
	assert.Contains(t, got, "<li>Asha Verma (21BCS104)</li>")
	assert.Contains(t, got, "<a href='https://files.example.com/tt.png'>View</a>")
	assert.Contains(t, got, "<p>Generated automatically.</p>")
}

func TestComposeHTML_EscapesRecordValues(t *testing.T) {
	sub := &models.Submission{
		Mode: models.ModeSingle,
		Students: []models.Student{
			{Name: "<script>alert(1)</script>", EnrollmentNo: `a"b'c&d`},
		},
	}

	got := NewComposer().ComposeHTML(sub)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, got, "a&quot;b&#39;c&amp;d")
}

func TestComposeHTML_EmptySections(t *testing.T) {
	got := NewComposer().ComposeHTML(&models.Submission{Mode: models.ModeSingle})

	assert.Contains(t, got, "<p>No subjects provided.</p>")
	assert.Contains(t, got, "<li>No students provided.</li>")
	assert.NotContains(t, got, "Timetable")
}
