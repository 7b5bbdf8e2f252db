package service

import (
	"fmt"
	"strings"

	"github.com/acconduty/od-form-api/internal/models"
)

// Composer renders submission email bodies. Output is deterministic for a
// given submission: same records in, same bytes out.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

func modeLabel(mode models.Mode) string {
	if mode == models.ModeMultiple {
		return "Bulk"
	}
	return "Single"
}

// ComposePlainText renders the plain-text body used for per-student
// records and text previews.
func (c *Composer) ComposePlainText(sub *models.Submission) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("OD Request (%s)", modeLabel(sub.Mode)))
	lines = append(lines, "")
	lines = append(lines, "Subjects:")
	for i, s := range sub.Subjects {
		lines = append(lines, fmt.Sprintf("%d. %s %s", i+1, s.SubjectCode, s.SubjectName))
		lines = append(lines, fmt.Sprintf("   Faculty: %s [%s] | Time: %s | Date: %s", s.FacultyName, s.FacultyCode, s.TimeSlot, s.Date))
	}
	if len(sub.Subjects) == 0 {
		lines = append(lines, "  (none)")
	}
	lines = append(lines, "")
	lines = append(lines, "Students:")
	for i, st := range sub.Students {
		lines = append(lines, fmt.Sprintf("%d. %s (%s) - %s %s %s", i+1, st.Name, st.EnrollmentNo, st.Course, st.Semester, st.Section))
	}
	if len(sub.Students) == 0 {
		lines = append(lines, "  (none)")
	}
	if sub.TimetableFileURL != nil && *sub.TimetableFileURL != "" {
		lines = append(lines, "")
		lines = append(lines, "Timetable: "+*sub.TimetableFileURL)
	}
	lines = append(lines, "")
	lines = append(lines, "Regards,")
	lines = append(lines, "ACConduty")
	return strings.Join(lines, "\n")
}

// ComposeHTML renders the HTML body sent by the mail dispatcher. All
// record values are escaped before interpolation.
func (c *Composer) ComposeHTML(sub *models.Submission) string {
	var subjectBlocks strings.Builder
	for _, s := range sub.Subjects {
		fmt.Fprintf(&subjectBlocks, "<div style='margin-bottom:12px;'>\n"+
			"  <strong>Subject:</strong> %s %s<br/>\n"+
			"  <strong>Faculty:</strong> %s [%s]<br/>\n"+
			"  <strong>Time:</strong> %s<br/>\n"+
			"  <strong>Date:</strong> %s\n"+
			"</div>",
			escapeHTML(s.SubjectCode), escapeHTML(s.SubjectName),
			escapeHTML(s.FacultyName), escapeHTML(s.FacultyCode),
			escapeHTML(s.TimeSlot), escapeHTML(s.Date))
	}
	subjectsHTML := subjectBlocks.String()
	if subjectsHTML == "" {
		subjectsHTML = "<p>No subjects provided.</p>"
	}

	var studentItems strings.Builder
	for _, st := range sub.Students {
		fmt.Fprintf(&studentItems, "<li>%s (%s)</li>", escapeHTML(st.Name), escapeHTML(st.EnrollmentNo))
	}
	studentsHTML := studentItems.String()
	if studentsHTML == "" {
		studentsHTML = "<li>No students provided.</li>"
	}

	timetableHTML := ""
	if sub.TimetableFileURL != nil && *sub.TimetableFileURL != "" {
		timetableHTML = fmt.Sprintf("<p>Timetable: <a href='%s'>View</a></p>", escapeHTML(*sub.TimetableFileURL))
	}

	return fmt.Sprintf("<!DOCTYPE html><html><body style='font-family:Arial,sans-serif;'>\n"+
		"  <h2>OD Request (%s)</h2>\n"+
		"  <h3>Subjects</h3>\n"+
		"  %s\n"+
		"  <h3>Students</h3>\n"+
		"  <ul>%s</ul>\n"+
		"  %s\n"+
		"  <p>Generated automatically.</p>\n"+
		"</body></html>",
		modeLabel(sub.Mode), subjectsHTML, studentsHTML, timetableHTML)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
