package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/internal/dto"
	"github.com/acconduty/od-form-api/internal/models"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/export"
	"github.com/acconduty/od-form-api/pkg/jobs"
)

const recordJobType = "student_record_write"

type submissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
}

type studentRecordStore interface {
	Create(ctx context.Context, rec *models.StudentRecord) error
	ListByParent(ctx context.Context, parentFormID string) ([]models.StudentRecord, error)
}

type sessionProvider interface {
	EnsureSession(ctx context.Context) (*models.SessionResponse, error)
}

type recordEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SubmissionService implements the save/read operations on OD forms.
type SubmissionService struct {
	forms    submissionStore
	records  studentRecordStore
	sessions sessionProvider
	composer *Composer
	queue    recordEnqueuer
	logger   *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(forms submissionStore, records studentRecordStore, sessions sessionProvider, composer *Composer, queue recordEnqueuer, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if composer == nil {
		composer = NewComposer()
	}
	return &SubmissionService{forms: forms, records: records, sessions: sessions, composer: composer, queue: queue, logger: logger}
}

// Save persists a submission and, in bulk mode, queues the derived
// per-student record writes. The id is returned only after the form row
// itself is durably accepted.
func (s *SubmissionService) Save(ctx context.Context, req dto.CreateSubmissionRequest) (*models.Submission, error) {
	mode := models.Mode(req.Mode)
	if !mode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mode must be \"single\" or \"multiple\"")
	}
	if len(req.Subjects) == 0 && len(req.Students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission needs at least one subject or student")
	}

	// An ambient session is created when none exists. Failure here never
	// blocks the save.
	if s.sessions != nil {
		if _, err := s.sessions.EnsureSession(ctx); err != nil {
			s.logger.Warn("ambient session creation failed", zap.Error(err))
		}
	}

	sub := &models.Submission{
		ID:               uuid.NewString(),
		Mode:             mode,
		Subjects:         dedupeSubjects(req.Subjects),
		Students:         req.Students,
		TimetableFileURL: req.TimetableFileURL,
		FileName:         req.FileName,
		CreatedAt:        time.Now().UTC(),
	}
	if mode == models.ModeMultiple {
		sub.Counts = &models.Counts{Subjects: len(sub.Subjects), Students: len(sub.Students)}
	}

	if err := s.forms.Create(ctx, sub); err != nil {
		return nil, err
	}

	if mode == models.ModeMultiple && s.queue != nil {
		s.enqueueRecords(sub)
	}

	s.logger.Info("submission saved",
		zap.String("id", sub.ID),
		zap.String("mode", string(sub.Mode)),
		zap.Int("subjects", len(sub.Subjects)),
		zap.Int("students", len(sub.Students)))
	return sub, nil
}

// enqueueRecords fans a bulk submission out into one derived record per
// student, each with its own pre-rendered plain-text body. Records are
// only attempted after the parent row is stored.
func (s *SubmissionService) enqueueRecords(sub *models.Submission) {
	for i := range sub.Students {
		view := &models.Submission{
			Mode:             sub.Mode,
			Subjects:         sub.Subjects,
			Students:         sub.Students[i : i+1],
			TimetableFileURL: sub.TimetableFileURL,
		}
		rec := &models.StudentRecord{
			ID:           uuid.NewString(),
			ParentFormID: sub.ID,
			Student:      sub.Students[i],
			Subjects:     sub.Subjects,
			EmailBody:    s.composer.ComposePlainText(view),
			FileName:     sub.FileName,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.queue.Enqueue(jobs.Job{ID: rec.ID, Type: recordJobType, Payload: rec}); err != nil {
			s.logger.Error("failed to enqueue student record",
				zap.String("parent_form_id", sub.ID),
				zap.String("enrollment_no", rec.Student.EnrollmentNo),
				zap.Error(err))
		}
	}
}

// HandleRecordJob is the queue handler writing one derived record.
func (s *SubmissionService) HandleRecordJob(ctx context.Context, job jobs.Job) error {
	rec, ok := job.Payload.(*models.StudentRecord)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	return s.records.Create(ctx, rec)
}

// Get returns one submission by id.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	return s.forms.FindByID(ctx, id)
}

// List returns submissions matching the filter, newest first.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	if filter.Mode != "" && !filter.Mode.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "mode must be \"single\" or \"multiple\"")
	}
	return s.forms.List(ctx, filter)
}

// ListRecords returns the derived per-student records of a submission.
func (s *SubmissionService) ListRecords(ctx context.Context, parentFormID string) ([]models.StudentRecord, error) {
	if _, err := s.forms.FindByID(ctx, parentFormID); err != nil {
		return nil, err
	}
	return s.records.ListByParent(ctx, parentFormID)
}

// Export renders one submission as a CSV or PDF document.
func (s *SubmissionService) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	sub, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	sections := []export.TitledDataset{
		{Title: "Subjects", Data: subjectDataset(sub.Subjects)},
		{Title: "Students", Data: studentDataset(sub.Students)},
	}

	switch format {
	case "", "csv":
		payload, err := export.NewCSVExporter().RenderSections(sections)
		if err != nil {
			return nil, "", err
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := export.NewPDFExporter().RenderSections(sections, "OD Form "+sub.ID)
		if err != nil {
			return nil, "", err
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func subjectDataset(subjects []models.Subject) export.Dataset {
	data := export.Dataset{Headers: []string{"Code", "Name", "Faculty", "Faculty Code", "Time", "Date"}}
	for _, s := range subjects {
		data.Rows = append(data.Rows, map[string]string{
			"Code":         s.SubjectCode,
			"Name":         s.SubjectName,
			"Faculty":      s.FacultyName,
			"Faculty Code": s.FacultyCode,
			"Time":         s.TimeSlot,
			"Date":         s.Date,
		})
	}
	return data
}

func studentDataset(students []models.Student) export.Dataset {
	data := export.Dataset{Headers: []string{"Name", "Enrollment No", "Course", "Semester", "Section"}}
	for _, st := range students {
		data.Rows = append(data.Rows, map[string]string{
			"Name":          st.Name,
			"Enrollment No": st.EnrollmentNo,
			"Course":        st.Course,
			"Semester":      st.Semester,
			"Section":       st.Section,
		})
	}
	return data
}

// dedupeSubjects keeps the first occurrence per subject code, preserving
// order. Submissions built by the importer arrive deduplicated already;
// hand-built payloads may not.
func dedupeSubjects(subjects []models.Subject) []models.Subject {
	if len(subjects) < 2 {
		return subjects
	}
	seen := make(map[string]bool, len(subjects))
	out := make([]models.Subject, 0, len(subjects))
	for _, s := range subjects {
		if seen[s.SubjectCode] {
			continue
		}
		seen[s.SubjectCode] = true
		out = append(out, s)
	}
	return out
}
