package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acconduty/od-form-api/internal/models"
)

func TestStudentRecordRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewStudentRecordRepository(db)

	mock.ExpectExec("INSERT INTO student_od_data").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.StudentRecord{
		ID:           "rec-1",
		ParentFormID: "form-1",
		Student:      models.Student{Name: "Asha Verma", EnrollmentNo: "21BCS104"},
		Subjects:     []models.Subject{{SubjectCode: "CS301"}},
		EmailBody:    "OD Request (Bulk)",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRecordRepositoryListByParent(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewStudentRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "parent_form_id", "student", "subjects", "email_body", "file_name", "created_at"}).
		AddRow("rec-1", "form-1", []byte(`{"name":"Asha Verma","enrollmentNo":"21BCS104"}`), []byte(`[{"subjectCode":"CS301"}]`), "body", nil, time.Now())
	mock.ExpectQuery("SELECT id, parent_form_id, student, subjects, email_body, file_name, created_at").
		WithArgs("form-1").
		WillReturnRows(rows)

	records, err := repo.ListByParent(context.Background(), "form-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "21BCS104", records[0].Student.EnrollmentNo)
	require.Len(t, records[0].Subjects, 1)
	assert.Equal(t, "CS301", records[0].Subjects[0].SubjectCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
