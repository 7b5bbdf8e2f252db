package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acconduty/od-form-api/internal/models"
	"github.com/acconduty/od-form-api/pkg/errors"
)

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO od_forms").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{
		ID:        "form-1",
		Mode:      models.ModeMultiple,
		Subjects:  []models.Subject{{SubjectCode: "CS301"}},
		Students:  []models.Student{{EnrollmentNo: "21BCS104"}},
		Counts:    &models.Counts{Subjects: 1, Students: 1},
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreatePermissionDenied(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO od_forms").
		WillReturnError(&pq.Error{Code: "42501"})

	err := repo.Create(context.Background(), &models.Submission{ID: "form-1", Mode: models.ModeSingle, CreatedAt: time.Now()})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPermissionDenied.Code, errors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "mode", "subjects", "students", "timetable_file_url", "file_name", "counts", "created_at"}).
		AddRow("form-1", "multiple",
			[]byte(`[{"subjectCode":"CS301","subjectName":"Operating Systems"}]`),
			[]byte(`[{"name":"Asha Verma","enrollmentNo":"21BCS104"}]`),
			nil, nil, []byte(`{"subjects":1,"students":1}`), created)
	mock.ExpectQuery("SELECT id, mode, subjects, students, timetable_file_url, file_name, counts, created_at").
		WithArgs("form-1").
		WillReturnRows(rows)

	sub, err := repo.FindByID(context.Background(), "form-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeMultiple, sub.Mode)
	require.Len(t, sub.Subjects, 1)
	assert.Equal(t, "CS301", sub.Subjects[0].SubjectCode)
	require.Len(t, sub.Students, 1)
	assert.Equal(t, "21BCS104", sub.Students[0].EnrollmentNo)
	require.NotNil(t, sub.Counts)
	assert.Equal(t, 1, sub.Counts.Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery("SELECT id, mode, subjects, students").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.Equal(t, errors.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "mode", "subjects", "students", "timetable_file_url", "file_name", "counts", "created_at"}).
		AddRow("form-2", "single", []byte(`[]`), []byte(`[]`), nil, nil, nil, time.Now()).
		AddRow("form-1", "single", []byte(`[]`), []byte(`[]`), nil, nil, nil, time.Now().Add(-time.Hour))
	mock.ExpectQuery("SELECT id, mode, subjects, students, timetable_file_url, file_name, counts, created_at").
		WithArgs("single").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM od_forms`).
		WithArgs("single").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	subs, total, err := repo.List(context.Background(), models.SubmissionFilter{Mode: models.ModeSingle})
	require.NoError(t, err)
	assert.Len(t, subs, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "form-2", subs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
