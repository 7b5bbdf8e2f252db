package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/acconduty/od-form-api/internal/models"
	"github.com/acconduty/od-form-api/pkg/errors"
)

// pgInsufficientPrivilege is the Postgres error code raised when the API
// role is missing a grant.
const pgInsufficientPrivilege = "42501"

// mapStoreError converts access-control rejections into the actionable
// permission error and passes everything else through.
func mapStoreError(err error, op string) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && string(pqErr.Code) == pgInsufficientPrivilege {
		return errors.Wrap(err, errors.ErrPermissionDenied.Code, errors.ErrPermissionDenied.Status, errors.ErrPermissionDenied.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// submissionRow is the database shape of a submission: record lists are
// stored as JSONB documents.
type submissionRow struct {
	ID               string         `db:"id"`
	Mode             string         `db:"mode"`
	Subjects         types.JSONText `db:"subjects"`
	Students         types.JSONText `db:"students"`
	TimetableFileURL *string        `db:"timetable_file_url"`
	FileName         *string        `db:"file_name"`
	Counts           types.JSONText `db:"counts"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (row *submissionRow) toModel() (*models.Submission, error) {
	sub := &models.Submission{
		ID:               row.ID,
		Mode:             models.Mode(row.Mode),
		TimetableFileURL: row.TimetableFileURL,
		FileName:         row.FileName,
		CreatedAt:        row.CreatedAt,
	}
	if len(row.Subjects) > 0 {
		if err := json.Unmarshal(row.Subjects, &sub.Subjects); err != nil {
			return nil, fmt.Errorf("decode subjects for %s: %w", row.ID, err)
		}
	}
	if len(row.Students) > 0 {
		if err := json.Unmarshal(row.Students, &sub.Students); err != nil {
			return nil, fmt.Errorf("decode students for %s: %w", row.ID, err)
		}
	}
	if len(row.Counts) > 0 && string(row.Counts) != "null" {
		sub.Counts = &models.Counts{}
		if err := json.Unmarshal(row.Counts, sub.Counts); err != nil {
			return nil, fmt.Errorf("decode counts for %s: %w", row.ID, err)
		}
	}
	return sub, nil
}

// SubmissionRepository persists OD form submissions. The store is
// append-only: inserts and reads, no updates or deletes.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	subjects, err := json.Marshal(sub.Subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	students, err := json.Marshal(sub.Students)
	if err != nil {
		return fmt.Errorf("encode students: %w", err)
	}
	var counts interface{}
	if sub.Counts != nil {
		encoded, err := json.Marshal(sub.Counts)
		if err != nil {
			return fmt.Errorf("encode counts: %w", err)
		}
		counts = types.JSONText(encoded)
	}

	query := `INSERT INTO od_forms (id, mode, subjects, students, timetable_file_url, file_name, counts, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		sub.ID, string(sub.Mode), types.JSONText(subjects), types.JSONText(students),
		sub.TimetableFileURL, sub.FileName, counts, sub.CreatedAt); err != nil {
		return mapStoreError(err, "insert od form")
	}
	return nil
}

// FindByID returns one submission, or ErrNotFound.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT id, mode, subjects, students, timetable_file_url, file_name, counts, created_at
        FROM od_forms WHERE id = $1`
	var row submissionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, mapStoreError(err, "get od form")
	}
	return row.toModel()
}

// List returns submissions newest first, with the total count for
// pagination.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Mode != "" {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", len(args)+1))
		args = append(args, string(filter.Mode))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, mode, subjects, students, timetable_file_url, file_name, counts, created_at
        FROM od_forms WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)

	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, mapStoreError(err, "list od forms")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM od_forms WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, mapStoreError(err, "count od forms")
	}

	subs := make([]models.Submission, 0, len(rows))
	for i := range rows {
		sub, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, *sub)
	}
	return subs, total, nil
}
