package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/acconduty/od-form-api/internal/models"
)

type studentRecordRow struct {
	ID           string         `db:"id"`
	ParentFormID string         `db:"parent_form_id"`
	Student      types.JSONText `db:"student"`
	Subjects     types.JSONText `db:"subjects"`
	EmailBody    string         `db:"email_body"`
	FileName     *string        `db:"file_name"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (row *studentRecordRow) toModel() (*models.StudentRecord, error) {
	rec := &models.StudentRecord{
		ID:           row.ID,
		ParentFormID: row.ParentFormID,
		EmailBody:    row.EmailBody,
		FileName:     row.FileName,
		CreatedAt:    row.CreatedAt,
	}
	if err := json.Unmarshal(row.Student, &rec.Student); err != nil {
		return nil, fmt.Errorf("decode student for %s: %w", row.ID, err)
	}
	if len(row.Subjects) > 0 {
		if err := json.Unmarshal(row.Subjects, &rec.Subjects); err != nil {
			return nil, fmt.Errorf("decode subjects for %s: %w", row.ID, err)
		}
	}
	return rec, nil
}

// StudentRecordRepository persists the per-student fan-out rows derived
// from bulk submissions. Append-only, same as the parent forms.
type StudentRecordRepository struct {
	db *sqlx.DB
}

// NewStudentRecordRepository constructs a StudentRecordRepository.
func NewStudentRecordRepository(db *sqlx.DB) *StudentRecordRepository {
	return &StudentRecordRepository{db: db}
}

// Create inserts one derived student record.
func (r *StudentRecordRepository) Create(ctx context.Context, rec *models.StudentRecord) error {
	student, err := json.Marshal(rec.Student)
	if err != nil {
		return fmt.Errorf("encode student: %w", err)
	}
	subjects, err := json.Marshal(rec.Subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}

	query := `INSERT INTO student_od_data (id, parent_form_id, student, subjects, email_body, file_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ParentFormID, types.JSONText(student), types.JSONText(subjects),
		rec.EmailBody, rec.FileName, rec.CreatedAt); err != nil {
		return mapStoreError(err, "insert student od record")
	}
	return nil
}

// ListByParent returns all derived records for one submission, oldest
// first.
func (r *StudentRecordRepository) ListByParent(ctx context.Context, parentFormID string) ([]models.StudentRecord, error) {
	query := `SELECT id, parent_form_id, student, subjects, email_body, file_name, created_at
        FROM student_od_data WHERE parent_form_id = $1 ORDER BY created_at ASC`
	var rows []studentRecordRow
	if err := r.db.SelectContext(ctx, &rows, query, parentFormID); err != nil {
		return nil, mapStoreError(err, "list student od records")
	}

	records := make([]models.StudentRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}
