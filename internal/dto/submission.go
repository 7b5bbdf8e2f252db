package dto

import (
	"time"

	"github.com/acconduty/od-form-api/internal/models"
)

// CreateSubmissionRequest is the payload for POST /submissions.
type CreateSubmissionRequest struct {
	Mode             string           `json:"mode" binding:"required"`
	Subjects         []models.Subject `json:"subjects"`
	Students         []models.Student `json:"students"`
	TimetableFileURL *string          `json:"timetableFileUrl,omitempty"`
	FileName         *string          `json:"fileName,omitempty"`
}

// SubmissionResponse represents a stored submission.
type SubmissionResponse struct {
	ID               string           `json:"id"`
	Mode             string           `json:"mode"`
	Subjects         []models.Subject `json:"subjects"`
	Students         []models.Student `json:"students"`
	TimetableFileURL *string          `json:"timetableFileUrl,omitempty"`
	FileName         *string          `json:"fileName,omitempty"`
	Counts           *models.Counts   `json:"counts,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// ListSubmissionsRequest captures query parameters for GET /submissions.
type ListSubmissionsRequest struct {
	Mode     string `form:"mode"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=20"`
}

// StudentRecordResponse represents one fanned-out per-student record.
type StudentRecordResponse struct {
	ID           string           `json:"id"`
	ParentFormID string           `json:"parentFormId"`
	Student      models.Student   `json:"student"`
	Subjects     []models.Subject `json:"subjects"`
	EmailBody    string           `json:"emailBody"`
	FileName     *string          `json:"fileName,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// SubmissionFromModel converts a stored submission for API output.
func SubmissionFromModel(s *models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:               s.ID,
		Mode:             string(s.Mode),
		Subjects:         s.Subjects,
		Students:         s.Students,
		TimetableFileURL: s.TimetableFileURL,
		FileName:         s.FileName,
		Counts:           s.Counts,
		CreatedAt:        s.CreatedAt,
	}
}

// StudentRecordFromModel converts a stored student record for API output.
func StudentRecordFromModel(r *models.StudentRecord) StudentRecordResponse {
	return StudentRecordResponse{
		ID:           r.ID,
		ParentFormID: r.ParentFormID,
		Student:      r.Student,
		Subjects:     r.Subjects,
		EmailBody:    r.EmailBody,
		FileName:     r.FileName,
		CreatedAt:    r.CreatedAt,
	}
}
