package dto

import (
	"github.com/acconduty/od-form-api/internal/models"
)

// ImportResponse is the outcome of parsing an uploaded tabular file.
type ImportResponse struct {
	Subjects []models.Subject `json:"subjects"`
	Students []models.Student `json:"students"`
	Counts   models.Counts    `json:"counts"`
	FileName string           `json:"fileName"`
}

// UploadResponse describes a stored timetable file.
type UploadResponse struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
	Size        int64  `json:"size"`
}
