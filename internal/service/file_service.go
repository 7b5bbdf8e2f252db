package service

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/internal/dto"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/mail"
	"github.com/acconduty/od-form-api/pkg/storage"
)

// timetableDir is the storage subdirectory for uploaded timetable images.
const timetableDir = "timetables"

var allowedTimetableExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

// FileService stores timetable uploads and resolves signed download
// tokens back to files on disk.
type FileService struct {
	store          *storage.LocalStorage
	signer         *storage.SignedURLSigner
	publicBaseURL  string
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewFileService constructs a FileService.
func NewFileService(store *storage.LocalStorage, signer *storage.SignedURLSigner, publicBaseURL string, maxUploadBytes int64, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{store: store, signer: signer, publicBaseURL: publicBaseURL, maxUploadBytes: maxUploadBytes, logger: logger}
}

// SaveTimetable stores an uploaded timetable and returns a signed
// download URL suitable for embedding in submissions and emails.
func (s *FileService) SaveTimetable(filename string, size int64, r io.Reader) (*dto.UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedTimetableExts[ext] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported timetable file type: "+ext)
	}
	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file too large")
	}

	fileID := uuid.NewString()
	relPath := filepath.Join(timetableDir, fileID+ext)
	if s.maxUploadBytes > 0 {
		r = io.LimitReader(r, s.maxUploadBytes)
	}
	if _, err := s.store.SaveStream(relPath, r); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}

	token, _, err := s.signer.Generate(fileID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download URL")
	}

	s.logger.Info("timetable stored", zap.String("file_id", fileID), zap.String("file", relPath))
	return &dto.UploadResponse{
		FileID:      fileID,
		FileName:    filename,
		DownloadURL: s.publicBaseURL + "/" + token,
		Size:        size,
	}, nil
}

// OpenByToken resolves a signed token and opens the file it points at.
// Preview mail files stay readable after expiry so a delivered link does
// not go dark mid-debugging; timetable links expire hard.
func (s *FileService) OpenByToken(token string) (io.ReadCloser, string, error) {
	_, relPath, _, err := s.signer.Parse(token, true)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	if !strings.HasPrefix(relPath, mail.PreviewDir+"/") {
		if _, _, _, err := s.signer.Parse(token, false); err != nil {
			return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
		}
	}

	f, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	return f, filepath.Base(relPath), nil
}
