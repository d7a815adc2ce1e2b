package ingest

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"video-toolbox/domain/asset"
)

const nameAttempts = 5

// Service admits uploaded files as assets
type Service struct {
	validator *Validator
	store     asset.Store
	files     asset.FileStore
	uploadDir string
	now       func() time.Time
	logger    *slog.Logger
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithClock sets the time source used for naming stored files
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger used for cleanup warnings
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new ingest service storing files under uploadDir
func NewService(validator *Validator, store asset.Store, files asset.FileStore, uploadDir string, opts ...ServiceOption) *Service {
	s := &Service{
		validator: validator,
		store:     store,
		files:     files,
		uploadDir: uploadDir,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// UploadInput is a file on its way in
type UploadInput struct {
	OwnerID     string
	FileName    string // original client-side name, only the extension is kept
	ContentType string
	Body        io.Reader
}

// AdmitInput describes a file that is already stored
type AdmitInput struct {
	OwnerID     string
	Path        string
	Size        int64
	ContentType string
}

// Upload stores the body under a fresh owner-scoped name and admits it.
// The type is checked before anything is written.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*asset.Asset, error) {
	if in.OwnerID == "" {
		return nil, asset.Errorf(asset.ErrUnauthorized, "caller identity is required")
	}
	if in.Body == nil {
		return nil, asset.Errorf(asset.ErrValidation, "No file uploaded.")
	}
	if err := s.validator.CheckContentType(in.ContentType); err != nil {
		return nil, err
	}

	path, size, err := s.save(in)
	if err != nil {
		return nil, err
	}

	return s.Admit(ctx, AdmitInput{
		OwnerID:     in.OwnerID,
		Path:        path,
		Size:        size,
		ContentType: in.ContentType,
	})
}

// Admit validates a stored candidate and records it. On any failure the
// candidate file is removed and no record exists.
func (s *Service) Admit(ctx context.Context, in AdmitInput) (*asset.Asset, error) {
	info, err := s.validator.Validate(ctx, in.Path, in.ContentType)
	if err != nil {
		s.discard(in.Path)
		return nil, err
	}

	a := &asset.Asset{
		OwnerID:  in.OwnerID,
		Path:     in.Path,
		Size:     in.Size,
		Duration: info.DurationSeconds,
	}

	if err := s.store.CreateAsset(ctx, a); err != nil {
		s.discard(in.Path)
		return nil, asset.Wrap(asset.ErrStorage, err, "failed to record uploaded video")
	}

	s.logger.Info("video admitted", "id", a.ID, "owner", a.OwnerID, "size", a.Size, "duration", a.Duration)
	return a, nil
}

// save writes the body to a name no other upload holds. A taken name is
// never removed here; the next nanosecond is tried instead.
func (s *Service) save(in UploadInput) (string, int64, error) {
	now := s.now()
	for attempt := 0; attempt < nameAttempts; attempt++ {
		path := asset.UploadPath(s.uploadDir, in.OwnerID, in.FileName, now.Add(time.Duration(attempt)))

		size, err := s.files.Save(path, in.Body)
		if errors.Is(err, fs.ErrExist) {
			s.logger.Debug("upload name taken", "path", path)
			continue
		}
		if err != nil {
			s.discard(path)
			return "", 0, asset.Wrap(asset.ErrStorage, err, "failed to store uploaded file")
		}
		return path, size, nil
	}
	return "", 0, asset.Errorf(asset.ErrStorage, "failed to store uploaded file: no free name after %d attempts", nameAttempts)
}

func (s *Service) discard(path string) {
	if !s.files.Exists(path) {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.logger.Warn("failed to delete rejected upload", "path", path, "error", err)
	}
}
