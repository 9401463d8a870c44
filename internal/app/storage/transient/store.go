// Package transient manages the request-scoped temporary files that hold
// submitted audio while the provider call is in flight.
package transient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	apperrors "whisper-relay/internal/app/errors"
)

const (
	// DefaultExtension is used when the content type cannot be sniffed
	DefaultExtension = ".mp3"
	// MaxNameLength is the longest base name most filesystems accept
	MaxNameLength = 255
)

// File is a handle on one temporary audio file
type File struct {
	path string
	// dir is the per-submission directory created for caller-named files
	dir string
}

// Path returns the location of the file on disk
func (f *File) Path() string {
	return f.path
}

// Name returns the base name of the file
func (f *File) Name() string {
	return filepath.Base(f.path)
}

// Store creates and releases temporary audio files under one uploads directory
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a store rooted at dir, creating the directory if needed
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("transient: resolve uploads directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("transient: create uploads directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: abs, logger: logger, now: time.Now}, nil
}

// Dir returns the absolute uploads directory
func (s *Store) Dir() string {
	return s.dir
}

// Create writes data to a new uniquely named file. A non-empty preferredName
// is used as the file's base name inside a per-submission directory;
// otherwise the name is derived from the current time and a random id.
func (s *Store) Create(ctx context.Context, data []byte, preferredName string) (*File, error) {
	if len(data) == 0 {
		return nil, apperrors.ErrEmptyAudio
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "temporary file not created")
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "failed to create uploads directory")
	}

	file := &File{}
	if preferredName != "" {
		if err := ValidateName(preferredName); err != nil {
			return nil, err
		}
		file.dir = filepath.Join(s.dir, uuid.NewString())
		if err := os.Mkdir(file.dir, 0o750); err != nil {
			return nil, apperrors.Wrap(apperrors.KindStorage, err, "failed to create submission directory")
		}
		file.path = filepath.Join(file.dir, preferredName)
	} else {
		name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), extensionFor(data))
		file.path = filepath.Join(s.dir, name)
	}

	if err := writeExclusive(file.path, data); err != nil {
		if rerr := s.Release(file); rerr != nil {
			s.logger.Warn("failed to clean up partial temporary file", zap.String("path", file.path), zap.Error(rerr))
		}
		return nil, apperrors.Wrap(apperrors.KindStorage, err, apperrors.ErrFileWriteFailed.Message())
	}

	s.logger.Debug("temporary audio file created",
		zap.String("path", file.path),
		zap.Int("bytes", len(data)),
	)
	return file, nil
}

// Release deletes the file and its per-submission directory.
// Releasing a file that is already gone is not an error.
func (s *Store) Release(f *File) error {
	if f == nil {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.KindStorage, err, apperrors.ErrFileDeleteFailed.Message())
	}
	if f.dir != "" {
		if err := os.Remove(f.dir); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrap(apperrors.KindStorage, err, apperrors.ErrFileDeleteFailed.Message())
		}
	}
	return nil
}

// With writes data to a temporary file, calls fn with its path and removes
// the file on every exit path. Removal failures are logged, not returned.
func (s *Store) With(ctx context.Context, data []byte, preferredName string, fn func(path string) error) error {
	file, err := s.Create(ctx, data, preferredName)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Release(file); err != nil {
			s.logger.Warn("failed to remove temporary audio file",
				zap.String("path", file.path),
				zap.Error(err),
			)
		}
	}()

	return fn(file.path)
}

// ValidateName rejects caller-supplied names that could escape the uploads directory
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperrors.Wrap(apperrors.KindValidation, apperrors.ErrInvalidFileName, "file name is empty")
	case name == ".":
		return apperrors.Validationf("invalid file name %q", name)
	case len(name) > MaxNameLength:
		return apperrors.Validationf("invalid file name: longer than %d bytes", MaxNameLength)
	case strings.ContainsAny(name, `/\`):
		return apperrors.Validationf("invalid file name %q: path separators are not allowed", name)
	case strings.Contains(name, ".."):
		return apperrors.Validationf("invalid file name %q: parent references are not allowed", name)
	case strings.ContainsRune(name, 0):
		return apperrors.Validationf("invalid file name %q", name)
	case filepath.IsAbs(name) || filepath.VolumeName(name) != "":
		return apperrors.Validationf("invalid file name %q: absolute paths are not allowed", name)
	}
	return nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// extensionFor sniffs data and returns an audio or video extension, or DefaultExtension
func extensionFor(data []byte) string {
	mtype := mimetype.Detect(data)
	if IsMediaType(mtype.String()) && mtype.Extension() != "" {
		return mtype.Extension()
	}
	return DefaultExtension
}

// IsMediaType reports whether a MIME string names audio or video content
func IsMediaType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "audio/") || strings.HasPrefix(mimeType, "video/")
}

// Sniff returns the detected MIME type of data without parameters
func Sniff(data []byte) string {
	mtype := mimetype.Detect(data).String()
	if i := strings.IndexByte(mtype, ';'); i >= 0 {
		mtype = mtype[:i]
	}
	return strings.TrimSpace(mtype)
}
