// Package batch transcribes local audio files through the relay, the same
// path HTTP uploads take.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/app/model"
	"whisper-relay/internal/app/relay"
)

// DefaultConcurrency is the number of files transcribed at once
const DefaultConcurrency = 2

// mediaExtensions are picked up when a directory is given
var mediaExtensions = []string{".mp3", ".wav", ".webm", ".ogg", ".mp4", ".avi", ".mov", ".m4a", ".mpeg"}

// Options controls a batch run
type Options struct {
	Language    string
	Concurrency int
	Progress    ProgressConfig
}

// Outcome is the result for one input file
type Outcome struct {
	Path     string
	MimeType string
	Result   model.TranscriptionResult
}

// Runner submits files to the relay
type Runner struct {
	relay  relay.Submitter
	logger *zap.Logger
}

// NewRunner creates a batch runner
func NewRunner(submitter relay.Submitter, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{relay: submitter, logger: logger}
}

// Do transcribes every file named by inputs. Directories are expanded to the
// media files they contain, oldest first. Outcomes keep the input order.
func (r *Runner) Do(ctx context.Context, inputs []string, opts Options) ([]Outcome, error) {
	paths, err := CollectFiles(inputs)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, apperrors.Validation("no audio or video files found")
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	progress := NewProgressManager(opts.Progress)
	bar := progress.CreateBar(len(paths), "Transcribing")

	outcomes := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			start := time.Now()
			outcomes[i] = r.transcribeFile(gctx, path, opts.Language)
			bar.Done(start, outcomes[i].Result.Failed())
			return gctx.Err()
		})
	}
	err = g.Wait()
	if err != nil {
		bar.Abort()
	}
	progress.Wait()

	return outcomes, err
}

func (r *Runner) transcribeFile(ctx context.Context, path, language string) Outcome {
	outcome := Outcome{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		outcome.Result = model.Failure(apperrors.Wrapf(apperrors.KindValidation, err, "cannot read %s", path))
		return outcome
	}
	outcome.MimeType = DetectMIME(path, data)

	r.logger.Debug("Submitting file", zap.String("path", path), zap.String("mime", outcome.MimeType))
	outcome.Result = r.relay.SubmitFile(ctx, relay.FileSubmission{
		Data:       data,
		MimeType:   outcome.MimeType,
		OriginName: filepath.Base(path),
		Language:   language,
		Channel:    model.ChannelCLI,
	})
	return outcome
}

// DetectMIME sniffs the content type, falling back to the extension when the
// sniffed type is not accepted for upload.
func DetectMIME(path string, data []byte) string {
	sniffed := relay.NormalizeMIME(mimetype.Detect(data).String())
	if relay.IsAllowedMIME(sniffed) {
		return sniffed
	}
	if byExt := extensionMIME(path); byExt != "" {
		return byExt
	}
	return sniffed
}

func extensionMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "video/webm"
	case ".ogg":
		return "audio/ogg"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	}
	return ""
}

// CollectFiles expands inputs into a list of files. Directories contribute
// their media files, sorted by modification time.
func CollectFiles(inputs []string) ([]string, error) {
	var paths []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.KindValidation, err, "cannot access %s", input)
		}
		if !info.IsDir() {
			paths = append(paths, input)
			continue
		}

		found, err := mediaFilesIn(input)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return lo.Uniq(paths), nil
}

func mediaFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindValidation, err, "failed to read input directory %s", dir)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() || !lo.Contains(mediaExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	return lo.Map(files, func(f fileInfo, _ int) string { return f.path }), nil
}

// WriteReport prints one block per outcome and returns the number of failures
func WriteReport(w io.Writer, outcomes []Outcome) int {
	failed := 0
	for _, o := range outcomes {
		if o.Result.Failed() {
			failed++
			fmt.Fprintf(w, "✗ %s [%s] %s\n", o.Path, o.Result.ErrorKind, o.Result.Message)
			continue
		}
		fmt.Fprintf(w, "✓ %s\n%s\n\n", o.Path, o.Result.Text)
	}
	return failed
}
