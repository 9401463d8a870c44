package batch

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressConfig controls the batch progress display
type ProgressConfig struct {
	Enabled bool
	// Writer defaults to stderr
	Writer io.Writer
}

// ProgressManager owns the mpb container for one batch run. A disabled
// manager hands out bars that do nothing.
type ProgressManager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

// ProgressBar tracks completed and failed submissions of a batch
type ProgressBar struct {
	bar     *mpb.Bar
	failed  *atomic.Int64
	enabled bool
}

// NewProgressManager creates a manager writing to config.Writer
func NewProgressManager(config ProgressConfig) *ProgressManager {
	if !config.Enabled {
		return &ProgressManager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	return &ProgressManager{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
		enabled: true,
	}
}

// CreateBar adds a bar for total files. The bar shows how many submissions
// failed next to the completion counter.
func (pm *ProgressManager) CreateBar(total int, description string) *ProgressBar {
	if !pm.enabled || pm.container == nil {
		return &ProgressBar{enabled: false}
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	failed := &atomic.Int64{}
	bar := pm.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string {
				if n := failed.Load(); n > 0 {
					return fmt.Sprintf("%d failed ", n)
				}
				return ""
			}, decor.WCSyncSpace),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), "done",
			),
		),
	)

	return &ProgressBar{
		bar:     bar,
		failed:  failed,
		enabled: true,
	}
}

// Done advances the bar by one file that started at start
func (pb *ProgressBar) Done(start time.Time, failed bool) {
	if !pb.enabled || pb.bar == nil {
		return
	}
	if failed {
		pb.failed.Add(1)
	}
	pb.bar.EwmaIncrement(time.Since(start))
}

// Failed returns the number of failed files seen so far
func (pb *ProgressBar) Failed() int64 {
	if !pb.enabled || pb.failed == nil {
		return 0
	}
	return pb.failed.Load()
}

// Abort stops the bar early, leaving it on screen
func (pb *ProgressBar) Abort() {
	if pb.enabled && pb.bar != nil {
		pb.bar.Abort(false)
	}
}

// Wait blocks until every bar has been rendered for the last time
func (pm *ProgressManager) Wait() {
	if pm.enabled && pm.container != nil {
		pm.container.Wait()
	}
}

// IsTTY reports whether writer is an interactive terminal
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
