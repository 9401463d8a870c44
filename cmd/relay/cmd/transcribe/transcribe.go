package transcribe

import (
	"fmt"

	"github.com/spf13/cobra"
	"whisper-relay/internal/app"
	"whisper-relay/internal/app/batch"
	"whisper-relay/internal/app/logging"
	"whisper-relay/internal/config"
)

var (
	cfg     *config.Config
	verbose bool

	language    string
	concurrency int
	noProgress  bool
)

// Configure hands the loaded configuration to the command
func Configure(c *config.Config, v bool) {
	cfg = c
	verbose = v
}

func init() {
	Cmd.Flags().StringVarP(&language, "language", "l", "", "language code sent to Whisper (default from config)")
	Cmd.Flags().IntVarP(&concurrency, "concurrency", "j", batch.DefaultConcurrency, "files transcribed at once")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <file-or-dir>...",
	Short: "Transcribe local audio or video files",
	Long: `Transcribe local audio or video files

- Files go through the same validation as HTTP uploads
- Directories are expanded to the media files they contain, oldest first
- Exits non-zero when any file fails`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.NewCLILogger(verbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		runner, err := app.InitializeBatchRunner(cfg, logger)
		if err != nil {
			return err
		}

		outcomes, err := runner.Do(cmd.Context(), args, batch.Options{
			Language:    language,
			Concurrency: concurrency,
			Progress:    batch.ProgressConfig{Enabled: !noProgress && batch.IsTTY(cmd.ErrOrStderr()), Writer: cmd.ErrOrStderr()},
		})
		if err != nil && len(outcomes) == 0 {
			return err
		}

		if failed := batch.WriteReport(cmd.OutOrStdout(), outcomes); failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
		}
		return err
	},
}
