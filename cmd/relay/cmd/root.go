package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"whisper-relay/cmd/relay/cmd/serve"
	"whisper-relay/cmd/relay/cmd/transcribe"
	"whisper-relay/cmd/relay/cmd/version"
	"whisper-relay/internal/config"
)

var (
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay recorded or uploaded audio to OpenAI Whisper and return the transcript",
	Long: `Relay recorded or uploaded audio to OpenAI Whisper and return the transcript.
- serve starts the HTTP API and the desktop IPC bridge
- transcribe sends local files through the same path from the command line
- Configuration comes from .env, an optional YAML file and RELAY_* variables.`,
	SilenceUsage:     true,
	TraverseChildren: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == version.Cmd.Name() {
			return nil
		}
		cfg, envFile, err := config.InitializeConfig(configFile)
		if err != nil {
			return err
		}
		if !cfg.HasAPIKey() {
			fmt.Fprintf(os.Stderr, "⚠️  %s is not set, every transcription will fail until it is configured\n", config.EnvOpenAIAPIKey)
		}
		serve.Configure(cfg, envFile)
		transcribe.Configure(cfg, verbose)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default $RELAY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "verbose output")
}
