// main package for the voice-client, a command-line client for voice-service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/apiclient"
	"github.com/book-expert/voice-service/internal/httpapi"
	"github.com/book-expert/voice-service/internal/speech"
	"github.com/spf13/cobra"
)

// Flag descriptions.
const (
	flagURLDesc      = "Base URL of the voice-service"
	flagVoiceDesc    = "Voice preset or cloned voice id"
	flagLanguageDesc = "Language code"
	flagSpeedDesc    = "Speaking speed (0.5 to 2.0)"
	flagOutputDesc   = "Output file path (.wav)"
	flagNameDesc     = "Display name for the uploaded voice"
	flagTimeoutDesc  = "Request timeout"
	flagVerboseDesc  = "Enable verbose logging"
)

// Flag names.
const (
	flagURL      = "url"
	flagVoice    = "voice"
	flagLanguage = "language"
	flagSpeed    = "speed"
	flagOutput   = "output"
	flagName     = "name"
	flagTimeout  = "timeout"
	flagVerbose  = "verbose"
)

// Error and log messages.
const (
	errFailedToInitLogger = "failed to initialize logger: %w"
	errHealthCheckFailed  = "Health check failed: %v"
	msgServiceNotReady    = "voice-service is not ready: %v\n"
	msgServiceReady       = "voice-service is ready"
	errFailedToListVoices = "Failed to list voices: %v"
	errFailedToUpload     = "Failed to upload voice: %v"
	errFailedToSynthesize = "Failed to synthesize speech: %v"
	errFailedToDownload   = "Failed to download audio: %v"
	logClientInitialized  = "voice-client initialized (service: %s)"
	logUploading          = "Uploading %s as %q"
	logUploaded           = "Registered cloned voice %s"
	logSynthesizing       = "Synthesizing %q with voice %s"
	logSuccessfullySaved  = "Saved speech to %s"
	msgGenerated          = "Generated: %s (voice: %s)\n"
	msgUploaded           = "Uploaded: %s (%s)\n"
	msgVoiceLine          = "  %-28s %s\n"
	msgPresetsHeader      = "Presets:"
	msgClonedHeader       = "Cloned:"
)

// File names and defaults.
const (
	logFileNameDefault = "voice-client.log"
	logFileNameVerbose = "voice-client-verbose.log"
	defaultOutputFile  = "output.wav"
	defaultURL         = "http://localhost:5001"
	defaultTimeout     = 5 * time.Minute
)

// globalFlags holds the flags shared by every subcommand.
type globalFlags struct {
	url     string
	timeout time.Duration
	verbose bool
}

// speakFlags holds the flags of the speak subcommand.
type speakFlags struct {
	voice    string
	language string
	speed    float64
	output   string
}

// session is what every subcommand needs to talk to the service.
type session struct {
	client *apiclient.Client
	log    *logger.Logger
	out    io.Writer
}

func main() {
	err := newRootCmd(os.Stdout).Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing its results to out.
func newRootCmd(out io.Writer) *cobra.Command {
	var global globalFlags

	rootCmd := &cobra.Command{
		Use:           "voice-client",
		Short:         "Command-line client for voice-service",
		Long:          "List voices, upload cloned voices and synthesize speech through a running voice-service.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&global.url, flagURL, defaultURL, flagURLDesc)
	rootCmd.PersistentFlags().DurationVar(&global.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)
	rootCmd.PersistentFlags().BoolVar(&global.verbose, flagVerbose, false, flagVerboseDesc)

	rootCmd.AddCommand(
		newHealthCmd(&global),
		newVoicesCmd(&global),
		newUploadCmd(&global),
		newSpeakCmd(&global),
	)

	return rootCmd
}

func newHealthCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, global, handleHealthCheck)
		},
	}
}

func newVoicesCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List presets and cloned voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, global, listVoices)
		},
	}
}

func newUploadCmd(global *globalFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <clip>",
		Short: "Register an audio clip as a cloned voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, global, func(ctx context.Context, s *session) error {
				return uploadVoice(ctx, s, args[0], name)
			})
		},
	}

	cmd.Flags().StringVar(&name, flagName, "", flagNameDesc)

	return cmd
}

func newSpeakCmd(global *globalFlags) *cobra.Command {
	var flags speakFlags

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize text and download the generated WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, global, func(ctx context.Context, s *session) error {
				return synthesize(ctx, s, args[0], flags)
			})
		},
	}

	cmd.Flags().StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	cmd.Flags().StringVar(&flags.language, flagLanguage, speech.DefaultLanguage, flagLanguageDesc)
	cmd.Flags().Float64Var(&flags.speed, flagSpeed, speech.DefaultSpeed, flagSpeedDesc)
	cmd.Flags().StringVarP(&flags.output, flagOutput, "o", defaultOutputFile, flagOutputDesc)

	return cmd
}

// withSession opens the client log, builds the API client and runs action
// under the request timeout.
func withSession(
	cmd *cobra.Command,
	global *globalFlags,
	action func(ctx context.Context, s *session) error,
) error {
	logFileName := logFileNameDefault
	if global.verbose {
		logFileName = logFileNameVerbose
	}

	log, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf(errFailedToInitLogger, err)
	}

	defer func() { _ = log.Close() }()

	log.Info(logClientInitialized, global.url)

	ctx, cancel := context.WithTimeout(cmd.Context(), global.timeout)
	defer cancel()

	return action(ctx, &session{
		client: apiclient.New(global.url, global.timeout),
		log:    log,
		out:    cmd.OutOrStdout(),
	})
}

func handleHealthCheck(ctx context.Context, s *session) error {
	err := s.client.Ready(ctx)
	if err != nil {
		s.log.Error(errHealthCheckFailed, err)
		fmt.Fprintf(s.out, msgServiceNotReady, err)

		return err
	}

	fmt.Fprintln(s.out, msgServiceReady)

	return nil
}

func listVoices(ctx context.Context, s *session) error {
	voices, err := s.client.Voices(ctx)
	if err != nil {
		s.log.Error(errFailedToListVoices, err)

		return err
	}

	printVoices(s.out, msgPresetsHeader, voices.Presets)
	printVoices(s.out, msgClonedHeader, voices.Cloned)

	return nil
}

func printVoices(out io.Writer, header string, entries map[string]httpapi.VoiceEntry) {
	fmt.Fprintln(out, header)

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintf(out, msgVoiceLine, id, entries[id].Name)
	}
}

func uploadVoice(ctx context.Context, s *session, clipPath, name string) error {
	s.log.Info(logUploading, clipPath, name)

	response, err := s.client.Upload(ctx, clipPath, name)
	if err != nil {
		s.log.Error(errFailedToUpload, err)

		return err
	}

	s.log.Info(logUploaded, response.VoiceID)
	fmt.Fprintf(s.out, msgUploaded, response.VoiceID, response.Name)

	return nil
}

func synthesize(ctx context.Context, s *session, text string, flags speakFlags) error {
	params := speech.DefaultParameters()

	s.log.Info(logSynthesizing, speech.Preview(text), flags.voice)

	response, err := s.client.Synthesize(ctx, httpapi.TTSRequest{
		Text:              text,
		Language:          flags.language,
		VoicePreset:       flags.voice,
		Speed:             flags.speed,
		Temperature:       params.Temperature,
		RepetitionPenalty: params.RepetitionPenalty,
		TopP:              params.TopP,
	})
	if err != nil {
		s.log.Error(errFailedToSynthesize, err)

		return err
	}

	err = s.client.Download(ctx, response.AudioURL, flags.output)
	if err != nil {
		s.log.Error(errFailedToDownload, err)

		return err
	}

	s.log.Info(logSuccessfullySaved, flags.output)
	fmt.Fprintf(s.out, msgGenerated, flags.output, response.Parameters.Voice)

	return nil
}
