package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/core"
)

// waitDelay bounds how long a killed binary's children may hold the output pipe.
const waitDelay = 500 * time.Millisecond

// CLIEngine implements core.Synthesizer by calling a local synthesis binary.
//
// The binary is invoked as
//
//	<binary> --text T --out_path P [--model_name M] [--speaker_wav W]
//	         [--speaker_idx S] [--language_idx L] --speed X --temperature X
//	         --repetition_penalty X --top_p X
//
// and must write a WAV file to P.
type CLIEngine struct {
	binaryPath string
	modelName  string
	log        *logger.Logger
}

// NewCLIEngine creates a new CLIEngine.
func NewCLIEngine(binaryPath, modelName string, log *logger.Logger) *CLIEngine {
	return &CLIEngine{
		binaryPath: binaryPath,
		modelName:  modelName,
		log:        log,
	}
}

// Args returns the command line for req.
func (e *CLIEngine) Args(req core.SynthesisRequest) []string {
	args := []string{
		"--text", req.Text,
		"--out_path", req.OutputPath,
	}

	model := req.Model
	if model == "" {
		model = e.modelName
	}

	if model != "" {
		args = append(args, "--model_name", model)
	}

	if req.ReferenceAudioPath != "" {
		args = append(args, "--speaker_wav", req.ReferenceAudioPath)
	}

	if req.Speaker != "" {
		args = append(args, "--speaker_idx", req.Speaker)
	}

	if req.Language != "" {
		args = append(args, "--language_idx", req.Language)
	}

	if req.Speed > 0 {
		args = append(args,
			"--speed", formatFloat(req.Speed),
			"--temperature", formatFloat(req.Temperature),
			"--repetition_penalty", formatFloat(req.RepetitionPenalty),
			"--top_p", formatFloat(req.TopP),
		)
	}

	return args
}

// Synthesize runs the binary and fails with its combined output on a non-zero exit.
func (e *CLIEngine) Synthesize(ctx context.Context, req core.SynthesisRequest) error {
	if req.Text == "" {
		return ErrTextEmpty
	}

	if req.OutputPath == "" {
		return ErrOutputPathEmpty
	}

	// #nosec G204 -- binary comes from configuration; arguments are passed without a shell
	cmd := exec.CommandContext(ctx, e.binaryPath, e.Args(req)...)
	cmd.WaitDelay = waitDelay

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tts binary execution failed: %w - output: %s", err, string(output))
	}

	e.log.Info("tts binary wrote %s", req.OutputPath)

	return nil
}

// HealthCheck verifies that the binary can be found.
func (e *CLIEngine) HealthCheck(_ context.Context) error {
	_, err := exec.LookPath(e.binaryPath)
	if err != nil {
		return fmt.Errorf("tts binary %s not found: %w", e.binaryPath, err)
	}

	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
