package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/book-expert/logger"
)

var (
	// ErrConverterFailed is returned when the converter exits with an error. The
	// wrapped message carries the converter's captured output.
	ErrConverterFailed = errors.New("audio converter failed")
	// ErrConverterTimeout is returned when the converter runs past its timeout.
	// Callers may retry.
	ErrConverterTimeout = errors.New("audio converter timed out")
)

// waitDelay bounds how long Convert waits for the output pipes after the
// converter was killed; a child process may still hold them open.
const waitDelay = 500 * time.Millisecond

// FFmpegConverter implements core.Converter by calling the ffmpeg binary.
type FFmpegConverter struct {
	binaryPath string
	timeout    time.Duration
	target     Format
	log        *logger.Logger
}

// NewFFmpegConverter creates a converter that normalizes to target.
func NewFFmpegConverter(
	binaryPath string,
	timeout time.Duration,
	target Format,
	log *logger.Logger,
) (*FFmpegConverter, error) {
	err := target.Validate()
	if err != nil {
		return nil, err
	}

	return &FFmpegConverter{
		binaryPath: binaryPath,
		timeout:    timeout,
		target:     target,
		log:        log,
	}, nil
}

// Args returns the ffmpeg command line for converting inputPath into outputPath.
func (c *FFmpegConverter) Args(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-acodec", c.target.Codec(),
		"-ac", strconv.Itoa(c.target.Channels),
		"-ar", strconv.Itoa(c.target.SampleRate),
		outputPath,
	}
}

// Convert runs ffmpeg and returns ErrConverterFailed with the combined output
// when it exits non-zero, or ErrConverterTimeout when it runs past the timeout.
func (c *FFmpegConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// #nosec G204 -- binary comes from configuration, paths are generated by the ingestor
	cmd := exec.CommandContext(ctx, c.binaryPath, c.Args(inputPath, outputPath)...)
	cmd.WaitDelay = waitDelay

	output, err := cmd.CombinedOutput()
	if err != nil {
		c.log.Error("ffmpeg conversion of '%s' failed: %v", inputPath, err)

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", ErrConverterTimeout, c.timeout, ctx.Err())
		}

		return fmt.Errorf("%w: %w - output: %s", ErrConverterFailed, err, string(output))
	}

	return nil
}
