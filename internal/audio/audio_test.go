package audio_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "audio-test.log")
	require.NoError(t, err)

	return log
}

func TestFormat_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, audio.ReferenceFormat().Validate())

	invalid := []audio.Format{
		{SampleRate: 0, Channels: 1, BitDepth: 16},
		{SampleRate: 22050, Channels: 0, BitDepth: 16},
		{SampleRate: 22050, Channels: 1, BitDepth: 12},
		{SampleRate: audio.MAX_SAMPLE_RATE + 1, Channels: 1, BitDepth: 16},
	}

	for _, format := range invalid {
		require.ErrorIs(t, format.Validate(), audio.ErrInvalidFormat, "format %+v", format)
	}
}

func TestWriteSilence_ProbeRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "placeholder.wav")

	err := audio.WriteSilence(path, audio.PlaceholderDuration, audio.ReferenceFormat())
	require.NoError(t, err)

	format, duration, err := audio.Probe(path)
	require.NoError(t, err)
	assert.Equal(t, audio.ReferenceFormat(), format)
	assert.InDelta(t, float64(3*time.Second), float64(duration), float64(10*time.Millisecond))

	matches, err := audio.Matches(path, audio.ReferenceFormat())
	require.NoError(t, err)
	assert.True(t, matches)
}

func TestProbe_NotWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "upload.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3 not really audio"), 0o600))

	_, _, err := audio.Probe(path)
	require.Error(t, err)
}

func TestFFmpegConverter_Args(t *testing.T) {
	t.Parallel()

	converter, err := audio.NewFFmpegConverter("ffmpeg", time.Minute, audio.ReferenceFormat(), newTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"-y", "-i", "in.webm", "-acodec", "pcm_s16le", "-ac", "1", "-ar", "22050", "out.wav"},
		converter.Args("in.webm", "out.wav"),
	)
}

func TestFFmpegConverter_RejectsInvalidTarget(t *testing.T) {
	t.Parallel()

	_, err := audio.NewFFmpegConverter("ffmpeg", time.Minute, audio.Format{}, newTestLogger(t))
	require.ErrorIs(t, err, audio.ErrInvalidFormat)
}

func TestFFmpegConverter_Failure(t *testing.T) {
	t.Parallel()

	falseBinary, lookErr := exec.LookPath("false")
	if lookErr != nil {
		t.Skip("false binary not available")
	}

	converter, err := audio.NewFFmpegConverter(falseBinary, time.Minute, audio.ReferenceFormat(), newTestLogger(t))
	require.NoError(t, err)

	err = converter.Convert(context.Background(), "in.webm", filepath.Join(t.TempDir(), "out.wav"))
	require.ErrorIs(t, err, audio.ErrConverterFailed)
}

func TestFFmpegConverter_MissingBinary(t *testing.T) {
	t.Parallel()

	converter, err := audio.NewFFmpegConverter(
		filepath.Join(t.TempDir(), "no-such-ffmpeg"), time.Minute, audio.ReferenceFormat(), newTestLogger(t),
	)
	require.NoError(t, err)

	err = converter.Convert(context.Background(), "in.webm", "out.wav")
	require.ErrorIs(t, err, audio.ErrConverterFailed)
}

// slowConverterScript leaves a child holding the output pipe after the shell
// itself is killed.
const slowConverterScript = "#!/bin/sh\nsleep 3\n"

// Not parallel: writing an executable while other tests fork can fail with ETXTBSY.
func TestFFmpegConverter_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	script := filepath.Join(t.TempDir(), "slow-ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte(slowConverterScript), 0o700))

	converter, err := audio.NewFFmpegConverter(script, 100*time.Millisecond, audio.ReferenceFormat(), newTestLogger(t))
	require.NoError(t, err)

	start := time.Now()
	err = converter.Convert(context.Background(), "in.webm", filepath.Join(t.TempDir(), "out.wav"))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, audio.ErrConverterTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, audio.ErrConverterFailed)
	assert.Less(t, elapsed, 2*time.Second)
}
