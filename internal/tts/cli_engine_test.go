package tts_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngineScript writes its arguments to args.txt and a stub clip to --out_path.
const fakeEngineScript = `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$@" > "$dir/args.txt"
while [ $# -gt 0 ]; do
  if [ "$1" = "--out_path" ]; then printf 'RIFF' > "$2"; fi
  shift
done
`

func newCLITestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "cli-engine-test.log")
	require.NoError(t, err)

	return log
}

func TestCLIEngine_Args(t *testing.T) {
	t.Parallel()

	engine := tts.NewCLIEngine("tts", "xtts_v2", newCLITestLogger(t))

	args := engine.Args(core.SynthesisRequest{
		Text:               "hello",
		OutputPath:         "/tmp/out.wav",
		ReferenceAudioPath: "/voices/neutral.wav",
		Language:           "en",
		Speed:              1.5,
		Temperature:        0.65,
		RepetitionPenalty:  2,
		TopP:               0.8,
	})

	assert.Equal(t, []string{
		"--text", "hello",
		"--out_path", "/tmp/out.wav",
		"--model_name", "xtts_v2",
		"--speaker_wav", "/voices/neutral.wav",
		"--language_idx", "en",
		"--speed", "1.50",
		"--temperature", "0.65",
		"--repetition_penalty", "2.00",
		"--top_p", "0.80",
	}, args)
}

func TestCLIEngine_PresetArgs(t *testing.T) {
	t.Parallel()

	engine := tts.NewCLIEngine("tts", "xtts_v2", newCLITestLogger(t))

	args := engine.Args(core.SynthesisRequest{
		Text:       "seed",
		OutputPath: "/tmp/p.wav",
		Model:      "tts_models/en/vctk/vits",
		Speaker:    "p226",
	})

	assert.Equal(t, []string{
		"--text", "seed",
		"--out_path", "/tmp/p.wav",
		"--model_name", "tts_models/en/vctk/vits",
		"--speaker_idx", "p226",
	}, args)
}

// Not parallel: writing an executable while other tests fork can fail with ETXTBSY.
func TestCLIEngine_Synthesize(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-tts")
	require.NoError(t, os.WriteFile(script, []byte(fakeEngineScript), 0o700))

	engine := tts.NewCLIEngine(script, "", newCLITestLogger(t))
	require.NoError(t, engine.HealthCheck(context.Background()))

	outputPath := filepath.Join(dir, "speech.wav")

	err := engine.Synthesize(context.Background(), core.SynthesisRequest{
		Text:       "hello there",
		OutputPath: outputPath,
		Language:   "en",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	recorded, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, strings.Split(strings.TrimSpace(string(recorded)), "\n"), "hello there")
}

// Not parallel: writing an executable while other tests fork can fail with ETXTBSY.
func TestCLIEngine_TimeoutThroughLane(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "slow-tts")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 3\n"), 0o700))

	lane := tts.NewLane(tts.NewCLIEngine(script, "", newCLITestLogger(t)), 1, 100*time.Millisecond)

	start := time.Now()
	err := lane.Synthesize(context.Background(), core.SynthesisRequest{
		Text:       "hello",
		OutputPath: filepath.Join(dir, "speech.wav"),
	})

	require.ErrorIs(t, err, tts.ErrEngineTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCLIEngine_Failure(t *testing.T) {
	t.Parallel()

	engine := tts.NewCLIEngine(filepath.Join(t.TempDir(), "missing-tts"), "", newCLITestLogger(t))

	require.Error(t, engine.HealthCheck(context.Background()))

	err := engine.Synthesize(context.Background(), core.SynthesisRequest{Text: "hi", OutputPath: "out.wav"})
	require.Error(t, err)

	err = engine.Synthesize(context.Background(), core.SynthesisRequest{Text: "", OutputPath: "out.wav"})
	require.ErrorIs(t, err, tts.ErrTextEmpty)
}
