package retention_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/retention"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "retention-test.log")
	require.NoError(t, err)

	return log
}

func touch(t *testing.T, path string, modTime time.Time) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestSweep_DeletesOnlyExpiredUnprotected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "speech_aaaaaaaa_20261018_113000.wav"), now.Add(-30*time.Minute))
	touch(t, filepath.Join(dir, "speech_bbbbbbbb_20261018_105900.wav"), now.Add(-61*time.Minute))
	touch(t, filepath.Join(dir, "default_speaker.wav"), now.Add(-5*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "voices"), 0o750))

	sweeper := retention.New(dir, time.Hour, []string{"default_speaker.wav", "voices"}, newTestLogger(t),
		retention.WithClock(func() time.Time { return now }))

	report := sweeper.Sweep()

	assert.Equal(t, []string{"speech_bbbbbbbb_20261018_105900.wav"}, report.Removed)
	assert.Equal(t, []string{"speech_aaaaaaaa_20261018_113000.wav"}, report.Kept)
	assert.ElementsMatch(t, []string{"default_speaker.wav", "voices"}, report.Protected)
	assert.Empty(t, report.Errors)

	assert.FileExists(t, filepath.Join(dir, "speech_aaaaaaaa_20261018_113000.wav"))
	assert.NoFileExists(t, filepath.Join(dir, "speech_bbbbbbbb_20261018_105900.wav"))
	assert.FileExists(t, filepath.Join(dir, "default_speaker.wav"))
	assert.DirExists(t, filepath.Join(dir, "voices"))
}

func TestSweep_SkipsSubdirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)

	cloned := filepath.Join(dir, "cloned")
	require.NoError(t, os.Mkdir(cloned, 0o750))
	touch(t, filepath.Join(cloned, "Bob_1a2b3c4d.wav"), old)
	require.NoError(t, os.Chtimes(cloned, old, old))

	report := retention.New(dir, time.Hour, nil, newTestLogger(t)).Sweep()

	assert.Empty(t, report.Removed)
	assert.FileExists(t, filepath.Join(cloned, "Bob_1a2b3c4d.wav"))
}

func TestSweep_MissingDirectory(t *testing.T) {
	t.Parallel()

	report := retention.New(filepath.Join(t.TempDir(), "absent"), time.Hour, nil, newTestLogger(t)).Sweep()

	assert.Len(t, report.Errors, 1)
	assert.Empty(t, report.Removed)
}

func TestRun_SweepsPeriodicallyUntilCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sweeper := retention.New(dir, time.Hour, nil, newTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- sweeper.Run(ctx, 10*time.Millisecond)
	}()

	expired := filepath.Join(dir, "speech_cccccccc_20261018_000000.wav")
	touch(t, expired, time.Now().Add(-2*time.Hour))

	require.Eventually(t, func() bool {
		_, err := os.Stat(expired)

		return os.IsNotExist(err)
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
