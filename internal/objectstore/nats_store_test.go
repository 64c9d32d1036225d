package objectstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/book-expert/voice-service/internal/objectstore"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startJetStream runs an in-memory NATS server with JetStream enabled.
func startJetStream(t *testing.T) nats.JetStreamContext {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return jetstreamContext
}

func TestStore_UploadDownloadDelete(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), objectstore.Config{Bucket: "AUDIO_FILES", TTL: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, "AUDIO_FILES", store.Bucket())

	ctx := context.Background()
	key := "speech_1a2b3c4d_20261018_120000.wav"
	payload := []byte("RIFF fake wav payload")

	require.NoError(t, store.Upload(ctx, key, payload))

	downloaded, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, downloaded)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")

	_, err = store.Download(ctx, key)
	require.Error(t, err)
}

func TestStore_BindsToExistingBucket(t *testing.T) {
	t.Parallel()

	jetstreamContext := startJetStream(t)

	first, err := objectstore.New(jetstreamContext, objectstore.Config{Bucket: "TEXT_FILES"})
	require.NoError(t, err)
	require.NoError(t, first.Upload(context.Background(), "page-1.txt", []byte("hello")))

	second, err := objectstore.New(jetstreamContext, objectstore.Config{Bucket: "TEXT_FILES"})
	require.NoError(t, err)

	data, err := second.Download(context.Background(), "page-1.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestNew_EmptyBucket(t *testing.T) {
	t.Parallel()

	_, err := objectstore.New(nil, objectstore.Config{})
	require.ErrorIs(t, err, objectstore.ErrBucketEmpty)
}
