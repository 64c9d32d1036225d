package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/voice-service/internal/apiclient"
	"github.com/book-expert/voice-service/internal/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedName = "speech_1a2b3c4d_20261018_120000.wav"

func newServiceStub(t *testing.T, received *httpapi.TTSRequest) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(httpapi.StatusResponse{Status: "not_ready", Detail: "presets are still being provisioned"})
	})

	mux.HandleFunc("GET /api/voices", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(httpapi.VoicesResponse{
			Presets: map[string]httpapi.VoiceEntry{"female_soft": {Name: "女聲 - 溫柔", ID: "female_soft"}},
			Cloned:  map[string]httpapi.VoiceEntry{},
		})
	})

	mux.HandleFunc("POST /api/upload_voice", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("audio")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(httpapi.ErrorResponse{Error: "No audio file provided"})

			return
		}

		_ = file.Close()

		_ = json.NewEncoder(w).Encode(httpapi.UploadResponse{
			Success: true,
			VoiceID: r.FormValue("name") + "_1a2b3c4d.wav",
			Name:    r.FormValue("name"),
		})
	})

	mux.HandleFunc("POST /api/tts", func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(received)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		if received.VoicePreset == "slow" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(httpapi.ErrorResponse{Error: "speech synthesis timed out"})

			return
		}

		_ = json.NewEncoder(w).Encode(httpapi.TTSResponse{
			Success:  true,
			AudioURL: "/static/audio/" + generatedName,
			FileName: generatedName,
			Parameters: httpapi.TTSParameters{
				Voice: "女聲 - 溫柔", Speed: 1, Temperature: 0.65, RepetitionPenalty: 2, TopP: 0.8,
			},
		})
	})

	mux.HandleFunc("GET /static/audio/{filename}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("filename") != generatedName {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte("RIFFfakewav"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestClient_SynthesizeAndDownload(t *testing.T) {
	t.Parallel()

	var received httpapi.TTSRequest

	server := newServiceStub(t, &received)
	client := apiclient.New(server.URL+"/", time.Second)

	response, err := client.Synthesize(context.Background(), httpapi.TTSRequest{
		Text:              "你好",
		Language:          "zh-cn",
		VoicePreset:       "female_soft",
		Speed:             1.2,
		Temperature:       0.65,
		RepetitionPenalty: 2,
		TopP:              0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, "你好", received.Text)
	assert.InDelta(t, 1.2, received.Speed, 1e-9)
	assert.Equal(t, generatedName, response.FileName)

	output := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, client.Download(context.Background(), response.AudioURL, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "RIFFfakewav", string(data))
}

func TestClient_SynthesizeErrors(t *testing.T) {
	t.Parallel()

	var received httpapi.TTSRequest

	client := apiclient.New(newServiceStub(t, &received).URL, time.Second)

	_, err := client.Synthesize(context.Background(), httpapi.TTSRequest{Text: " "})
	require.ErrorIs(t, err, apiclient.ErrTextEmpty)

	_, err = client.Synthesize(context.Background(), httpapi.TTSRequest{Text: "hi", VoicePreset: "slow"})
	require.ErrorIs(t, err, apiclient.ErrServer)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "speech synthesis timed out")
}

func TestClient_DownloadMissing(t *testing.T) {
	t.Parallel()

	var received httpapi.TTSRequest

	client := apiclient.New(newServiceStub(t, &received).URL, time.Second)

	err := client.Download(context.Background(), "/static/audio/missing.wav", filepath.Join(t.TempDir(), "x.wav"))
	require.ErrorIs(t, err, apiclient.ErrServer)
}

func TestClient_VoicesAndReady(t *testing.T) {
	t.Parallel()

	var received httpapi.TTSRequest

	client := apiclient.New(newServiceStub(t, &received).URL, time.Second)

	voices, err := client.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "女聲 - 溫柔", voices.Presets["female_soft"].Name)

	err = client.Ready(context.Background())
	require.ErrorIs(t, err, apiclient.ErrServer)
	assert.Contains(t, err.Error(), "presets are still being provisioned")
}

func TestClient_Upload(t *testing.T) {
	t.Parallel()

	var received httpapi.TTSRequest

	client := apiclient.New(newServiceStub(t, &received).URL, time.Second)

	clip := filepath.Join(t.TempDir(), "bob.mp3")
	require.NoError(t, os.WriteFile(clip, []byte("fake mp3"), 0o600))

	response, err := client.Upload(context.Background(), clip, "Bob")
	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, "Bob_1a2b3c4d.wav", response.VoiceID)

	_, err = client.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"), "Bob")
	require.Error(t, err)
}
