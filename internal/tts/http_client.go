// Package tts provides the speech engine clients of the voice service.
//
// Two engines implement core.Synthesizer: HTTPClient talks to a standalone
// voice-cloning model server, CLIEngine runs a local synthesis binary. Every
// call from the request path goes through a Lane, which bounds concurrency and
// applies the per-call timeout.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/voice-service/internal/core"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Error messages.
const (
	errFmtUnexpectedContentType = "unexpected content type: expected audio/wav, got %s"
	errFmtServiceErrorWithCode  = "TTS service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus    = "TTS service returned non-OK status: %s, body: %s"
)

var (
	// ErrTextEmpty is returned for requests without text.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrOutputPathEmpty is returned for requests without an output path.
	ErrOutputPathEmpty = errors.New("output path cannot be empty")
	// ErrEmptyAudio is returned when the engine answers with no audio bytes.
	ErrEmptyAudio = errors.New("received empty audio data")
)

// HTTPClient represents a client for the standalone TTS HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	modelName  string
}

// Request defines the JSON payload of a generation request.
type Request struct {
	// Text contains the input text to convert to speech.
	Text string `json:"text"`

	// SpeakerRefPath is a server-side path to the reference clip that
	// conditions the cloned voice.
	SpeakerRefPath string `json:"speaker_ref_path,omitempty"`

	// Language specifies the target language code (e.g., "en", "zh-cn").
	Language string `json:"language,omitempty"`

	// ModelName selects a model other than the server default. Preset
	// provisioning uses it to reach a multi-speaker model.
	ModelName string `json:"model_name,omitempty"`

	// Speaker selects a sub-voice of a multi-speaker model.
	Speaker string `json:"speaker,omitempty"`

	Speed             float64 `json:"speed,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
}

// ErrorResponse represents a structured error response from the TTS service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates and configures an HTTP client for the TTS service.
// The baseURL should include the protocol and port (e.g., "http://localhost:8000").
// modelName is sent with requests that do not name a model themselves.
func NewHTTPClient(baseURL, modelName string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize implements core.Synthesizer by generating speech and writing it to
// req.OutputPath.
func (c *HTTPClient) Synthesize(ctx context.Context, req core.SynthesisRequest) error {
	if req.OutputPath == "" {
		return ErrOutputPathEmpty
	}

	audioData, err := c.GenerateSpeech(ctx, Request{
		Text:              req.Text,
		SpeakerRefPath:    req.ReferenceAudioPath,
		Language:          req.Language,
		ModelName:         req.Model,
		Speaker:           req.Speaker,
		Speed:             req.Speed,
		Temperature:       req.Temperature,
		RepetitionPenalty: req.RepetitionPenalty,
		TopP:              req.TopP,
	})
	if err != nil {
		return err
	}

	return writeAudio(req.OutputPath, audioData)
}

// GenerateSpeech sends a generation request and returns the raw WAV data.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if req.ModelName == "" {
		req.ModelName = c.modelName
	}

	requestBody, err := marshalJSON(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf(errFmtUnexpectedContentType, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the TTS service is running and operational.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse decodes a structured JSON error from the service and falls
// back to the raw body.
func (c *HTTPClient) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errorResp ErrorResponse

	err := parseJSON(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}

func writeAudio(outputPath string, audioData []byte) error {
	err := os.MkdirAll(filepath.Dir(outputPath), dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = os.WriteFile(outputPath, audioData, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}
