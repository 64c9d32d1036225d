// Package apiclient is a Go client for the voice-service HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/voice-service/internal/httpapi"
)

const (
	defaultTimeout   = 5 * time.Minute
	maxErrorBody     = 4096
	contentTypeJSON  = "application/json"
	outputPermission = 0o600
)

var (
	// ErrServer wraps every non-2xx answer of the service.
	ErrServer = errors.New("voice-service returned an error")
	// ErrTextEmpty indicates a synthesis request without text.
	ErrTextEmpty = errors.New("text cannot be empty")
)

// Client calls a running voice-service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ready returns nil when the service reports itself ready.
func (c *Client) Ready(ctx context.Context) error {
	var status httpapi.StatusResponse

	return c.do(ctx, http.MethodGet, "/readyz", "", nil, &status)
}

// Voices lists presets and cloned voices.
func (c *Client) Voices(ctx context.Context) (httpapi.VoicesResponse, error) {
	var voices httpapi.VoicesResponse

	err := c.do(ctx, http.MethodGet, "/api/voices", "", nil, &voices)

	return voices, err
}

// Upload registers the clip at path as a cloned voice named name.
func (c *Client) Upload(ctx context.Context, path, name string) (httpapi.UploadResponse, error) {
	var response httpapi.UploadResponse

	file, err := os.Open(path) // #nosec G304 -- path is supplied by the CLI user
	if err != nil {
		return response, fmt.Errorf("failed to open clip %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	if name != "" {
		err = writer.WriteField("name", name)
		if err != nil {
			return response, fmt.Errorf("failed to write name field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return response, fmt.Errorf("failed to create audio part: %w", err)
	}

	_, err = io.Copy(part, file)
	if err != nil {
		return response, fmt.Errorf("failed to read clip %s: %w", path, err)
	}

	err = writer.Close()
	if err != nil {
		return response, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	err = c.do(ctx, http.MethodPost, "/api/upload_voice", writer.FormDataContentType(), &body, &response)

	return response, err
}

// Synthesize asks the service to generate speech.
func (c *Client) Synthesize(ctx context.Context, req httpapi.TTSRequest) (httpapi.TTSResponse, error) {
	var response httpapi.TTSResponse

	if strings.TrimSpace(req.Text) == "" {
		return response, ErrTextEmpty
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return response, fmt.Errorf("failed to marshal request: %w", err)
	}

	err = c.do(ctx, http.MethodPost, "/api/tts", contentTypeJSON, bytes.NewReader(payload), &response)

	return response, err
}

// Download saves a generated file, addressed by the audio_url of a
// TTSResponse, to outputPath.
func (c *Client) Download(ctx context.Context, audioURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+audioURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", audioURL, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", audioURL, err)
	}

	err = os.WriteFile(outputPath, data, outputPermission)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return serverError(resp)
	}

	err = json.NewDecoder(resp.Body).Decode(target)
	if err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}

// serverError prefers the service's {"error": ...} or {"detail": ...} message
// over the raw body.
func serverError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}

	message := strings.TrimSpace(string(raw))

	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Error != "":
			message = payload.Error
		case payload.Detail != "":
			message = payload.Detail
		}
	}

	return fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, message)
}
