package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/voice-service/internal/speech"
	"github.com/book-expert/voice-service/internal/voice"
)

const (
	audioURLPrefix     = "/static/audio/"
	defaultUploadName  = "Custom Voice"
	formFieldAudio     = "audio"
	formFieldName      = "name"
	statusOK           = "ok"
	statusNotReady     = "not_ready"
	errMsgNoAudio      = "No audio file provided"
	errMsgTooLarge     = "Audio file is too large"
	errMsgConversion   = "Audio conversion failed"
	errMsgInvalidJSON  = "Invalid JSON body"
	errMsgEmptyText    = "請輸入文字"
	errMsgVoiceMissing = "語音檔案不存在"
	errMsgSynthesis    = "生成語音時發生錯誤: %v"
	errMsgNotFound     = "File not found"
)

// handleVoices lists presets and cloned voices.
//
// @Summary     List voices
// @Description Returns the built-in presets keyed by id and the cloned voices keyed by file name.
// @Tags        voices
// @Produce     json
// @Success     200  {object}  VoicesResponse
// @Router      /api/voices [get]
func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	response := VoicesResponse{
		Presets: make(map[string]VoiceEntry),
		Cloned:  make(map[string]VoiceEntry),
	}

	for _, preset := range s.store.ListPresets() {
		response.Presets[preset.ID] = VoiceEntry{Name: preset.DisplayName, ID: preset.ID}
	}

	for _, clone := range s.store.ListClonedVoices() {
		response.Cloned[clone.FileName] = VoiceEntry{Name: clone.DisplayName, ID: clone.FileName}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleUploadVoice registers a new cloned voice.
//
// @Summary     Upload a reference voice
// @Description Accepts any audio format ffmpeg can read. The clip is converted to 22050 Hz mono 16-bit PCM
// @Description and registered under {sanitized name}_{8 hex}.wav.
// @Tags        voices
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio  formData  file    true   "Reference audio"
// @Param       name   formData  string  false  "Display name"  default(Custom Voice)
// @Success     200  {object}  UploadResponse
// @Failure     400  {object}  ErrorResponse  "Missing or empty audio part"
// @Failure     413  {object}  ErrorResponse  "Upload too large"
// @Failure     500  {object}  ErrorResponse  "Conversion or storage failure"
// @Router      /api/upload_voice [post]
func (s *Server) handleUploadVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	err := r.ParseMultipartForm(maxMultipartMem)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, errMsgTooLarge)

			return
		}

		s.writeError(w, http.StatusBadRequest, errMsgNoAudio)

		return
	}

	defer func() {
		removeErr := r.MultipartForm.RemoveAll()
		if removeErr != nil {
			s.log.Warn("Failed to remove multipart temp files: %v", removeErr)
		}
	}()

	file, _, err := r.FormFile(formFieldAudio)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errMsgNoAudio)

		return
	}

	defer func() { _ = file.Close() }()

	name := defaultUploadName
	if values, ok := r.MultipartForm.Value[formFieldName]; ok && len(values) > 0 {
		name = values[0]
	}

	clone, err := s.ingestor.Ingest(r.Context(), file, name)
	if err != nil {
		s.log.Error("Error uploading voice: %v", err)

		switch {
		case errors.Is(err, voice.ErrEmptyUpload):
			s.writeError(w, http.StatusBadRequest, errMsgNoAudio)
		case errors.Is(err, voice.ErrConversionFailed):
			s.writeError(w, StatusFor(err), errMsgConversion)
		default:
			s.writeError(w, StatusFor(err), err.Error())
		}

		return
	}

	s.writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		VoiceID: clone.FileName,
		Name:    clone.DisplayName,
	})
}

// handleTTS synthesizes speech.
//
// @Summary     Synthesize speech
// @Description Resolves voice_preset (preset id, cloned file name, or fallback), clamps the parameters
// @Description (speed 0.5-2.0, temperature 0.1-1.0, repetition_penalty 1.0-10.0, top_p 0.1-1.0) and
// @Description writes a WAV file that stays downloadable for one hour.
// @Tags        speech
// @Accept      json
// @Produce     json
// @Param       request  body      TTSRequest  true  "Synthesis request"
// @Success     200  {object}  TTSResponse
// @Failure     400  {object}  ErrorResponse  "Empty text or malformed body"
// @Failure     500  {object}  ErrorResponse  "Voice unavailable or engine failure"
// @Failure     503  {object}  ErrorResponse  "Engine timed out, retry later"
// @Router      /api/tts [post]
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	defaults := speech.DefaultParameters()
	body := TTSRequest{
		Language:          "",
		VoicePreset:       "",
		Speed:             defaults.Speed,
		Temperature:       defaults.Temperature,
		RepetitionPenalty: defaults.RepetitionPenalty,
		TopP:              defaults.TopP,
	}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errMsgInvalidJSON)

		return
	}

	result, err := s.service.Synthesize(r.Context(), speech.Request{
		Text:     body.Text,
		Language: body.Language,
		Voice:    body.VoicePreset,
		Parameters: speech.Parameters{
			Speed:             body.Speed,
			Temperature:       body.Temperature,
			RepetitionPenalty: body.RepetitionPenalty,
			TopP:              body.TopP,
		},
	})
	if err != nil {
		s.writeError(w, StatusFor(err), synthesisMessage(err))

		return
	}

	s.log.Info("Speech generated successfully: %s", result.FileName)

	s.writeJSON(w, http.StatusOK, TTSResponse{
		Success:  true,
		AudioURL: audioURLPrefix + result.FileName,
		FileName: result.FileName,
		Parameters: TTSParameters{
			Voice:             result.Voice.DisplayName,
			Speed:             result.Parameters.Speed,
			Temperature:       result.Parameters.Temperature,
			RepetitionPenalty: result.Parameters.RepetitionPenalty,
			TopP:              result.Parameters.TopP,
		},
	})
}

// handleAudio serves a generated output.
//
// @Summary     Download generated audio
// @Tags        speech
// @Produce     audio/wav
// @Param       filename  path  string  true  "Output file name"
// @Success     200  {file}    binary
// @Failure     404  {object}  ErrorResponse
// @Router      /static/audio/{filename} [get]
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		s.writeError(w, http.StatusNotFound, errMsgNotFound)

		return
	}

	path := filepath.Join(s.service.OutputDir(), name)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		s.writeError(w, http.StatusNotFound, errMsgNotFound)

		return
	}

	http.ServeFile(w, r, path)
}

// handleHealth reports liveness.
//
// @Summary     Liveness probe
// @Tags        health
// @Produce     json
// @Success     200  {object}  StatusResponse
// @Router      /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: statusOK, Detail: ""})
}

// handleReady reports readiness: presets provisioned and engine reachable.
//
// @Summary     Readiness probe
// @Tags        health
// @Produce     json
// @Success     200  {object}  StatusResponse
// @Failure     503  {object}  StatusResponse
// @Router      /readyz [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	err := s.service.Ready(ctx)
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: statusNotReady, Detail: err.Error()})

		return
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{Status: statusOK, Detail: ""})
}

func synthesisMessage(err error) string {
	switch {
	case errors.Is(err, speech.ErrEmptyInput):
		return errMsgEmptyText
	case errors.Is(err, voice.ErrVoiceUnavailable):
		return errMsgVoiceMissing
	default:
		return fmt.Sprintf(errMsgSynthesis, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.log.Warn("Failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
