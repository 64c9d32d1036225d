package httpapi

// VoiceEntry is one voice in the listing.
type VoiceEntry struct {
	Name string `json:"name" example:"女聲 - 溫柔"`
	ID   string `json:"id"   example:"female_soft"`
}

// VoicesResponse is returned by GET /api/voices.
type VoicesResponse struct {
	Presets map[string]VoiceEntry `json:"presets"`
	Cloned  map[string]VoiceEntry `json:"cloned"`
}

// UploadResponse is returned by POST /api/upload_voice.
type UploadResponse struct {
	Success bool   `json:"success"`
	VoiceID string `json:"voice_id" example:"Bob_Smith_1a2b3c4d.wav"`
	Name    string `json:"name"     example:"Bob_Smith"`
}

// TTSRequest is the body of POST /api/tts. Omitted fields take their defaults.
type TTSRequest struct {
	Text              string  `json:"text"               example:"你好，世界"`
	Language          string  `json:"language"           example:"zh-cn"`
	VoicePreset       string  `json:"voice_preset"       example:"female_soft"`
	Speed             float64 `json:"speed"              example:"1.0"`
	Temperature       float64 `json:"temperature"        example:"0.65"`
	RepetitionPenalty float64 `json:"repetition_penalty" example:"2.0"`
	TopP              float64 `json:"top_p"              example:"0.8"`
}

// TTSParameters echoes the voice and the clamped parameters actually used.
type TTSParameters struct {
	Voice             string  `json:"voice"`
	Speed             float64 `json:"speed"`
	Temperature       float64 `json:"temperature"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	TopP              float64 `json:"top_p"`
}

// TTSResponse is returned by POST /api/tts.
type TTSResponse struct {
	Success    bool          `json:"success"`
	AudioURL   string        `json:"audio_url" example:"/static/audio/speech_1a2b3c4d_20261018_120000.wav"`
	FileName   string        `json:"filename"  example:"speech_1a2b3c4d_20261018_120000.wav"`
	Parameters TTSParameters `json:"parameters"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by the health endpoints.
type StatusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}
