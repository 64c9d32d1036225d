package speech

import "math"

// Accepted parameter ranges. Values outside are clamped silently.
const (
	MinSpeed             = 0.5
	MaxSpeed             = 2.0
	MinTemperature       = 0.1
	MaxTemperature       = 1.0
	MinRepetitionPenalty = 1.0
	MaxRepetitionPenalty = 10.0
	MinTopP              = 0.1
	MaxTopP              = 1.0
)

// Defaults used for any parameter the caller leaves out.
const (
	DefaultLanguage          = "zh-cn"
	DefaultSpeed             = 1.0
	DefaultTemperature       = 0.65
	DefaultRepetitionPenalty = 2.0
	DefaultTopP              = 0.8
)

// Parameters tune a synthesis call.
type Parameters struct {
	Speed             float64
	Temperature       float64
	RepetitionPenalty float64
	TopP              float64
}

// DefaultParameters returns the parameters used when a request omits them.
func DefaultParameters() Parameters {
	return Parameters{
		Speed:             DefaultSpeed,
		Temperature:       DefaultTemperature,
		RepetitionPenalty: DefaultRepetitionPenalty,
		TopP:              DefaultTopP,
	}
}

// Clamped returns a copy with every field forced into its accepted range.
func (p Parameters) Clamped() Parameters {
	return Parameters{
		Speed:             ClampSpeed(p.Speed),
		Temperature:       ClampTemperature(p.Temperature),
		RepetitionPenalty: ClampRepetitionPenalty(p.RepetitionPenalty),
		TopP:              ClampTopP(p.TopP),
	}
}

// ClampSpeed forces speed into [0.5, 2.0].
func ClampSpeed(value float64) float64 {
	return clamp(value, MinSpeed, MaxSpeed)
}

// ClampTemperature forces temperature into [0.1, 1.0].
func ClampTemperature(value float64) float64 {
	return clamp(value, MinTemperature, MaxTemperature)
}

// ClampRepetitionPenalty forces the repetition penalty into [1.0, 10.0].
func ClampRepetitionPenalty(value float64) float64 {
	return clamp(value, MinRepetitionPenalty, MaxRepetitionPenalty)
}

// ClampTopP forces top_p into [0.1, 1.0].
func ClampTopP(value float64) float64 {
	return clamp(value, MinTopP, MaxTopP)
}

// NaN becomes the lower bound.
func clamp(value, low, high float64) float64 {
	if math.IsNaN(value) {
		return low
	}

	return math.Max(low, math.Min(value, high))
}
