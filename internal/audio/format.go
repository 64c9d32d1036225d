// Package audio provides the reference audio format of the voice service and the
// file operations around it: conversion through an external tool, silent
// placeholder clips and header verification.
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/faiface/beep"
)

// Reference format of every voice clip handed to the speech engine.
const (
	REFERENCE_SAMPLE_RATE = 22050
	REFERENCE_CHANNELS    = 1
	REFERENCE_BIT_DEPTH   = 16
)

// Supported bit depths.
const (
	BIT_DEPTH_8  = 8
	BIT_DEPTH_16 = 16
	BIT_DEPTH_24 = 24
	BIT_DEPTH_32 = 32
)

// Validation limits.
const (
	MAX_SAMPLE_RATE = 192000
	MAX_CHANNELS    = 8
	bitsPerByte     = 8
)

const (
	ERR_FMT_SAMPLE_RATE_RANGE = "%w: sample rate must be between 1 and %d Hz"
	ERR_FMT_BIT_DEPTH_VALUES  = "%w: bit depth must be 8, 16, 24, or 32"
	ERR_FMT_CHANNELS_RANGE    = "%w: channels must be between 1 and %d"
)

// ErrInvalidFormat is returned when format settings are out of range.
var ErrInvalidFormat = errors.New("invalid audio format")

// PlaceholderDuration is the length of the silent clip written when a preset
// cannot be synthesized.
const PlaceholderDuration = 3 * time.Second

// Format describes an uncompressed PCM WAV layout.
type Format struct {
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
	BitDepth   int `json:"bitDepth"`
}

// ReferenceFormat returns 22050 Hz, mono, 16-bit PCM.
func ReferenceFormat() Format {
	return Format{
		SampleRate: REFERENCE_SAMPLE_RATE,
		Channels:   REFERENCE_CHANNELS,
		BitDepth:   REFERENCE_BIT_DEPTH,
	}
}

// Validate checks that the format is within reasonable bounds.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.SampleRate > MAX_SAMPLE_RATE {
		return fmt.Errorf(ERR_FMT_SAMPLE_RATE_RANGE, ErrInvalidFormat, MAX_SAMPLE_RATE)
	}

	switch f.BitDepth {
	case BIT_DEPTH_8, BIT_DEPTH_16, BIT_DEPTH_24, BIT_DEPTH_32:
	default:
		return fmt.Errorf(ERR_FMT_BIT_DEPTH_VALUES, ErrInvalidFormat)
	}

	if f.Channels <= 0 || f.Channels > MAX_CHANNELS {
		return fmt.Errorf(ERR_FMT_CHANNELS_RANGE, ErrInvalidFormat, MAX_CHANNELS)
	}

	return nil
}

// Codec returns the ffmpeg PCM codec name for the bit depth.
func (f Format) Codec() string {
	switch f.BitDepth {
	case BIT_DEPTH_8:
		return "pcm_u8"
	case BIT_DEPTH_24:
		return "pcm_s24le"
	case BIT_DEPTH_32:
		return "pcm_s32le"
	default:
		return "pcm_s16le"
	}
}

func (f Format) beepFormat() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(f.SampleRate),
		NumChannels: f.Channels,
		Precision:   f.BitDepth / bitsPerByte,
	}
}

func formatFromBeep(format beep.Format) Format {
	return Format{
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		BitDepth:   format.Precision * bitsPerByte,
	}
}
