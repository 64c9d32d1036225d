package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

const filePermissions = 0o600

// WriteSilence writes a silent WAV clip of the given duration and format.
func WriteSilence(path string, duration time.Duration, format Format) error {
	err := format.Validate()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create silent clip %s: %w", path, err)
	}

	beepFormat := format.beepFormat()
	samples := beepFormat.SampleRate.N(duration)

	encodeErr := wav.Encode(file, beep.Silence(samples), beepFormat)
	closeErr := file.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode silent clip %s: %w", path, encodeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close silent clip %s: %w", path, closeErr)
	}

	return nil
}

// Probe reads the WAV header of path and returns its format and duration.
func Probe(path string) (Format, time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return Format{}, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}

	stream, beepFormat, err := wav.Decode(file)
	if err != nil {
		_ = file.Close()

		return Format{}, 0, fmt.Errorf("failed to decode wav header of %s: %w", path, err)
	}
	defer stream.Close()

	return formatFromBeep(beepFormat), beepFormat.SampleRate.D(stream.Len()), nil
}

// Matches reports whether the WAV file at path is in the expected format.
func Matches(path string, expected Format) (bool, error) {
	actual, _, err := Probe(path)
	if err != nil {
		return false, err
	}

	return actual == expected, nil
}
