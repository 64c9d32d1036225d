package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/voice-service/internal/core"
)

// ErrEngineTimeout is returned when a call runs past the lane timeout or the
// caller's deadline expires while waiting for a free slot. Callers may retry.
// A cancelled caller gets context.Canceled instead.
var ErrEngineTimeout = errors.New("speech engine timed out")

// HealthChecker is implemented by engines that can report their availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Lane serializes access to a Synthesizer through a fixed number of worker
// slots. It implements core.Synthesizer itself.
type Lane struct {
	synth   core.Synthesizer
	slots   chan struct{}
	timeout time.Duration
}

// NewLane creates a lane with the given number of concurrent slots. A
// non-positive timeout disables the per-call deadline.
func NewLane(synth core.Synthesizer, workers int, timeout time.Duration) *Lane {
	if workers < 1 {
		workers = 1
	}

	return &Lane{
		synth:   synth,
		slots:   make(chan struct{}, workers),
		timeout: timeout,
	}
}

// Synthesize waits for a free slot, then calls the engine under the lane timeout.
func (l *Lane) Synthesize(ctx context.Context, req core.SynthesisRequest) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: waiting for a free slot: %w", ErrEngineTimeout, ctx.Err())
		}

		return fmt.Errorf("waiting for a free slot: %w", ctx.Err())
	}

	defer func() { <-l.slots }()

	callCtx := ctx

	if l.timeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	err := l.synth.Synthesize(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrEngineTimeout, err)
		}

		return err
	}

	return nil
}

// InFlight returns the number of occupied slots.
func (l *Lane) InFlight() int {
	return len(l.slots)
}

// HealthCheck delegates to the engine when it supports health checks.
func (l *Lane) HealthCheck(ctx context.Context) error {
	checker, ok := l.synth.(HealthChecker)
	if !ok {
		return nil
	}

	return checker.HealthCheck(ctx)
}
