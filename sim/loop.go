package sim

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/simviz/logging"
)

const timeEpsilon = 1e-9

type scheduled struct {
	name      string
	period    float64
	publisher Publisher
	next      float64
}

// Loop advances a plant in fixed steps and invokes every publisher on its own period, starting at t=0.
// Publisher errors are logged and the publisher is tried again on its next period, never sooner.
// A Loop runs on a single goroutine.
type Loop struct {
	plant        Plant
	step         float64
	publishers   []*scheduled
	clock        clock.Clock
	realTimeRate float64
	logger       logging.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock sets the wall clock used for real time pacing.
func WithClock(c clock.Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithRealTimeRate paces the loop so simulated time runs rate times as fast as wall time. Zero, the
// default, runs as fast as possible.
func WithRealTimeRate(rate float64) LoopOption {
	return func(l *Loop) {
		l.realTimeRate = rate
	}
}

// NewLoop returns a loop stepping plant every step seconds of simulated time.
func NewLoop(plant Plant, step float64, logger logging.Logger, opts ...LoopOption) (*Loop, error) {
	if step <= 0 {
		return nil, errors.Errorf("time step must be positive, got %v", step)
	}
	l := &Loop{
		plant:  plant,
		step:   step,
		clock:  clock.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// AddPublisher registers p to run every period seconds of simulated time.
func (l *Loop) AddPublisher(name string, period float64, p Publisher) error {
	if period <= 0 {
		return errors.Errorf("publisher %q needs a positive period, got %v", name, period)
	}
	l.publishers = append(l.publishers, &scheduled{name: name, period: period, publisher: p})
	return nil
}

// Run steps the plant from t=0 through duration. It stops early if ctx is done or the plant fails.
func (l *Loop) Run(ctx context.Context, duration float64) error {
	steps := int(math.Floor(duration/l.step + timeEpsilon))
	start := l.clock.Now()
	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := float64(i) * l.step
		if err := l.plant.Advance(t); err != nil {
			return errors.Wrapf(err, "advancing plant to t=%v", t)
		}
		sc := NewContext(t, l.plant)
		for _, s := range l.publishers {
			if t+timeEpsilon < s.next {
				continue
			}
			if err := s.publisher.Publish(ctx, sc); err != nil {
				l.logger.Errorw("publish failed", "publisher", s.name, "t", t, "error", err)
			}
			s.next = (math.Floor((t+timeEpsilon)/s.period) + 1) * s.period
		}
		l.pace(start, t)
	}
	l.logger.Debugw("simulation finished", "duration", duration, "steps", steps+1)
	return nil
}

func (l *Loop) pace(start time.Time, t float64) {
	if l.realTimeRate <= 0 {
		return
	}
	due := start.Add(time.Duration(t / l.realTimeRate * float64(time.Second)))
	if wait := due.Sub(l.clock.Now()); wait > 0 {
		l.clock.Sleep(wait)
	}
}
