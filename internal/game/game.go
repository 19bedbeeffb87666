// Package game drives a client frame by frame, either paced on its own
// (headless) or from a window's update callback.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gafferongames/cubes/internal/client"
	"github.com/gafferongames/cubes/internal/metrics"
	"github.com/gafferongames/cubes/internal/state"
	"github.com/gafferongames/cubes/pkg/pacer"
)

var ErrSessionEnded = errors.New("session ended")

// Publisher receives the session status after every frame.
type Publisher interface {
	Publish(st client.Status)
}

type Option func(cfg *config)

type config struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(cfg *config) {
		cfg.publisher = p
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(client.Status) {}

type Loop struct {
	client    *client.Client
	world     *World
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	frame     uint64
}

func NewLoop(c *client.Client, world *World, opts ...Option) *Loop {
	cfg := config{
		logger:    slog.Default(),
		metrics:   nil,
		publisher: nopPublisher{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = metrics.New(nil)
	}

	// NOTE: keep fields exhaustive
	return &Loop{
		client:    c,
		world:     world,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		publisher: cfg.publisher,
		frame:     0,
	}
}

func (l *Loop) Client() *client.Client { return l.client }
func (l *Loop) World() *World          { return l.world }

// Frame runs one client frame. It fails with ErrSessionEnded once the
// session was denied or timed out.
func (l *Loop) Frame(now time.Time, input state.Input) error {
	l.client.Frame(now, input)
	l.frame++
	l.publisher.Publish(l.client.Status())

	if s := l.client.State(); s.Terminal() {
		return fmt.Errorf("%w: %s", ErrSessionEnded, s)
	}
	return nil
}

// Run plays frames at the pace of p until ctx is done or the session ends.
func (l *Loop) Run(ctx context.Context, p *pacer.Pacer, sample func() state.Input) error {
	for {
		now, err := p.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("waiting for frame %d: %w", l.frame, err)
		}

		if err := l.Frame(now, sample()); err != nil {
			return err
		}

		dropped := p.Done()
		if dropped == 0 {
			continue
		}
		l.metrics.DroppedFrames.Add(float64(dropped))
		if l.client.State() == client.StateConnected && !l.client.Synchronizing() {
			l.logger.Warn("dropped frames", "frame", l.frame, "dropped", dropped)
		}
	}
}

// NeutralInput is the input of a player that touches nothing.
func NeutralInput() state.Input { return state.Input{} }
