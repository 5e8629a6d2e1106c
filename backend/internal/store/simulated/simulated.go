// Package simulated generates plausible readings without any backend, for
// demos and local development.
package simulated

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/utils"
)

// DefaultStep is the spacing of generated history rows.
const DefaultStep = 10 * time.Minute

type Store struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	now  func() time.Time
	step time.Duration
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeed makes the generated values reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Store) { s.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func WithStep(step time.Duration) Option {
	return func(s *Store) {
		if step > 0 {
			s.step = step
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		rnd:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:  time.Now,
		step: DefaultStep,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Kind() store.Kind {
	return store.KindSimulated
}

func (s *Store) between(lo, hi float64) *float64 {
	return utils.Ptr(lo + s.rnd.Float64()*(hi-lo))
}

// row draws temperature 24-26 °C, humidity 55-65 %, pressure 1010-1015 hPa,
// acceleration x/y ±0.25 and z 9.7-9.9 m/s². Altitude is not simulated.
func (s *Store) row(at time.Time) sensor.Row {
	return sensor.Row{
		ID:          utils.NewUUID(),
		CreatedAt:   at.UTC(),
		Temperature: s.between(24, 26),
		Humidity:    s.between(55, 65),
		Pressure:    s.between(1010, 1015),
		AccelX:      s.between(-0.25, 0.25),
		AccelY:      s.between(-0.25, 0.25),
		AccelZ:      s.between(9.7, 9.9),
	}
}

func (s *Store) Latest(_ context.Context) (sensor.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.row(s.now()), nil
}

// Since returns one row per step from since (aligned up to the step) to now.
func (s *Store) Since(_ context.Context, since time.Time) ([]sensor.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rows := []sensor.Row{}

	start := since.Truncate(s.step)
	if start.Before(since) {
		start = start.Add(s.step)
	}

	for at := start; !at.After(now); at = at.Add(s.step) {
		rows = append(rows, s.row(at))
	}

	return rows, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
