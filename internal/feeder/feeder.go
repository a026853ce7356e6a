// Package feeder publishes prices on a cron schedule. Each run reads one
// quote per registered asset from a Source and records them as the admin.
package feeder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/host"
	"github.com/LeJamon/goPriceOracle/internal/logging"
)

// DefaultSchedule runs the feeder every five minutes.
const DefaultSchedule = "@every 5m"

var (
	// ErrNotConfigured is returned while the oracle has no decimals or
	// assets to price.
	ErrNotConfigured = errors.New("oracle is not configured")

	// ErrIncompleteQuotes is returned when the source could not price every
	// registered asset. Nothing is written.
	ErrIncompleteQuotes = errors.New("missing quotes")

	ErrAlreadyStarted = errors.New("feeder already started")
)

// RunObserver is notified after every scheduled or manual run.
type RunObserver interface {
	ObserveFeederRun(success bool, priced int, timestamp uint64)
}

// Feeder publishes prices through a host.
type Feeder struct {
	host     *host.Host
	admin    oracle.Address
	source   Source
	schedule string
	timeout  time.Duration
	observer RunObserver
	log      *logrus.Entry

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures a Feeder.
type Option func(*Feeder)

func WithSchedule(spec string) Option {
	return func(f *Feeder) {
		if spec != "" {
			f.schedule = spec
		}
	}
}

// WithTimeout bounds a single run.
func WithTimeout(d time.Duration) Option {
	return func(f *Feeder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithObserver(o RunObserver) Option {
	return func(f *Feeder) {
		f.observer = o
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(f *Feeder) {
		f.log = l
	}
}

// New creates a feeder writing as admin.
func New(h *host.Host, admin oracle.Address, source Source, opts ...Option) *Feeder {
	f := &Feeder{
		host:     h,
		admin:    admin,
		source:   source,
		schedule: DefaultSchedule,
		timeout:  30 * time.Second,
		log:      logging.New("feeder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start schedules runs. It fails on an invalid schedule.
func (f *Feeder) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cron != nil {
		return ErrAlreadyStarted
	}

	logger := cron.PrintfLogger(f.log)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(f.schedule, f.scheduledRun); err != nil {
		return fmt.Errorf("invalid feeder schedule %q: %w", f.schedule, err)
	}
	c.Start()
	f.cron = c

	f.log.WithFields(logrus.Fields{
		"schedule": f.schedule,
		"admin":    f.admin,
	}).Info("Feeder started")
	return nil
}

// Stop cancels future runs and waits for a running one to finish or for ctx
// to expire.
func (f *Feeder) Stop(ctx context.Context) error {
	f.mu.Lock()
	c := f.cron
	f.cron = nil
	f.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		f.log.Info("Feeder stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feeder) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if _, err := f.RunOnce(ctx); err != nil {
		f.log.WithError(err).Warn("Feeder run skipped")
	}
}

// RunOnce prices every registered asset and records the prices at the host
// clock's current time. It returns the quantized timestamp written.
func (f *Feeder) RunOnce(ctx context.Context) (uint64, error) {
	ts, priced, err := f.run(ctx)
	if f.observer != nil {
		f.observer.ObserveFeederRun(err == nil, priced, ts)
	}
	return ts, err
}

func (f *Feeder) run(ctx context.Context) (uint64, int, error) {
	var (
		assets   []oracle.Address
		decimals uint32
		ok       bool
	)
	err := f.host.View(ctx, "feeder_config", func(store oracle.Storage) error {
		o := oracle.New(store)
		var err error
		if decimals, ok, err = o.Decimals(); err != nil || !ok {
			return err
		}
		assets, err = o.Assets()
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	if !ok || len(assets) == 0 {
		return 0, 0, ErrNotConfigured
	}

	quotes, err := f.source.Fetch(ctx, assets)
	if err != nil {
		return 0, 0, err
	}

	updates := make([]fixedpoint.Int128, len(assets))
	var missing []string
	for i, a := range assets {
		q, found := quotes[a]
		if !found {
			missing = append(missing, string(a))
			continue
		}
		if updates[i], err = fixedpoint.FromDecimal(q, decimals); err != nil {
			return 0, 0, fmt.Errorf("quote for %s: %w", a, err)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, 0, fmt.Errorf("%w: %s", ErrIncompleteQuotes, strings.Join(missing, ", "))
	}

	now := f.host.Now()
	var stored uint64
	err = f.host.Execute(ctx, "set_price", func(store oracle.Storage) error {
		o := oracle.New(store)
		if err := o.SetPrice(f.admin, updates, now); err != nil {
			return err
		}
		var err error
		stored, _, err = o.LastTimestamp()
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	f.log.WithFields(logrus.Fields{
		"timestamp": stored,
		"assets":    len(assets),
	}).Info("Prices published")
	return stored, len(assets), nil
}
